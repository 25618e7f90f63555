package model

import (
	"strings"
	"time"
)

// ProfileLinkLifetime is how long an enrollment download link stays valid
// on the API side.
const ProfileLinkLifetime = 24 * time.Hour

type Partner struct {
	Name     string
	Telegram string
	Email    string
}

// Key identifies a partner by messaging handle, ignoring case and a leading @.
func (p Partner) Key() string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p.Telegram), "@"))
}

type Identity struct {
	Email     string
	FirstName string
}

func (id Identity) Empty() bool {
	return id.Email == "" && id.FirstName == ""
}

type SetupStep int

const (
	AccountStep SetupStep = iota
	PartnerStep
)

func (s SetupStep) String() string {
	switch s {
	case AccountStep:
		return "account"
	case PartnerStep:
		return "partners"
	default:
		return "unknown"
	}
}

type Enrollment struct {
	DownloadURL string
	ExpiresIn   time.Duration
}
