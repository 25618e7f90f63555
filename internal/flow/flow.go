// Package flow holds the account setup wizard and the device enrollment
// page logic, independent of HTTP. Every upstream failure is turned into
// view state here; nothing but session bookkeeping errors leaves a flow.
package flow

import (
	"context"
	"errors"
	"strings"

	"youareloved-web/internal/enrollapi"
	"youareloved-web/internal/model"
)

// API is the subset of the enrollment API the flows call.
type API interface {
	Register(ctx context.Context, req enrollapi.RegisterRequest) (enrollapi.RegisterResult, error)
	AccountByToken(ctx context.Context, token string) (enrollapi.Account, error)
	ListPartners(ctx context.Context, email string) ([]model.Partner, error)
	CreatePartner(ctx context.Context, userEmail string, p model.Partner) error
	Enroll(ctx context.Context, req enrollapi.EnrollRequest) (model.Enrollment, error)
}

// Session is the explicit session context: the API credential plus its
// signed-out variant.
type Session interface {
	Load() model.Credential
	Save(model.Credential)
	Clear()
}

var (
	ErrNoSession  = errors.New("session not found")
	ErrBusy       = errors.New("request already in progress")
	ErrWrongStep  = errors.New("setup is not at the partner step")
	ErrNoPartners = errors.New("at least one accountability partner is required")
	ErrSuperseded = errors.New("page was reloaded while the request was running")
)

// Message keys, resolved against the locale catalog at render time.
const (
	MsgRequired         = "error.required"
	MsgInvalidEmail     = "error.invalidEmail"
	MsgPasswordShort    = "error.passwordShort"
	MsgPasswordMismatch = "error.passwordMismatch"
	MsgAddPartnerFailed = "error.addPartnerFailed"
	MsgEnrollFailed     = "error.enrollFailed"
	MsgPartnerRequired  = "error.partnerRequired"
	MsgNoPartners       = "error.noPartners"
	MsgBusy             = "error.busy"
)

const MinPasswordLength = 8

// FieldErrors maps form field names to message keys.
type FieldErrors map[string]string

func (fe FieldErrors) add(field, key string) FieldErrors {
	if fe == nil {
		fe = FieldErrors{}
	}
	if _, exists := fe[field]; !exists {
		fe[field] = key
	}
	return fe
}

type AccountForm struct {
	Email           string
	FirstName       string
	Password        string
	ConfirmPassword string
}

func (f AccountForm) normalized() AccountForm {
	f.Email = strings.TrimSpace(f.Email)
	f.FirstName = strings.TrimSpace(f.FirstName)
	return f
}

func (f AccountForm) Validate() FieldErrors {
	var errs FieldErrors
	if f.Email == "" {
		errs = errs.add("email", MsgRequired)
	}
	if f.FirstName == "" {
		errs = errs.add("first_name", MsgRequired)
	}
	if f.Password != f.ConfirmPassword {
		errs = errs.add("confirm_password", MsgPasswordMismatch)
	}
	if len([]rune(f.Password)) < MinPasswordLength {
		errs = errs.add("password", MsgPasswordShort)
	}
	return errs
}

type PartnerForm struct {
	Name     string
	Telegram string
	Email    string
}

func (f PartnerForm) normalized() PartnerForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Telegram = strings.TrimSpace(f.Telegram)
	f.Email = strings.TrimSpace(f.Email)
	return f
}

func (f PartnerForm) Validate() FieldErrors {
	var errs FieldErrors
	if f.Name == "" {
		errs = errs.add("partner_name", MsgRequired)
	}
	if f.Telegram == "" {
		errs = errs.add("partner_telegram", MsgRequired)
	}
	return errs
}

func (f PartnerForm) Partner() model.Partner {
	return model.Partner{Name: f.Name, Telegram: f.Telegram, Email: f.Email}
}

func normalizeIdentity(id model.Identity) model.Identity {
	return model.Identity{
		Email:     strings.TrimSpace(id.Email),
		FirstName: strings.TrimSpace(id.FirstName),
	}
}
