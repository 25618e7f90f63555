package model

// Credential is the session-held API token. The zero value is signed out.
type Credential struct {
	token string
}

func SignedOut() Credential { return Credential{} }

func SignedIn(token string) Credential { return Credential{token: token} }

func (c Credential) Token() (string, bool) {
	return c.token, c.token != ""
}

func (c Credential) SignedIn() bool { return c.token != "" }

// SetupView is the server-held state of the two-step setup wizard.
type SetupView struct {
	Step     SetupStep
	Identity Identity
	Partners []Partner
}

// DownloadView is the server-held state of the device enrollment page.
// The enrollment result itself is never kept here.
type DownloadView struct {
	Identity    Identity
	Partners    []Partner
	Checked     bool
	FetchFailed bool
}

// NeedsPartner reports whether the inline add-partner panel should be shown.
func (v DownloadView) NeedsPartner() bool {
	return v.FetchFailed || (v.Checked && len(v.Partners) == 0)
}

func clonePartners(in []Partner) []Partner {
	if in == nil {
		return nil
	}
	out := make([]Partner, len(in))
	copy(out, in)
	return out
}

func (v SetupView) Clone() SetupView {
	v.Partners = clonePartners(v.Partners)
	return v
}

func (v DownloadView) Clone() DownloadView {
	v.Partners = clonePartners(v.Partners)
	return v
}
