package web

import (
	"html/template"
	"strings"

	"youareloved-web/internal/flow"
	"youareloved-web/internal/model"
)

type Plan struct {
	Name        string
	Price       string
	IntervalKey string
	Monthly     string
	MonthlyKey  string
	Platform    string
	Featured    bool
}

type HomeData struct {
	Plans []Plan
}

var Plans = []Plan{
	{Name: "Guardian", Price: "$79", IntervalKey: "pricing.yearSuffix", Monthly: "~$6.58/month", Platform: "macOS"},
	{Name: "Covenant", Price: "$149", IntervalKey: "pricing.yearSuffix", Monthly: "~$12.42/month", Platform: "macOS + iPhone", Featured: true},
	{Name: "Transformation", Price: "$299", IntervalKey: "pricing.onceSuffix", MonthlyKey: "pricing.lifetimeAccess", Platform: "macOS + iPhone"},
}

type ErrorData struct {
	Heading string
	Message string
}

// SetupData is the wizard view. Step is "account" or "partners".
type SetupData struct {
	Step        string
	Identity    model.Identity
	Partners    []model.Partner
	Errors      flow.FieldErrors
	Notice      string
	Form        flow.PartnerForm
	CanContinue bool
}

func NewSetupData(res flow.SetupResult) SetupData {
	return SetupData{
		Step:        res.View.Step.String(),
		Identity:    res.View.Identity,
		Partners:    res.View.Partners,
		Errors:      res.Errors,
		Notice:      res.Notice,
		Form:        res.Form,
		CanContinue: res.CanContinue(),
	}
}

func (d SetupData) Err(name string) string { return d.Errors[name] }

// DownloadData is the enrollment page view.
type DownloadData struct {
	Identity    model.Identity
	Partners    []model.Partner
	FetchFailed bool
	SignedIn    bool

	Errors        flow.FieldErrors
	Notice        string
	PartnerNotice string
	Form          flow.PartnerForm

	// ShowAddPartner opens the inline add-partner panel.
	ShowAddPartner bool

	Enrollment     *model.Enrollment
	QR             template.URL
	MacDownloadURL string
}

func NewDownloadData(res flow.DownloadResult, signedIn bool, macURL string) DownloadData {
	d := DownloadData{
		Identity:       res.View.Identity,
		Partners:       res.View.Partners,
		FetchFailed:    res.View.FetchFailed,
		SignedIn:       signedIn,
		Errors:         res.Errors,
		Form:           res.Form,
		Enrollment:     res.Enrollment,
		MacDownloadURL: macURL,
	}
	if res.Notice == flow.MsgAddPartnerFailed {
		d.PartnerNotice = res.Notice
	} else {
		d.Notice = res.Notice
	}

	d.ShowAddPartner = res.View.NeedsPartner() || d.PartnerNotice != "" || res.Notice == flow.MsgPartnerRequired
	for field := range res.Errors {
		if strings.HasPrefix(field, "partner_") {
			d.ShowAddPartner = true
		}
	}
	return d
}

func (d DownloadData) Err(name string) string { return d.Errors[name] }
