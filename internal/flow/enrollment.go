package flow

import (
	"context"
	"net/http"
	"strings"

	"youareloved-web/internal/enrollapi"
	"youareloved-web/internal/logging"
	"youareloved-web/internal/model"
	"youareloved-web/internal/store"
)

// DownloadResult is what the enrollment page renders. Enrollment is set
// only on the response to a successful submission.
type DownloadResult struct {
	View       model.DownloadView
	Errors     FieldErrors
	Notice     string
	Form       PartnerForm
	Enrollment *model.Enrollment
}

type Enrollment struct {
	API   API
	Store *store.Store
	Log   logging.Logger

	// RequirePartner turns the partner check into a hard gate. By default
	// enrollment proceeds without partners and only shows the add panel.
	RequirePartner bool
}

func (e *Enrollment) session(sessionID string) Session {
	return e.Store.Handle(sessionID)
}

// Resolve opens a new enrollment page instance. A stored credential wins
// over the query prefill; without one the query identity is used as is.
func (e *Enrollment) Resolve(ctx context.Context, sessionID string, prefill model.Identity) (DownloadResult, error) {
	prefill = normalizeIdentity(prefill)
	ticket, ok := e.Store.StartDownload(sessionID, model.DownloadView{Identity: prefill})
	if !ok {
		return DownloadResult{}, ErrNoSession
	}

	identity := prefill
	var known []model.Partner
	sess := e.session(sessionID)
	if token, signedIn := sess.Load().Token(); signedIn {
		acc, err := e.API.AccountByToken(ctx, token)
		switch {
		case err == nil:
			if acc.Email != "" {
				identity.Email = acc.Email
			}
			if acc.FirstName != "" {
				identity.FirstName = acc.FirstName
			}
			known = acc.Partners
		case enrollapi.IsStatus(err, http.StatusUnauthorized), enrollapi.IsStatus(err, http.StatusForbidden):
			e.Log.Info(ctx, "session token rejected, signing out")
			sess.Clear()
		default:
			e.Log.Warn(ctx, "account lookup by token failed", "err", err)
		}
	}

	var (
		fetched []model.Partner
		checked = len(known) > 0
		failed  bool
	)
	if checked {
		fetched = known
	} else if identity.Email != "" {
		list, err := e.API.ListPartners(ctx, identity.Email)
		if err != nil {
			e.Log.Warn(ctx, "partner fetch failed", "email", identity.Email, "err", err)
			failed = true
		} else {
			fetched = list
			checked = true
		}
	}

	view, ok := e.Store.UpdateDownload(ticket, func(v *model.DownloadView) {
		v.Identity = identity
		v.Partners = MergePartners(v.Partners, fetched)
		v.Checked = checked
		v.FetchFailed = failed
	})
	if !ok {
		return DownloadResult{}, ErrSuperseded
	}
	return DownloadResult{View: view}, nil
}

// Current returns the live page state without touching the API.
func (e *Enrollment) Current(sessionID string) (DownloadResult, error) {
	view, ok := e.Store.Download(sessionID)
	if !ok {
		return DownloadResult{}, ErrNoSession
	}
	return DownloadResult{View: view}, nil
}

// adoptIdentity records what the user typed. Partners belong to one email,
// so switching to another email forgets the ones shown so far.
func adoptIdentity(v *model.DownloadView, id model.Identity) {
	if !strings.EqualFold(v.Identity.Email, id.Email) {
		v.Partners = nil
		v.Checked = false
		v.FetchFailed = false
	}
	v.Identity = id
}

// Recheck runs the partner lookup again after the email field changed.
func (e *Enrollment) Recheck(ctx context.Context, sessionID string, id model.Identity) (DownloadResult, error) {
	id = normalizeIdentity(id)

	if !e.Store.Acquire(sessionID, store.ActionCheck) {
		return DownloadResult{}, ErrBusy
	}
	defer e.Store.Release(sessionID, store.ActionCheck)

	ticket, ok := e.Store.CurrentTicket(sessionID, store.DownloadView)
	if !ok {
		return DownloadResult{}, ErrNoSession
	}
	view, ok := e.Store.UpdateDownload(ticket, func(v *model.DownloadView) { adoptIdentity(v, id) })
	if !ok {
		return DownloadResult{}, ErrSuperseded
	}
	if id.Email == "" {
		return DownloadResult{View: view}, nil
	}

	list, err := e.API.ListPartners(ctx, id.Email)
	if err != nil {
		e.Log.Warn(ctx, "partner fetch failed", "email", id.Email, "err", err)
	}
	view, ok = e.Store.UpdateDownload(ticket, func(v *model.DownloadView) {
		if err != nil {
			v.FetchFailed = true
			return
		}
		v.Checked = true
		v.FetchFailed = false
		v.Partners = MergePartners(v.Partners, list)
	})
	if !ok {
		return DownloadResult{}, ErrSuperseded
	}
	return DownloadResult{View: view}, nil
}

// AddPartner adds a partner from the inline panel. Success clears the
// failed-lookup warning.
func (e *Enrollment) AddPartner(ctx context.Context, sessionID string, id model.Identity, form PartnerForm) (DownloadResult, error) {
	id = normalizeIdentity(id)
	form = form.normalized()

	current, ok := e.Store.Download(sessionID)
	if !ok {
		return DownloadResult{}, ErrNoSession
	}
	adoptIdentity(&current, id)

	errs := form.Validate()
	if id.Email == "" {
		errs = errs.add("email", MsgRequired)
	}
	if len(errs) > 0 {
		return DownloadResult{View: current, Errors: errs, Form: form}, nil
	}

	if !e.Store.Acquire(sessionID, store.ActionAddPartner) {
		return DownloadResult{}, ErrBusy
	}
	defer e.Store.Release(sessionID, store.ActionAddPartner)

	ticket, ok := e.Store.CurrentTicket(sessionID, store.DownloadView)
	if !ok {
		return DownloadResult{}, ErrNoSession
	}

	partner := form.Partner()
	if err := e.API.CreatePartner(ctx, id.Email, partner); err != nil {
		e.Log.Warn(ctx, "create partner failed", "email", id.Email, "err", err)
		return DownloadResult{View: current, Notice: MsgAddPartnerFailed, Form: form}, nil
	}

	view, ok := e.Store.UpdateDownload(ticket, func(v *model.DownloadView) {
		adoptIdentity(v, id)
		v.Partners = append(v.Partners, partner)
		v.Checked = true
		v.FetchFailed = false
	})
	if !ok {
		return DownloadResult{}, ErrSuperseded
	}
	return DownloadResult{View: view}, nil
}

// Enroll requests an installable profile link. The link is returned to the
// caller only and never stored.
func (e *Enrollment) Enroll(ctx context.Context, sessionID string, id model.Identity) (DownloadResult, error) {
	id = normalizeIdentity(id)

	current, ok := e.Store.Download(sessionID)
	if !ok {
		return DownloadResult{}, ErrNoSession
	}
	adoptIdentity(&current, id)

	var errs FieldErrors
	if id.Email == "" {
		errs = errs.add("email", MsgRequired)
	}
	if id.FirstName == "" {
		errs = errs.add("first_name", MsgRequired)
	}
	if len(errs) > 0 {
		return DownloadResult{View: current, Errors: errs}, nil
	}
	if e.RequirePartner && len(current.Partners) == 0 {
		return DownloadResult{View: current, Notice: MsgPartnerRequired}, nil
	}

	if !e.Store.Acquire(sessionID, store.ActionEnroll) {
		return DownloadResult{}, ErrBusy
	}
	defer e.Store.Release(sessionID, store.ActionEnroll)

	ticket, ok := e.Store.CurrentTicket(sessionID, store.DownloadView)
	if !ok {
		return DownloadResult{}, ErrNoSession
	}

	enrollment, err := e.API.Enroll(ctx, enrollapi.EnrollRequest{FirstName: id.FirstName, Email: id.Email})
	view, committed := e.Store.UpdateDownload(ticket, func(v *model.DownloadView) { adoptIdentity(v, id) })
	if !committed {
		return DownloadResult{}, ErrSuperseded
	}
	if err != nil {
		e.Log.Warn(ctx, "device enrollment failed", "email", id.Email, "err", err)
		return DownloadResult{View: view, Notice: MsgEnrollFailed}, nil
	}
	e.Log.Info(ctx, "device enrolled", "email", id.Email)
	return DownloadResult{View: view, Enrollment: &enrollment}, nil
}
