package flow

import (
	"context"
	"net/url"

	"youareloved-web/internal/enrollapi"
	"youareloved-web/internal/logging"
	"youareloved-web/internal/model"
	"youareloved-web/internal/store"
)

// SetupResult is what a wizard step renders.
type SetupResult struct {
	View   model.SetupView
	Errors FieldErrors
	Notice string
	Form   PartnerForm
}

// CanContinue reports whether the wizard may leave the partner step.
func (r SetupResult) CanContinue() bool {
	return r.View.Step == model.PartnerStep && len(r.View.Partners) > 0
}

type Setup struct {
	API   API
	Store *store.Store
	Log   logging.Logger
}

func (s *Setup) session(sessionID string) Session {
	return s.Store.Handle(sessionID)
}

// Start opens a new wizard instance at the account step.
func (s *Setup) Start(sessionID string, prefill model.Identity) (SetupResult, error) {
	view := model.SetupView{Step: model.AccountStep, Identity: normalizeIdentity(prefill)}
	if _, ok := s.Store.StartSetup(sessionID, view); !ok {
		return SetupResult{}, ErrNoSession
	}
	return SetupResult{View: view}, nil
}

// Current returns the live wizard state without touching the API.
func (s *Setup) Current(sessionID string) (SetupResult, error) {
	view, ok := s.Store.Setup(sessionID)
	if !ok {
		return SetupResult{}, ErrNoSession
	}
	return SetupResult{View: view}, nil
}

// SubmitAccount validates the account form, registers best-effort and moves
// the wizard to the partner step, fetching existing partners on entry.
func (s *Setup) SubmitAccount(ctx context.Context, sessionID string, form AccountForm) (SetupResult, error) {
	form = form.normalized()
	identity := model.Identity{Email: form.Email, FirstName: form.FirstName}

	if errs := form.Validate(); len(errs) > 0 {
		view, ok := s.Store.Setup(sessionID)
		if !ok {
			return SetupResult{}, ErrNoSession
		}
		// The stored step is left alone; errors belong to the account form.
		view.Step = model.AccountStep
		view.Identity = identity
		return SetupResult{View: view, Errors: errs}, nil
	}

	if !s.Store.Acquire(sessionID, store.ActionRegister) {
		return SetupResult{}, ErrBusy
	}
	defer s.Store.Release(sessionID, store.ActionRegister)

	ticket, ok := s.Store.CurrentTicket(sessionID, store.SetupView)
	if !ok {
		return SetupResult{}, ErrNoSession
	}

	res, err := s.API.Register(ctx, enrollapi.RegisterRequest{
		Email:     form.Email,
		FirstName: form.FirstName,
		Password:  form.Password,
	})
	switch {
	case err != nil:
		s.Log.Warn(ctx, "account registration failed, continuing to partner setup", "email", form.Email, "err", err)
	case res.Token != "":
		s.session(sessionID).Save(model.SignedIn(res.Token))
	}

	if _, ok := s.Store.UpdateSetup(ticket, func(v *model.SetupView) {
		v.Step = model.PartnerStep
		v.Identity = identity
	}); !ok {
		return SetupResult{}, ErrSuperseded
	}

	fetched := s.fetchPartners(ctx, identity.Email)
	view, ok := s.Store.UpdateSetup(ticket, func(v *model.SetupView) {
		v.Partners = MergePartners(v.Partners, fetched)
	})
	if !ok {
		return SetupResult{}, ErrSuperseded
	}
	return SetupResult{View: view}, nil
}

func (s *Setup) fetchPartners(ctx context.Context, email string) []model.Partner {
	list, err := s.API.ListPartners(ctx, email)
	if err != nil {
		s.Log.Warn(ctx, "partner fetch failed", "email", email, "err", err)
		return nil
	}
	return list
}

// AddPartner creates a partner upstream and appends it locally. On failure
// the input is echoed back with a retry notice and nothing is committed.
func (s *Setup) AddPartner(ctx context.Context, sessionID string, form PartnerForm) (SetupResult, error) {
	view, ok := s.Store.Setup(sessionID)
	if !ok {
		return SetupResult{}, ErrNoSession
	}
	if view.Step != model.PartnerStep {
		return SetupResult{}, ErrWrongStep
	}

	form = form.normalized()
	if errs := form.Validate(); len(errs) > 0 {
		return SetupResult{View: view, Errors: errs, Form: form}, nil
	}

	if !s.Store.Acquire(sessionID, store.ActionAddPartner) {
		return SetupResult{}, ErrBusy
	}
	defer s.Store.Release(sessionID, store.ActionAddPartner)

	ticket, ok := s.Store.CurrentTicket(sessionID, store.SetupView)
	if !ok {
		return SetupResult{}, ErrNoSession
	}

	partner := form.Partner()
	if err := s.API.CreatePartner(ctx, view.Identity.Email, partner); err != nil {
		s.Log.Warn(ctx, "create partner failed", "email", view.Identity.Email, "err", err)
		return SetupResult{View: view, Notice: MsgAddPartnerFailed, Form: form}, nil
	}

	view, ok = s.Store.UpdateSetup(ticket, func(v *model.SetupView) {
		v.Partners = append(v.Partners, partner)
	})
	if !ok {
		return SetupResult{}, ErrSuperseded
	}
	return SetupResult{View: view}, nil
}

// Continue returns the enrollment page URL, carrying email and name, once
// at least one partner exists.
func (s *Setup) Continue(sessionID string) (string, error) {
	view, ok := s.Store.Setup(sessionID)
	if !ok {
		return "", ErrNoSession
	}
	if view.Step != model.PartnerStep {
		return "", ErrWrongStep
	}
	if len(view.Partners) == 0 {
		return "", ErrNoPartners
	}
	return DownloadURL(view.Identity), nil
}

// DownloadURL is the enrollment page link prefilled with the identity.
func DownloadURL(id model.Identity) string {
	params := url.Values{}
	params.Set("email", id.Email)
	params.Set("name", id.FirstName)
	return "/download?" + params.Encode()
}
