package flow

import (
	"context"
	"sync"

	"youareloved-web/internal/enrollapi"
	"youareloved-web/internal/logging"
	"youareloved-web/internal/model"
	"youareloved-web/internal/store"
)

type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	registerResult enrollapi.RegisterResult
	registerErr    error
	account        enrollapi.Account
	accountErr     error
	partners       map[string][]model.Partner
	listErr        error
	createErr      error
	created        []model.Partner
	enrollResult   model.Enrollment
	enrollErr      error

	// hook runs inside each call, after it is recorded.
	hook func(op string)
}

func (f *fakeAPI) record(op string) {
	f.mu.Lock()
	f.calls = append(f.calls, op)
	hook := f.hook
	f.mu.Unlock()
	if hook != nil {
		hook(op)
	}
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeAPI) Register(ctx context.Context, req enrollapi.RegisterRequest) (enrollapi.RegisterResult, error) {
	f.record("register")
	return f.registerResult, f.registerErr
}

func (f *fakeAPI) AccountByToken(ctx context.Context, token string) (enrollapi.Account, error) {
	f.record("account")
	return f.account, f.accountErr
}

func (f *fakeAPI) ListPartners(ctx context.Context, email string) ([]model.Partner, error) {
	f.record("list:" + email)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.partners[email], nil
}

func (f *fakeAPI) CreatePartner(ctx context.Context, userEmail string, p model.Partner) error {
	f.record("create:" + userEmail)
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	f.created = append(f.created, p)
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) Enroll(ctx context.Context, req enrollapi.EnrollRequest) (model.Enrollment, error) {
	f.record("enroll")
	return f.enrollResult, f.enrollErr
}

func newSetup(api *fakeAPI) (*Setup, *store.Store, string) {
	st := store.New()
	return &Setup{API: api, Store: st, Log: logging.Discard()}, st, st.Create()
}

func newEnrollment(api *fakeAPI) (*Enrollment, *store.Store, string) {
	st := store.New()
	return &Enrollment{API: api, Store: st, Log: logging.Discard()}, st, st.Create()
}
