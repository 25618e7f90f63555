package flow

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"youareloved-web/internal/enrollapi"
	"youareloved-web/internal/model"
	"youareloved-web/internal/store"
)

func TestEnrollment_QueryPrefill(t *testing.T) {
	api := &fakeAPI{}
	e, _, sid := newEnrollment(api)

	res, err := e.Resolve(context.Background(), sid, model.Identity{Email: "a@b.com", FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, model.Identity{Email: "a@b.com", FirstName: "Jane"}, res.View.Identity)
	assert.Equal(t, []string{"list:a@b.com"}, api.Calls())
	assert.True(t, res.View.Checked)
	assert.True(t, res.View.NeedsPartner())
}

func TestEnrollment_NothingToResolve(t *testing.T) {
	api := &fakeAPI{}
	e, _, sid := newEnrollment(api)

	res, err := e.Resolve(context.Background(), sid, model.Identity{})
	require.NoError(t, err)
	assert.True(t, res.View.Identity.Empty())
	assert.Empty(t, api.Calls())
	assert.False(t, res.View.NeedsPartner())
}

func TestEnrollment_TokenWinsOverQuery(t *testing.T) {
	api := &fakeAPI{account: enrollapi.Account{
		Email:     "token@x.com",
		FirstName: "Tess",
		Partners:  []model.Partner{{Name: "Sam", Telegram: "sam"}},
	}}
	e, st, sid := newEnrollment(api)
	st.Handle(sid).Save(model.SignedIn("tok"))

	res, err := e.Resolve(context.Background(), sid, model.Identity{Email: "query@x.com", FirstName: "Q"})
	require.NoError(t, err)
	assert.Equal(t, model.Identity{Email: "token@x.com", FirstName: "Tess"}, res.View.Identity)
	assert.Equal(t, []model.Partner{{Name: "Sam", Telegram: "sam"}}, res.View.Partners)
	assert.Equal(t, []string{"account"}, api.Calls())
}

func TestEnrollment_TokenWithoutPartnersFallsBackToList(t *testing.T) {
	api := &fakeAPI{
		account:  enrollapi.Account{Email: "token@x.com", FirstName: "Tess"},
		partners: map[string][]model.Partner{"token@x.com": {{Name: "Sam", Telegram: "sam"}}},
	}
	e, st, sid := newEnrollment(api)
	st.Handle(sid).Save(model.SignedIn("tok"))

	res, err := e.Resolve(context.Background(), sid, model.Identity{})
	require.NoError(t, err)
	assert.Equal(t, []string{"account", "list:token@x.com"}, api.Calls())
	assert.Len(t, res.View.Partners, 1)
}

func TestEnrollment_RejectedTokenSignsOut(t *testing.T) {
	api := &fakeAPI{accountErr: &enrollapi.StatusError{Op: "get account", Status: http.StatusUnauthorized}}
	e, st, sid := newEnrollment(api)
	st.Handle(sid).Save(model.SignedIn("tok"))

	res, err := e.Resolve(context.Background(), sid, model.Identity{Email: "q@x.com", FirstName: "Q"})
	require.NoError(t, err)
	assert.False(t, st.Handle(sid).Load().SignedIn())
	assert.Equal(t, "q@x.com", res.View.Identity.Email)
	assert.Equal(t, []string{"account", "list:q@x.com"}, api.Calls())
}

func TestEnrollment_TokenLookupOutageKeepsCredential(t *testing.T) {
	api := &fakeAPI{accountErr: enrollapi.ErrTransport}
	e, st, sid := newEnrollment(api)
	st.Handle(sid).Save(model.SignedIn("tok"))

	_, err := e.Resolve(context.Background(), sid, model.Identity{})
	require.NoError(t, err)
	assert.True(t, st.Handle(sid).Load().SignedIn())
}

func TestEnrollment_FetchFailureShowsPanel(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("cors")}
	e, _, sid := newEnrollment(api)

	res, err := e.Resolve(context.Background(), sid, model.Identity{Email: "a@b.com"})
	require.NoError(t, err)
	assert.True(t, res.View.FetchFailed)
	assert.True(t, res.View.NeedsPartner())
}

func TestEnrollment_RecheckNewEmailForgetsPartners(t *testing.T) {
	api := &fakeAPI{partners: map[string][]model.Partner{
		"a@b.com": {{Name: "Sam", Telegram: "sam"}},
	}}
	e, _, sid := newEnrollment(api)
	_, err := e.Resolve(context.Background(), sid, model.Identity{Email: "a@b.com"})
	require.NoError(t, err)

	res, err := e.Recheck(context.Background(), sid, model.Identity{Email: "c@d.com", FirstName: "Jane"})
	require.NoError(t, err)
	assert.Empty(t, res.View.Partners)
	assert.Equal(t, "c@d.com", res.View.Identity.Email)
	assert.True(t, res.View.NeedsPartner())
}

func TestEnrollment_RecheckEmptyFetchKeepsLocalPartners(t *testing.T) {
	api := &fakeAPI{}
	e, _, sid := newEnrollment(api)
	id := model.Identity{Email: "a@b.com", FirstName: "Jane"}
	_, _ = e.Resolve(context.Background(), sid, id)

	_, err := e.AddPartner(context.Background(), sid, id, PartnerForm{Name: "One", Telegram: "one"})
	require.NoError(t, err)
	_, err = e.AddPartner(context.Background(), sid, id, PartnerForm{Name: "Two", Telegram: "two"})
	require.NoError(t, err)

	res, err := e.Recheck(context.Background(), sid, id)
	require.NoError(t, err)
	assert.Equal(t, []model.Partner{{Name: "One", Telegram: "one"}, {Name: "Two", Telegram: "two"}}, res.View.Partners)
}

func TestEnrollment_RecheckWithoutEmailSkipsFetch(t *testing.T) {
	api := &fakeAPI{}
	e, _, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})

	_, err := e.Recheck(context.Background(), sid, model.Identity{FirstName: "Jane"})
	require.NoError(t, err)
	assert.Empty(t, api.Calls())
}

func TestEnrollment_AddPartnerClearsWarning(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("down")}
	e, _, sid := newEnrollment(api)
	id := model.Identity{Email: "a@b.com", FirstName: "Jane"}
	_, _ = e.Resolve(context.Background(), sid, id)

	res, err := e.AddPartner(context.Background(), sid, id, PartnerForm{Name: "Sam", Telegram: "sam"})
	require.NoError(t, err)
	assert.False(t, res.View.FetchFailed)
	assert.False(t, res.View.NeedsPartner())
	assert.Equal(t, []model.Partner{{Name: "Sam", Telegram: "sam"}}, res.View.Partners)
}

func TestEnrollment_AddPartnerNeedsEmail(t *testing.T) {
	api := &fakeAPI{}
	e, _, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})

	res, err := e.AddPartner(context.Background(), sid, model.Identity{}, PartnerForm{Name: "Sam", Telegram: "sam"})
	require.NoError(t, err)
	assert.Equal(t, MsgRequired, res.Errors["email"])
	assert.Empty(t, api.Calls())
}

func TestEnrollment_AddPartnerFailure(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("boom")}
	e, _, sid := newEnrollment(api)
	id := model.Identity{Email: "a@b.com", FirstName: "Jane"}
	_, _ = e.Resolve(context.Background(), sid, id)

	form := PartnerForm{Name: "Sam", Telegram: "sam"}
	res, err := e.AddPartner(context.Background(), sid, id, form)
	require.NoError(t, err)
	assert.Equal(t, MsgAddPartnerFailed, res.Notice)
	assert.Equal(t, form, res.Form)
	assert.Empty(t, res.View.Partners)
}

func TestEnrollment_EnrollSuccess(t *testing.T) {
	api := &fakeAPI{enrollResult: model.Enrollment{DownloadURL: "https://x/y", ExpiresIn: 24 * time.Hour}}
	e, st, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})

	res, err := e.Enroll(context.Background(), sid, model.Identity{Email: "a@b.com", FirstName: "Jane"})
	require.NoError(t, err)
	require.NotNil(t, res.Enrollment)
	assert.Equal(t, "https://x/y", res.Enrollment.DownloadURL)
	assert.Equal(t, []string{"enroll"}, api.Calls())
	assert.False(t, st.InFlight(sid, store.ActionEnroll))

	// a fresh page load carries no result
	again, err := e.Resolve(context.Background(), sid, model.Identity{})
	require.NoError(t, err)
	assert.Nil(t, again.Enrollment)
}

func TestEnrollment_EnrollWithoutPartnersIsAdvisory(t *testing.T) {
	api := &fakeAPI{enrollResult: model.Enrollment{DownloadURL: "https://x/y"}}
	e, _, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{Email: "a@b.com"})

	res, err := e.Enroll(context.Background(), sid, model.Identity{Email: "a@b.com", FirstName: "Jane"})
	require.NoError(t, err)
	assert.NotNil(t, res.Enrollment)
}

func TestEnrollment_RequirePartnerGate(t *testing.T) {
	api := &fakeAPI{}
	e, _, sid := newEnrollment(api)
	e.RequirePartner = true
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})

	res, err := e.Enroll(context.Background(), sid, model.Identity{Email: "a@b.com", FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, MsgPartnerRequired, res.Notice)
	assert.Nil(t, res.Enrollment)
	assert.Empty(t, api.Calls())
}

func TestEnrollment_EnrollFailureIsNotRetried(t *testing.T) {
	api := &fakeAPI{enrollErr: &enrollapi.StatusError{Op: "enroll device", Status: http.StatusBadGateway}}
	e, st, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})

	res, err := e.Enroll(context.Background(), sid, model.Identity{Email: "a@b.com", FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, MsgEnrollFailed, res.Notice)
	assert.Nil(t, res.Enrollment)
	assert.Equal(t, []string{"enroll"}, api.Calls())
	assert.False(t, st.InFlight(sid, store.ActionEnroll))
	assert.Equal(t, "Jane", res.View.Identity.FirstName)
}

func TestEnrollment_EnrollRequiresIdentity(t *testing.T) {
	api := &fakeAPI{}
	e, _, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})

	res, err := e.Enroll(context.Background(), sid, model.Identity{Email: "a@b.com"})
	require.NoError(t, err)
	assert.Equal(t, MsgRequired, res.Errors["first_name"])
	assert.Empty(t, api.Calls())
}

func TestEnrollment_DuplicateSubmitIsBusy(t *testing.T) {
	api := &fakeAPI{enrollResult: model.Enrollment{DownloadURL: "https://x/y"}}
	e, st, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})
	id := model.Identity{Email: "a@b.com", FirstName: "Jane"}

	api.hook = func(op string) {
		if op != "enroll" {
			return
		}
		assert.True(t, st.InFlight(sid, store.ActionEnroll))
		_, err := e.Enroll(context.Background(), sid, id)
		assert.ErrorIs(t, err, ErrBusy)
	}

	res, err := e.Enroll(context.Background(), sid, id)
	require.NoError(t, err)
	assert.NotNil(t, res.Enrollment)
	assert.Equal(t, []string{"enroll"}, api.Calls())
}

func TestEnrollment_ReloadDiscardsLateEnrollment(t *testing.T) {
	api := &fakeAPI{enrollResult: model.Enrollment{DownloadURL: "https://x/y"}}
	e, _, sid := newEnrollment(api)
	_, _ = e.Resolve(context.Background(), sid, model.Identity{})

	api.hook = func(op string) {
		if op == "enroll" {
			_, err := e.Resolve(context.Background(), sid, model.Identity{})
			require.NoError(t, err)
		}
	}

	res, err := e.Enroll(context.Background(), sid, model.Identity{Email: "a@b.com", FirstName: "Jane"})
	assert.ErrorIs(t, err, ErrSuperseded)
	assert.Nil(t, res.Enrollment)
}
