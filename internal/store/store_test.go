package store

import (
	"testing"
	"time"

	"youareloved-web/internal/model"
)

func TestStore_CreateAndCredential(t *testing.T) {
	s := New()
	id := s.Create()
	if id == "" {
		t.Fatalf("expected session id")
	}

	h := s.Handle(id)
	if h.Load().SignedIn() {
		t.Fatalf("new session must be signed out")
	}
	h.Save(model.SignedIn("tok"))
	if tok, ok := h.Load().Token(); !ok || tok != "tok" {
		t.Fatalf("expected tok, got %q", tok)
	}
	h.Clear()
	if h.Load().SignedIn() {
		t.Fatalf("expected signed out after Clear")
	}
}

func TestStore_StaleTicketIsDropped(t *testing.T) {
	s := New()
	id := s.Create()

	first, ok := s.StartSetup(id, model.SetupView{})
	if !ok {
		t.Fatalf("StartSetup failed")
	}
	if _, ok := s.StartSetup(id, model.SetupView{Identity: model.Identity{Email: "new@x.com"}}); !ok {
		t.Fatalf("StartSetup failed")
	}

	_, committed := s.UpdateSetup(first, func(v *model.SetupView) {
		v.Step = model.PartnerStep
	})
	if committed {
		t.Fatalf("stale ticket must not commit")
	}
	view, _ := s.Setup(id)
	if view.Step != model.AccountStep || view.Identity.Email != "new@x.com" {
		t.Fatalf("unexpected view after stale update: %+v", view)
	}
}

func TestStore_LiveTicketCommits(t *testing.T) {
	s := New()
	id := s.Create()
	ticket, _ := s.StartDownload(id, model.DownloadView{})

	view, ok := s.UpdateDownload(ticket, func(v *model.DownloadView) {
		v.Partners = append(v.Partners, model.Partner{Name: "a", Telegram: "a"})
	})
	if !ok || len(view.Partners) != 1 {
		t.Fatalf("expected committed update, got %+v %v", view, ok)
	}

	// views are independent
	if _, ok := s.UpdateSetup(ticket, func(*model.SetupView) {}); ok {
		t.Fatalf("download ticket must not update setup view")
	}
}

func TestStore_AcquireRelease(t *testing.T) {
	s := New()
	id := s.Create()

	if !s.Acquire(id, ActionEnroll) {
		t.Fatalf("expected first acquire")
	}
	if s.Acquire(id, ActionEnroll) {
		t.Fatalf("expected second acquire to fail")
	}
	if !s.Acquire(id, ActionAddPartner) {
		t.Fatalf("different actions must not block each other")
	}
	s.Release(id, ActionEnroll)
	if s.InFlight(id, ActionEnroll) {
		t.Fatalf("expected released")
	}
	if !s.Acquire(id, ActionEnroll) {
		t.Fatalf("expected acquire after release")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewWithOptions(Options{TTL: time.Hour, Now: func() time.Time { return clock }})
	id := s.Create()
	idle := s.Create()

	clock = clock.Add(30 * time.Minute)
	if !s.Touch(id) {
		t.Fatalf("expected live session")
	}

	clock = clock.Add(45 * time.Minute)
	if removed := s.Sweep(); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
	if s.Touch(idle) {
		t.Fatalf("idle session must be gone")
	}
	if !s.Touch(id) {
		t.Fatalf("touched session must survive")
	}

	clock = clock.Add(2 * time.Hour)
	if s.Touch(id) {
		t.Fatalf("expired session must be dropped on access")
	}
}

func TestStore_MaxSessionsEvictsOldestIdle(t *testing.T) {
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewWithOptions(Options{TTL: time.Hour, MaxSessions: 3, Now: func() time.Time { return clock }})
	create := func() string {
		clock = clock.Add(time.Minute)
		return s.Create()
	}

	a, b, c := create(), create(), create()
	if !s.Acquire(a, ActionEnroll) {
		t.Fatalf("acquire")
	}

	d := create()
	if s.Len() != 3 {
		t.Fatalf("expected 3 sessions, got %d", s.Len())
	}
	if s.Touch(b) {
		t.Fatalf("oldest idle session should be evicted")
	}
	if !s.Touch(a) {
		t.Fatalf("session with an action in flight must survive")
	}

	s.Release(a, ActionEnroll)
	create()
	if s.Touch(c) {
		t.Fatalf("expected c evicted once a was touched")
	}
	if !s.Touch(a) || !s.Touch(d) {
		t.Fatalf("recent sessions must survive")
	}

	clock = clock.Add(2 * time.Hour)
	create()
	if s.Len() != 1 {
		t.Fatalf("expired sessions should be swept before evicting, got %d", s.Len())
	}
}

func TestStore_MaxSessionsAllBusy(t *testing.T) {
	s := NewWithOptions(Options{MaxSessions: 1})
	a := s.Create()
	s.Acquire(a, ActionRegister)
	s.Create()
	if s.Len() != 2 || !s.Touch(a) {
		t.Fatalf("busy sessions are never evicted")
	}
}

func TestStore_UnknownSession(t *testing.T) {
	s := New()
	if s.Acquire("missing", ActionEnroll) {
		t.Fatalf("unknown session must not acquire")
	}
	if _, ok := s.StartSetup("missing", model.SetupView{}); ok {
		t.Fatalf("unknown session must not start a view")
	}
	if s.Credential("missing").SignedIn() {
		t.Fatalf("unknown session must be signed out")
	}
}
