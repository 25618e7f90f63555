package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"youareloved-web/internal/model"
)

type View int

const (
	SetupView View = iota
	DownloadView
)

type Action string

const (
	ActionRegister   Action = "register"
	ActionAddPartner Action = "add-partner"
	ActionCheck      Action = "check-partners"
	ActionEnroll     Action = "enroll"
)

// Ticket pins an action to the view instance it started in. Updates made
// with a ticket whose epoch has since moved on are dropped.
type Ticket struct {
	SessionID string
	View      View
	Epoch     uint64
}

type record struct {
	credential model.Credential
	setup      model.SetupView
	download   model.DownloadView
	epochs     map[View]uint64
	inFlight   map[Action]bool
	lastSeen   time.Time
}

type Store struct {
	mu      sync.Mutex
	records map[string]*record
	ttl     time.Duration
	max     int
	now     func() time.Time
}

type Options struct {
	TTL time.Duration
	// MaxSessions caps the number of records. Zero means no cap.
	MaxSessions int
	Now         func() time.Time
}

func New() *Store {
	return NewWithOptions(Options{})
}

func NewWithOptions(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		records: make(map[string]*record),
		ttl:     opts.TTL,
		max:     opts.MaxSessions,
		now:     opts.Now,
	}
}

// Create starts a new empty session and returns its id. When the store is
// full it drops expired records first, then the least recently seen record
// with nothing in flight.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && len(s.records) >= s.max {
		s.sweepLocked()
		for len(s.records) >= s.max {
			if !s.evictLocked() {
				break
			}
		}
	}

	id := uuid.NewString()
	s.records[id] = &record{
		epochs:   make(map[View]uint64),
		inFlight: make(map[Action]bool),
		lastSeen: s.now(),
	}
	return id
}

// Touch marks the session as used and reports whether it still exists.
func (s *Store) Touch(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getLocked(sessionID)
	if rec == nil {
		return false
	}
	rec.lastSeen = s.now()
	return true
}

func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, sessionID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// getLocked returns the live record, dropping it if it idled past the TTL.
func (s *Store) getLocked(sessionID string) *record {
	rec, ok := s.records[sessionID]
	if !ok {
		return nil
	}
	if s.now().Sub(rec.lastSeen) > s.ttl {
		delete(s.records, sessionID)
		return nil
	}
	return rec
}

func (s *Store) Credential(sessionID string) model.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec := s.getLocked(sessionID); rec != nil {
		return rec.credential
	}
	return model.SignedOut()
}

func (s *Store) SetCredential(sessionID string, cred model.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec := s.getLocked(sessionID); rec != nil {
		rec.credential = cred
	}
}

// StartSetup begins a fresh wizard instance. In-flight work from earlier
// instances can no longer commit.
func (s *Store) StartSetup(sessionID string, initial model.SetupView) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getLocked(sessionID)
	if rec == nil {
		return Ticket{}, false
	}
	rec.epochs[SetupView]++
	rec.setup = initial.Clone()
	return Ticket{SessionID: sessionID, View: SetupView, Epoch: rec.epochs[SetupView]}, true
}

func (s *Store) StartDownload(sessionID string, initial model.DownloadView) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getLocked(sessionID)
	if rec == nil {
		return Ticket{}, false
	}
	rec.epochs[DownloadView]++
	rec.download = initial.Clone()
	return Ticket{SessionID: sessionID, View: DownloadView, Epoch: rec.epochs[DownloadView]}, true
}

// CurrentTicket returns a ticket for the live instance of the view.
func (s *Store) CurrentTicket(sessionID string, view View) (Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getLocked(sessionID)
	if rec == nil {
		return Ticket{}, false
	}
	return Ticket{SessionID: sessionID, View: view, Epoch: rec.epochs[view]}, true
}

func (s *Store) Setup(sessionID string) (model.SetupView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getLocked(sessionID)
	if rec == nil {
		return model.SetupView{}, false
	}
	return rec.setup.Clone(), true
}

func (s *Store) Download(sessionID string) (model.DownloadView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getLocked(sessionID)
	if rec == nil {
		return model.DownloadView{}, false
	}
	return rec.download.Clone(), true
}

func (s *Store) liveLocked(t Ticket) *record {
	rec := s.getLocked(t.SessionID)
	if rec == nil || rec.epochs[t.View] != t.Epoch {
		return nil
	}
	return rec
}

// UpdateSetup applies fn to the wizard state if the ticket is still live and
// returns the committed state.
func (s *Store) UpdateSetup(t Ticket, fn func(*model.SetupView)) (model.SetupView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.liveLocked(t)
	if rec == nil || t.View != SetupView {
		return model.SetupView{}, false
	}
	next := rec.setup.Clone()
	fn(&next)
	rec.setup = next
	return next.Clone(), true
}

func (s *Store) UpdateDownload(t Ticket, fn func(*model.DownloadView)) (model.DownloadView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.liveLocked(t)
	if rec == nil || t.View != DownloadView {
		return model.DownloadView{}, false
	}
	next := rec.download.Clone()
	fn(&next)
	rec.download = next
	return next.Clone(), true
}

// Acquire marks an action as running for the session. It returns false if
// the same action is already in flight.
func (s *Store) Acquire(sessionID string, action Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.getLocked(sessionID)
	if rec == nil || rec.inFlight[action] {
		return false
	}
	rec.inFlight[action] = true
	return true
}

func (s *Store) Release(sessionID string, action Action) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[sessionID]; ok {
		delete(rec.inFlight, action)
	}
}

func (s *Store) InFlight(sessionID string, action Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionID]
	return ok && rec.inFlight[action]
}

// Sweep drops every session idle past the TTL and returns how many went.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked()
}

func (s *Store) sweepLocked() int {
	removed := 0
	now := s.now()
	for id, rec := range s.records {
		if now.Sub(rec.lastSeen) > s.ttl && len(rec.inFlight) == 0 {
			delete(s.records, id)
			removed++
		}
	}
	return removed
}

// evictLocked drops the oldest idle record and reports whether one was found.
func (s *Store) evictLocked() bool {
	var (
		oldest string
		seen   time.Time
	)
	for id, rec := range s.records {
		if len(rec.inFlight) > 0 {
			continue
		}
		if oldest == "" || rec.lastSeen.Before(seen) {
			oldest, seen = id, rec.lastSeen
		}
	}
	if oldest == "" {
		return false
	}
	delete(s.records, oldest)
	return true
}

// RunJanitor sweeps on every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
