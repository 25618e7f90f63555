package store

import "youareloved-web/internal/model"

// Handle binds the store to one session id. It is the session context the
// flows load and clear the API credential through.
type Handle struct {
	store *Store
	id    string
}

func (s *Store) Handle(sessionID string) *Handle {
	return &Handle{store: s, id: sessionID}
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) Load() model.Credential {
	return h.store.Credential(h.id)
}

func (h *Handle) Save(cred model.Credential) {
	h.store.SetCredential(h.id, cred)
}

func (h *Handle) Clear() {
	h.store.SetCredential(h.id, model.SignedOut())
}
