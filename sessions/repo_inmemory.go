package sessions

import (
	"fmt"
	"sync"

	"github.com/jrsteele09/go-auth-portal/internal/errors"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a thread-safe in-memory implementation of Repo
type InMemoryRepo struct {
	mu      sync.RWMutex
	session *Session
}

// NewInMemoryRepo creates an empty in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{}
}

// Put stores a copy of the session
func (r *InMemoryRepo) Put(session Session) error {
	if session.ID == "" {
		return fmt.Errorf("[InMemoryRepo.Put] session ID is required")
	}
	if session.Identity.ID == "" {
		return fmt.Errorf("[InMemoryRepo.Put] identity ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = &session
	return nil
}

// Current returns a copy of the held session
func (r *InMemoryRepo) Current() (Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.session == nil {
		return Session{}, errors.ErrSessionNotFound
	}
	return *r.session, nil
}

// Clear removes the held session
func (r *InMemoryRepo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.session = nil
	return nil
}
