package identity

import (
	"slices"
	"sync"

	"github.com/jrsteele09/go-auth-portal/sessions"
)

// Subscribers is a registry of change handlers shared by provider implementations.
// The zero value is ready to use.
type Subscribers struct {
	lock     sync.RWMutex
	nextID   uint64
	handlers map[uint64]ChangeHandler
}

// Add registers handler and returns its release function.
func (s *Subscribers) Add(handler ChangeHandler) Unsubscribe {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.handlers == nil {
		s.handlers = make(map[uint64]ChangeHandler)
	}
	id := s.nextID
	s.nextID++
	s.handlers[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lock.Lock()
			defer s.lock.Unlock()
			delete(s.handlers, id)
		})
	}
}

// Emit calls every registered handler in registration order. Each handler gets its own copy
// of the session.
func (s *Subscribers) Emit(kind sessions.EventKind, session *sessions.Session) {
	s.lock.RLock()
	ids := make([]uint64, 0, len(s.handlers))
	for id := range s.handlers {
		ids = append(ids, id)
	}
	handlers := make([]ChangeHandler, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, s.handlers[id])
	}
	s.lock.RUnlock()

	for _, h := range handlers {
		if session == nil {
			h(kind, nil)
			continue
		}
		cp := *session
		h(kind, &cp)
	}
}

// Len returns the number of live subscriptions.
func (s *Subscribers) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.handlers)
}

