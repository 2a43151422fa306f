package observer

import (
	"fmt"

	"github.com/jrsteele09/go-auth-portal/profiles"
	"github.com/jrsteele09/go-auth-portal/sessions"
)

// State is what the personalized view should render.
type State int

const (
	// Loading means neither the initial lookup nor a notification has resolved yet
	Loading State = iota
	// Unauthenticated means there is no session; the user has been sent to credential entry
	Unauthenticated
	// Authenticated means there is a session; the display name may still be the default
	Authenticated
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Unauthenticated:
		return "unauthenticated"
	case Authenticated:
		return "authenticated"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is one consistent view of the observer's state. Snapshots are immutable.
type Snapshot struct {
	State       State
	Session     *sessions.Session
	DisplayName string
}

// Greeting is the personalized heading of the main view.
func (s Snapshot) Greeting() string {
	name := s.DisplayName
	if name == "" {
		name = profiles.DefaultDisplayName
	}
	return fmt.Sprintf("Hello, %s!", name)
}

func (s Snapshot) withSession(session *sessions.Session) Snapshot {
	next := Snapshot{State: Unauthenticated, DisplayName: profiles.DefaultDisplayName}
	if session == nil {
		return next
	}

	cp := *session
	next.State = Authenticated
	next.Session = &cp
	// Keep a name already fetched for the same identity across token refreshes
	if s.Session != nil && s.Session.Identity.ID == session.Identity.ID {
		next.DisplayName = s.DisplayName
	}
	return next
}

func (s Snapshot) copy() Snapshot {
	if s.Session != nil {
		cp := *s.Session
		s.Session = &cp
	}
	return s
}
