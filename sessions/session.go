package sessions

import (
	"time"
)

// EventKind names a session-change notification emitted by an identity provider.
type EventKind string

const (
	EventInitialSession EventKind = "INITIAL_SESSION"
	EventSignedIn       EventKind = "SIGNED_IN"
	EventSignedOut      EventKind = "SIGNED_OUT"
	EventTokenRefreshed EventKind = "TOKEN_REFRESHED"
	EventUserUpdated    EventKind = "USER_UPDATED"
)

// Identity is the authenticated principal. It is immutable from the client's point of view.
type Identity struct {
	ID    string // Stable principal identifier (OIDC sub)
	Email string // Provider-known email
	Name  string // Provider-known display name, may be empty
}

// Session is the client's most recent copy of a provider-issued session.
// The provider owns the session; the client never mutates one it has been handed.
type Session struct {
	ID       string
	Identity Identity

	AccessToken  string
	RefreshToken string
	IDToken      string

	CreatedAt time.Time
	ExpiresAt time.Time // Zero means the provider did not say
}

// Valid reports whether the session is still inside its time bound.
func (s *Session) Valid(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.ExpiresAt.IsZero() || now.Before(s.ExpiresAt)
}

// UserID returns the identity reference, or "" for a nil session.
func (s *Session) UserID() string {
	if s == nil {
		return ""
	}
	return s.Identity.ID
}
