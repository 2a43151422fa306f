package identity

import (
	"context"

	"github.com/jrsteele09/go-auth-portal/sessions"
)

// ChangeHandler receives session-change notifications. A nil session means there is no
// current session (sign-out, expiry or an empty initial session).
// Handlers are called on the provider's goroutine and must return quickly.
type ChangeHandler func(kind sessions.EventKind, session *sessions.Session)

// Unsubscribe releases a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

// SignUpRequest carries the fields of a registration.
type SignUpRequest struct {
	Email      string
	Password   string
	FullName   string
	RedirectTo string // Where the confirmation email sends the user back to
}

// Provider is the identity service the portal talks to.
type Provider interface {
	// GetCurrentSession returns the session the provider currently holds, or nil
	GetCurrentSession(ctx context.Context) (*sessions.Session, error)

	// Subscribe registers a long-lived session-change handler
	Subscribe(handler ChangeHandler) Unsubscribe

	// SignIn authenticates with email and password
	SignIn(ctx context.Context, email, password string) (*sessions.Session, error)

	// SignUp registers an account. The session is nil while email confirmation is pending.
	SignUp(ctx context.Context, req SignUpRequest) (*sessions.Session, error)

	// SignOut ends the current session
	SignOut(ctx context.Context) error
}
