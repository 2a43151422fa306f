package identity

import (
	"fmt"
	"strings"

	"github.com/jrsteele09/go-auth-portal/internal/errors"
)

// Provider error codes. Providers set them when they can; classification also falls back to
// the message text because not every server sends a code.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeEmailNotConfirmed  = "email_not_confirmed"
)

const (
	invalidCredentialsText = "Invalid login credentials"
	alreadyRegisteredText  = "already registered"
)

// Error is a failure reported by the identity provider itself, as opposed to a transport
// failure reaching it.
type Error struct {
	Code    string `json:"error,omitempty"`
	Message string `json:"error_description,omitempty"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	}
	return fmt.Sprintf("identity provider error (status %d)", e.Status)
}

// Is matches the authentication sentinels in internal/errors, so callers can use errors.Is
// with ErrInvalidCredentials, ErrAlreadyRegistered or ErrNotConfirmed.
func (e *Error) Is(target error) bool {
	switch target {
	case errors.ErrInvalidCredentials:
		return e.Code == CodeInvalidCredentials || strings.Contains(e.Message, invalidCredentialsText)
	case errors.ErrAlreadyRegistered:
		return e.Code == CodeUserAlreadyExists || strings.Contains(e.Message, alreadyRegisteredText)
	case errors.ErrNotConfirmed:
		return e.Code == CodeEmailNotConfirmed
	}
	return false
}

// NewInvalidCredentialsError is what providers return for a wrong email or password.
func NewInvalidCredentialsError() *Error {
	return &Error{Code: CodeInvalidCredentials, Message: invalidCredentialsText}
}

// NewAlreadyRegisteredError is what providers return when the email is taken.
func NewAlreadyRegisteredError() *Error {
	return &Error{Code: CodeUserAlreadyExists, Message: "User " + alreadyRegisteredText}
}

// AsProviderError returns the provider error in err's chain, if any.
func AsProviderError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsInvalidCredentials reports whether err is the provider rejecting the credentials.
func IsInvalidCredentials(err error) bool {
	_, ok := AsProviderError(err)
	return ok && errors.Is(err, errors.ErrInvalidCredentials)
}

// IsAlreadyRegistered reports whether err is the provider refusing a duplicate registration.
func IsAlreadyRegistered(err error) bool {
	_, ok := AsProviderError(err)
	return ok && errors.Is(err, errors.ErrAlreadyRegistered)
}

// IsNotConfirmed reports whether err is the provider refusing an account whose email has not
// been confirmed yet.
func IsNotConfirmed(err error) bool {
	_, ok := AsProviderError(err)
	return ok && errors.Is(err, errors.ErrNotConfirmed)
}
