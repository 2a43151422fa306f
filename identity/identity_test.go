package identity_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jrsteele09/go-auth-portal/identity"
	autherrors "github.com/jrsteele09/go-auth-portal/internal/errors"
	"github.com/jrsteele09/go-auth-portal/sessions"
	"github.com/stretchr/testify/require"
)

func TestErrorClassification(t *testing.T) {
	t.Run("invalid credentials by code", func(t *testing.T) {
		err := fmt.Errorf("[SignIn] %w", &identity.Error{Code: identity.CodeInvalidCredentials})
		require.True(t, identity.IsInvalidCredentials(err))
		require.False(t, identity.IsAlreadyRegistered(err))
	})

	t.Run("invalid credentials by message", func(t *testing.T) {
		err := &identity.Error{Code: "invalid_grant", Message: "Invalid login credentials"}
		require.True(t, identity.IsInvalidCredentials(err))
	})

	t.Run("already registered by message", func(t *testing.T) {
		err := &identity.Error{Message: "User already registered"}
		require.True(t, identity.IsAlreadyRegistered(err))
		require.False(t, identity.IsInvalidCredentials(err))
	})

	t.Run("constructors", func(t *testing.T) {
		require.True(t, identity.IsInvalidCredentials(identity.NewInvalidCredentialsError()))
		require.True(t, identity.IsAlreadyRegistered(identity.NewAlreadyRegisteredError()))
	})

	t.Run("matches auth sentinels", func(t *testing.T) {
		wrapped := fmt.Errorf("[SignIn] %w", identity.NewInvalidCredentialsError())
		require.ErrorIs(t, wrapped, autherrors.ErrInvalidCredentials)
		require.NotErrorIs(t, wrapped, autherrors.ErrAlreadyRegistered)
		require.ErrorIs(t, identity.NewAlreadyRegisteredError(), autherrors.ErrAlreadyRegistered)

		unconfirmed := &identity.Error{Code: identity.CodeEmailNotConfirmed, Message: "Email not confirmed"}
		require.ErrorIs(t, unconfirmed, autherrors.ErrNotConfirmed)
		require.True(t, identity.IsNotConfirmed(unconfirmed))
		require.False(t, identity.IsNotConfirmed(identity.NewInvalidCredentialsError()))
	})

	t.Run("transport errors are never classified", func(t *testing.T) {
		err := errors.New("Invalid login credentials")
		require.False(t, identity.IsInvalidCredentials(err))
		_, ok := identity.AsProviderError(err)
		require.False(t, ok)
		require.False(t, identity.IsInvalidCredentials(autherrors.ErrInvalidCredentials))
	})

	t.Run("error text", func(t *testing.T) {
		require.Equal(t, "Email rate limit exceeded", (&identity.Error{Code: "x", Message: "Email rate limit exceeded"}).Error())
		require.Equal(t, "over_quota", (&identity.Error{Code: "over_quota"}).Error())
		require.Contains(t, (&identity.Error{Status: 502}).Error(), "502")
	})
}

func TestSubscribers(t *testing.T) {
	var subs identity.Subscribers

	var order []string
	unsubA := subs.Add(func(kind sessions.EventKind, s *sessions.Session) {
		order = append(order, "a:"+string(kind)+":"+s.UserID())
		if s != nil {
			s.Identity.ID = "mutated"
		}
	})
	unsubB := subs.Add(func(kind sessions.EventKind, s *sessions.Session) {
		order = append(order, "b:"+string(kind)+":"+s.UserID())
	})
	require.Equal(t, 2, subs.Len())

	session := &sessions.Session{ID: "s1", Identity: sessions.Identity{ID: "user-1"}}
	subs.Emit(sessions.EventSignedIn, session)
	require.Equal(t, []string{"a:SIGNED_IN:user-1", "b:SIGNED_IN:user-1"}, order)
	require.Equal(t, "user-1", session.Identity.ID)

	unsubA()
	unsubA()
	require.Equal(t, 1, subs.Len())

	order = nil
	subs.Emit(sessions.EventSignedOut, nil)
	require.Equal(t, []string{"b:SIGNED_OUT:"}, order)

	unsubB()
	require.Equal(t, 0, subs.Len())
}
