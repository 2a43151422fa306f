package sessions_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-auth-portal/internal/errors"
	"github.com/jrsteele09/go-auth-portal/sessions"
	"github.com/stretchr/testify/require"
)

func TestSessionValid(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil session", func(t *testing.T) {
		var s *sessions.Session
		require.False(t, s.Valid(now))
		require.Empty(t, s.UserID())
	})

	t.Run("no expiry", func(t *testing.T) {
		s := &sessions.Session{ID: "s1"}
		require.True(t, s.Valid(now))
	})

	t.Run("future expiry", func(t *testing.T) {
		s := &sessions.Session{ID: "s1", ExpiresAt: now.Add(time.Minute)}
		require.True(t, s.Valid(now))
	})

	t.Run("expired", func(t *testing.T) {
		s := &sessions.Session{ID: "s1", ExpiresAt: now}
		require.False(t, s.Valid(now))
	})
}

func TestInMemoryRepo(t *testing.T) {
	repo := sessions.NewInMemoryRepo()

	_, err := repo.Current()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	t.Run("requires ids", func(t *testing.T) {
		require.Error(t, repo.Put(sessions.Session{}))
		require.Error(t, repo.Put(sessions.Session{ID: "s1"}))
	})

	session := sessions.Session{ID: "s1", Identity: sessions.Identity{ID: "user-1", Email: "a@b.co"}}
	require.NoError(t, repo.Put(session))

	got, err := repo.Current()
	require.NoError(t, err)
	require.Equal(t, session, got)

	t.Run("replace", func(t *testing.T) {
		next := sessions.Session{ID: "s2", Identity: sessions.Identity{ID: "user-2"}}
		require.NoError(t, repo.Put(next))
		got, err := repo.Current()
		require.NoError(t, err)
		require.Equal(t, "s2", got.ID)
	})

	require.NoError(t, repo.Clear())
	require.NoError(t, repo.Clear())
	_, err = repo.Current()
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}
