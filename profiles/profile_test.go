package profiles_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-auth-portal/profiles"
	fakeprofilerepo "github.com/jrsteele09/go-auth-portal/profiles/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeProfileRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeprofilerepo.NewFakeProfileRepo()

	p, err := repo.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	require.Nil(t, p)

	require.NoError(t, repo.UpsertProfile(ctx, profiles.Profile{UserID: "user-1", FullName: "Ana"}))
	p, err = repo.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "Ana", p.FullName)

	boom := errors.New("boom")
	repo.FailWith(boom)
	_, err = repo.GetProfile(ctx, "user-1")
	require.ErrorIs(t, err, boom)

	require.Equal(t, 3, repo.Lookups("user-1"))
	require.Equal(t, 3, repo.TotalLookups())
}
