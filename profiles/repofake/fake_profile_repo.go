package fakeprofilerepo

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-auth-portal/profiles"
)

var _ profiles.Repo = (*FakeProfileRepo)(nil)

type FakeProfileRepo struct {
	profiles map[string]profiles.Profile
	lock     sync.RWMutex

	failWith error // Returned by GetProfile when set
	lookups  map[string]int
}

func NewFakeProfileRepo() *FakeProfileRepo {
	return &FakeProfileRepo{
		profiles: make(map[string]profiles.Profile),
		lookups:  make(map[string]int),
	}
}

func (pr *FakeProfileRepo) UpsertProfile(_ context.Context, profile profiles.Profile) error {
	if profile.UserID == "" {
		return errors.New("user id is required")
	}

	pr.lock.Lock()
	defer pr.lock.Unlock()

	pr.profiles[profile.UserID] = profile
	return nil
}

func (pr *FakeProfileRepo) GetProfile(ctx context.Context, userID string) (*profiles.Profile, error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	pr.lookups[userID]++
	if pr.failWith != nil {
		return nil, pr.failWith
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profile, ok := pr.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

// FailWith makes every following GetProfile return err. Pass nil to stop failing.
func (pr *FakeProfileRepo) FailWith(err error) {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	pr.failWith = err
}

// Lookups returns how many times GetProfile was called for userID
func (pr *FakeProfileRepo) Lookups(userID string) int {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	return pr.lookups[userID]
}

// TotalLookups returns the number of GetProfile calls for all users
func (pr *FakeProfileRepo) TotalLookups() int {
	pr.lock.RLock()
	defer pr.lock.RUnlock()

	total := 0
	for _, n := range pr.lookups {
		total += n
	}
	return total
}
