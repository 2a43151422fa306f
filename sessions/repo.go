package sessions

// Repo stores the session a provider client currently holds.
// There is at most one current session per repo.
type Repo interface {
	// Put replaces the current session
	Put(session Session) error

	// Current returns the held session or errors.ErrSessionNotFound
	Current() (Session, error)

	// Clear forgets the held session; clearing an empty repo is not an error
	Clear() error
}
