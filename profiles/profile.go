package profiles

import (
	"context"
	"time"
)

// DefaultDisplayName is shown while no profile name is known.
const DefaultDisplayName = "User"

// Profile is supplementary display data keyed 1:1 by identity ID.
type Profile struct {
	UserID    string    `json:"user_id"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Reader is the read-only keyed lookup the portal uses.
type Reader interface {
	// GetProfile returns (nil, nil) when no profile exists for the user
	GetProfile(ctx context.Context, userID string) (*Profile, error)
}

// Writer creates or replaces profiles. Profiles are written out-of-band at account creation.
type Writer interface {
	UpsertProfile(ctx context.Context, profile Profile) error
}

type Repo interface {
	Reader
	Writer
}
