package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jrsteele09/go-auth-portal/profiles"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS profiles (
	user_id    TEXT PRIMARY KEY,
	full_name  TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL
)`

var _ profiles.Repo = (*Store)(nil)

// Store provides SQLite-backed persistence for profiles.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating when needed) a profile store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}

	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create profiles table: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetProfile loads the profile for userID; a missing row is (nil, nil).
func (s *Store) GetProfile(ctx context.Context, userID string) (*profiles.Profile, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT user_id, full_name, created_at FROM profiles WHERE user_id = ?`,
		userID,
	)

	var profile profiles.Profile
	var createdAt int64
	if err := row.Scan(&profile.UserID, &profile.FullName, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	profile.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &profile, nil
}

// UpsertProfile inserts or replaces the profile keyed by its user ID.
func (s *Store) UpsertProfile(ctx context.Context, profile profiles.Profile) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	profile.UserID = strings.TrimSpace(profile.UserID)
	if profile.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET full_name = excluded.full_name`,
		profile.UserID,
		strings.TrimSpace(profile.FullName),
		profile.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
