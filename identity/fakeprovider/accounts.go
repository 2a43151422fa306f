package fakeprovider

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// account is a registered user held by the fake provider
type account struct {
	ID           string    // Unique identifier for the account
	Email        string    // Normalised (lower case) email
	PasswordHash string    // bcrypt hash, never the password
	FullName     string    // Name given at sign-up
	Confirmed    bool      // Has the email been confirmed
	CreatedAt    time.Time // When the account was registered
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
