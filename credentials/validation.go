package credentials

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf16"
)

// MinPasswordLength is the shortest password accepted locally, in UTF-16 code units
const MinPasswordLength = 6

// Form field names carried by ValidationError.Field
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldFullName = "full_name"
)

// emailPattern treats Unicode spaces, line separators and BOM as whitespace
var emailPattern = regexp.MustCompile(`^[^\s\p{Zs}\x{2028}\x{2029}\x{feff}@]+@[^\s\p{Zs}\x{2028}\x{2029}\x{feff}@]+\.[^\s\p{Zs}\x{2028}\x{2029}\x{feff}@]+$`)

// Fields is the form draft as the user typed it.
type Fields struct {
	Email    string
	Password string
	FullName string
}

// ValidationError is a local rule failure. It never reaches the provider.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate applies the form rules in order and returns the first that fails, or nil.
// The email pattern is matched against the email exactly as typed.
func Validate(fields Fields, mode Mode) error {
	switch {
	case strings.TrimSpace(fields.Email) == "":
		return &ValidationError{Field: FieldEmail, Message: MsgEmailRequired}
	case !emailPattern.MatchString(fields.Email):
		return &ValidationError{Field: FieldEmail, Message: MsgEmailInvalid}
	case strings.TrimSpace(fields.Password) == "":
		return &ValidationError{Field: FieldPassword, Message: MsgPasswordRequired}
	case passwordLength(fields.Password) < MinPasswordLength:
		return &ValidationError{Field: FieldPassword, Message: MsgPasswordTooShort}
	case mode == ModeSignUp && strings.TrimSpace(fields.FullName) == "":
		return &ValidationError{Field: FieldFullName, Message: MsgFullNameRequired}
	}
	return nil
}

// passwordLength counts UTF-16 code units, so a character outside the BMP counts twice
func passwordLength(password string) int {
	n := 0
	for _, r := range password {
		n += utf16.RuneLen(r)
	}
	return n
}
