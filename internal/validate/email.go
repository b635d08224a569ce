package validate

import (
	"errors"
	"regexp"
	"strings"
)

// Email validation errors
var (
	ErrInvalidEmail = errors.New("invalid email format")
)

// emailPattern accepts the basic local@domain.tld shape. Anything stricter
// is the server's job; the client only gates obviously malformed input.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email validates an email address format.
// Returns the trimmed email and an error if invalid.
func Email(email string) (string, error) {
	email = strings.TrimSpace(email)

	// Check if empty
	if email == "" {
		return "", ErrEmpty
	}

	// Check length constraints (RFC 5321)
	if len(email) > 254 {
		return "", ErrStringTooLong
	}

	// Validate format
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}

	return email, nil
}
