package domain

import (
	"strings"
	"time"
)

// User owns a profile. Name doubles as the subdomain label.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Image        string    `json:"image,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasPassword is false for accounts created through Google sign-in
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}

const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
)

// reservedNames collide with application routes on the root domain
var reservedNames = map[string]bool{
	"admin":       true,
	"api":         true,
	"auth":        true,
	"static":      true,
	"healthz":     true,
	"login":       true,
	"signup":      true,
	"logout":      true,
	"dashboard":   true,
	"favicon.ico": true,
}

// NormalizeUsername folds a username into its routing key form. Names are
// subdomain labels, so they compare case-insensitively.
func NormalizeUsername(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ValidateUsername checks the routing key rules: lowercase letters, digits,
// dash and underscore only, 3 to 32 characters, not reserved. Callers
// normalize first.
func ValidateUsername(name string) error {
	if len(name) < MinUsernameLength {
		return NewValidationError("username", "Username must be at least 3 characters")
	}
	if len(name) > MaxUsernameLength {
		return NewValidationError("username", "Username must be at most 32 characters")
	}
	for _, c := range name {
		if !isUsernameRune(c) {
			return NewValidationError("username", "Username can only contain lowercase letters, numbers, dashes, and underscores")
		}
	}
	if reservedNames[strings.ToLower(name)] {
		return NewValidationError("username", "Username is reserved")
	}
	return nil
}

func isUsernameRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-' || c == '_'
}
