package users

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an end-user account held by the identity store. Lockout counters
// are deliberately not part of the row: they live in an atomic counter
// store so concurrent failed-login attempts against the same account are
// counted exactly once each.
type User struct {
	ID                  string    `json:"id,omitempty"`       // Unique identifier for the user
	Username            string    `json:"username,omitempty"` // Unique username, the password-grant lookup key
	Email               string    `json:"email,omitempty"`
	EmailVerified       bool      `json:"email_verified,omitempty"`
	PhoneNumber         string    `json:"phone_number,omitempty"`
	PhoneNumberVerified bool      `json:"phone_number_verified,omitempty"`
	PasswordHash        string    `json:"-"`                // Hashed password - never serialize
	Roles               []string  `json:"roles,omitempty"`  // Ordered role names
	Disabled            bool      `json:"disabled,omitempty"`
	DateJoined          time.Time `json:"date_joined,omitempty"`
	LastLogin           time.Time `json:"last_login,omitempty"`
}

// CanSignIn reports whether the account is still allowed to authenticate.
// Lockout state is checked separately against the lockout store.
func (u *User) CanSignIn() bool {
	return !u.Disabled
}

// HashPassword hashes a plaintext password with bcrypt at the default cost.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash verifies a plaintext password against a bcrypt hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
