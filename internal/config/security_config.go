package config

import "time"

type SecurityConfig interface {
	GetLockoutMaxAttempts() int
	GetLockoutWindow() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetLockoutMaxAttempts is the failed-attempt threshold after which an
// account is locked.
func (Security) GetLockoutMaxAttempts() int {
	return 5
}

// GetLockoutWindow is the cooldown during which a locked account rejects
// even correct credentials.
func (Security) GetLockoutWindow() time.Duration {
	return 5 * time.Minute
}
