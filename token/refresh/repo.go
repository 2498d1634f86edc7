package refresh

import (
	"context"
	"errors"
	"time"
)

// RefreshToken is the stored form of an opaque refresh token. Only the
// SHA-256 hash of the raw token is persisted; a leaked store never yields
// usable tokens.
type RefreshToken struct {
	Hash     string    `json:"hash"`
	Subject  string    `json:"subject"`
	ClientID string    `json:"client_id"`
	Scopes   []string  `json:"scopes,omitempty"`
	IssuedAt time.Time `json:"issued_at"`
}

// ErrNotFound is returned when a presented refresh token is unknown,
// already rotated, or expired.
var ErrNotFound = errors.New("refresh token not found")

// Repo is the refresh-token persistence boundary.
type Repo interface {
	Upsert(ctx context.Context, t *RefreshToken, ttl time.Duration) error
	Get(ctx context.Context, hash string) (*RefreshToken, error)
	Delete(ctx context.Context, hash string) error
	DeleteBySubject(ctx context.Context, subject string) error
}
