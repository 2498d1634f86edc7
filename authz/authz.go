package authz

import (
	"context"
	"errors"
	"time"
)

// Status of a persisted authorization.
type Status string

const (
	// StatusPending is a device authorization awaiting user approval.
	StatusPending Status = "pending"
	// StatusValid is an authorization whose codes may be exchanged for tokens.
	StatusValid Status = "valid"
	// StatusRevoked terminally invalidates every code derived from the authorization.
	StatusRevoked Status = "revoked"
)

// Authorization records a grant made by (or pending for) a subject to a
// client application. Codes and refresh tokens reference it; the principal
// minted during exchange is always re-derived from current user state, not
// from data stored here.
type Authorization struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject,omitempty"` // empty while a device authorization is pending
	ClientID  string    `json:"client_id"`
	Scopes    []string  `json:"scopes,omitempty"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ErrNotFound is returned for unknown or expired authorizations and codes.
var ErrNotFound = errors.New("authorization not found")

// Store is the authorization persistence boundary.
type Store interface {
	Create(ctx context.Context, a *Authorization) error
	Get(ctx context.Context, id string) (*Authorization, error)
	Update(ctx context.Context, a *Authorization) error
}
