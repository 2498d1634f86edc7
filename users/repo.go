package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups for unknown users.
var ErrNotFound = errors.New("user not found")

// Repo is the user-identity store boundary. All calls may block on I/O and
// honour context cancellation.
type Repo interface {
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context, offset, limit int) ([]*User, error)
	SetDisabled(ctx context.Context, id string, disabled bool) error
	SetLastLogin(ctx context.Context, id string) error
}
