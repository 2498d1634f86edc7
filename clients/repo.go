package clients

import (
	"context"
	"errors"
)

// ErrNotFound is returned by lookups for unregistered client IDs. Callers
// treat it as a deployment defect rather than a credential failure.
var ErrNotFound = errors.New("client not found")

// Repo is the client-application registry boundary.
type Repo interface {
	Upsert(ctx context.Context, client *Client) error
	Delete(ctx context.Context, clientID string) error
	Get(ctx context.Context, clientID string) (*Client, error)
	List(ctx context.Context, offset, limit int) ([]*Client, error)
}
