package scopes

import (
	"context"
	"errors"
)

// Scope is a named permission bucket registered with the server, together
// with the API resource identifiers it grants access to.
type Scope struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name,omitempty"`
	Resources   []string `json:"resources,omitempty"`
}

// ErrNotFound is returned by lookups for unregistered scopes.
var ErrNotFound = errors.New("scope not found")

// Repo is the scope->resource registry boundary.
type Repo interface {
	Upsert(ctx context.Context, scope *Scope) error
	Get(ctx context.Context, name string) (*Scope, error)
	List(ctx context.Context) ([]*Scope, error)

	// ListResources resolves the union of resources registered against the
	// given scopes. Unregistered scopes contribute nothing: a request may
	// legitimately carry scopes (openid, profile) that map to no resource.
	ListResources(ctx context.Context, scopes []string) ([]string, error)
}
