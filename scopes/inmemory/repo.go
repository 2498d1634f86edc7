package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/nexusweb/go-identity-server/scopes"
)

var _ scopes.Repo = (*Repo)(nil)

// Repo is an in-memory scope registry.
type Repo struct {
	lock   sync.RWMutex
	scopes map[string]*scopes.Scope
}

func New() *Repo {
	return &Repo{scopes: make(map[string]*scopes.Scope)}
}

func (r *Repo) Upsert(_ context.Context, scope *scopes.Scope) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	cp := *scope
	r.scopes[cp.Name] = &cp
	return nil
}

func (r *Repo) Get(_ context.Context, name string) (*scopes.Scope, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	s, ok := r.scopes[name]
	if !ok {
		return nil, scopes.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *Repo) List(_ context.Context) ([]*scopes.Scope, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	all := make([]*scopes.Scope, 0, len(r.scopes))
	for _, s := range r.scopes {
		cp := *s
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (r *Repo) ListResources(_ context.Context, names []string) ([]string, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	seen := make(map[string]struct{})
	var resources []string
	for _, name := range names {
		s, ok := r.scopes[name]
		if !ok {
			continue
		}
		for _, res := range s.Resources {
			if _, dup := seen[res]; dup {
				continue
			}
			seen[res] = struct{}{}
			resources = append(resources, res)
		}
	}
	return resources, nil
}
