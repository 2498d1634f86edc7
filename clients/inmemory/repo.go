package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/nexusweb/go-identity-server/clients"
)

var _ clients.Repo = (*Repo)(nil)

// Repo is an in-memory client registry.
type Repo struct {
	lock    sync.RWMutex
	clients map[string]*clients.Client
}

func New() *Repo {
	return &Repo{clients: make(map[string]*clients.Client)}
}

func (r *Repo) Upsert(_ context.Context, client *clients.Client) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	cp := *client
	r.clients[cp.ID] = &cp
	return nil
}

func (r *Repo) Delete(_ context.Context, clientID string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.clients[clientID]; !ok {
		return clients.ErrNotFound
	}
	delete(r.clients, clientID)
	return nil
}

func (r *Repo) Get(_ context.Context, clientID string) (*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	c, ok := r.clients[clientID]
	if !ok {
		return nil, clients.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *Repo) List(_ context.Context, offset, limit int) ([]*clients.Client, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	all := make([]*clients.Client, 0, len(r.clients))
	for _, c := range r.clients {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}
