package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexusweb/go-identity-server/authz"
)

var _ authz.Store = (*Store)(nil)

// Store is an in-memory authorization store.
type Store struct {
	lock    sync.RWMutex
	records map[string]*authz.Authorization
}

func New() *Store {
	return &Store{records: make(map[string]*authz.Authorization)}
}

func (s *Store) Create(_ context.Context, a *authz.Authorization) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	cp := *a
	s.records[cp.ID] = &cp
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*authz.Authorization, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	a, ok := s.records[id]
	if !ok {
		return nil, authz.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *Store) Update(_ context.Context, a *authz.Authorization) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.records[a.ID]; !ok {
		return authz.ErrNotFound
	}
	cp := *a
	s.records[cp.ID] = &cp
	return nil
}
