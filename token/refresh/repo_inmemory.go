package refresh

import (
	"context"
	"sync"
	"time"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo is a process-local refresh-token store.
type InMemoryRepo struct {
	lock    sync.RWMutex
	tokens  map[string]*storedToken
	nowFunc func() time.Time
}

type storedToken struct {
	record    RefreshToken
	expiresAt time.Time
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		tokens:  make(map[string]*storedToken),
		nowFunc: time.Now,
	}
}

func (r *InMemoryRepo) Upsert(_ context.Context, t *RefreshToken, ttl time.Duration) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.tokens[t.Hash] = &storedToken{record: *t, expiresAt: r.nowFunc().Add(ttl)}
	return nil
}

func (r *InMemoryRepo) Get(_ context.Context, hash string) (*RefreshToken, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	st, ok := r.tokens[hash]
	if !ok || r.nowFunc().After(st.expiresAt) {
		return nil, ErrNotFound
	}
	cp := st.record
	return &cp, nil
}

func (r *InMemoryRepo) Delete(_ context.Context, hash string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.tokens[hash]; !ok {
		return ErrNotFound
	}
	delete(r.tokens, hash)
	return nil
}

func (r *InMemoryRepo) DeleteBySubject(_ context.Context, subject string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	for hash, st := range r.tokens {
		if st.record.Subject == subject {
			delete(r.tokens, hash)
		}
	}
	return nil
}
