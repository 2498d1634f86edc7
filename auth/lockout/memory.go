package lockout

import (
	"context"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a process-local Store. Suitable for single-node
// deployments and tests; multi-node deployments should share counters
// through the redis store instead.
type MemoryStore struct {
	lock     sync.Mutex
	counters map[string]*memoryCounter
	nowFunc  func() time.Time
}

type memoryCounter struct {
	count     int64
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counters: make(map[string]*memoryCounter),
		nowFunc:  time.Now,
	}
}

func (m *MemoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.nowFunc()
	c, ok := m.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = &memoryCounter{expiresAt: now.Add(window)}
		m.counters[key] = c
	}
	c.count++
	return c.count, nil
}

func (m *MemoryStore) Count(_ context.Context, key string) (int64, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	c, ok := m.counters[key]
	if !ok {
		return 0, nil
	}
	if m.nowFunc().After(c.expiresAt) {
		delete(m.counters, key)
		return 0, nil
	}
	return c.count, nil
}

func (m *MemoryStore) Reset(_ context.Context, key string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	delete(m.counters, key)
	return nil
}
