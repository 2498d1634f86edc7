package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nexusweb/go-identity-server/users"
)

var _ users.Repo = (*Repo)(nil)

// Repo is an in-memory user store. Usernames are matched
// case-insensitively, following the identity store's case rules.
type Repo struct {
	lock        sync.RWMutex
	users       map[string]*users.User
	usernameIDs map[string]string // lowercased username -> user id
}

func New() *Repo {
	return &Repo{
		users:       make(map[string]*users.User),
		usernameIDs: make(map[string]string),
	}
}

func (r *Repo) Upsert(_ context.Context, user *users.User) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	cp := *user
	if prev, ok := r.users[cp.ID]; ok && !strings.EqualFold(prev.Username, cp.Username) {
		delete(r.usernameIDs, strings.ToLower(prev.Username))
	}
	r.users[cp.ID] = &cp
	r.usernameIDs[strings.ToLower(cp.Username)] = cp.ID
	return nil
}

func (r *Repo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	u, ok := r.users[id]
	if !ok {
		return users.ErrNotFound
	}
	delete(r.usernameIDs, strings.ToLower(u.Username))
	delete(r.users, id)
	return nil
}

func (r *Repo) GetByUsername(_ context.Context, username string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.usernameIDs[strings.ToLower(username)]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *r.users[id]
	return &cp, nil
}

func (r *Repo) GetByID(_ context.Context, id string) (*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, users.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *Repo) List(_ context.Context, offset, limit int) ([]*users.User, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	all := make([]*users.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
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

func (r *Repo) SetDisabled(_ context.Context, id string, disabled bool) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	u, ok := r.users[id]
	if !ok {
		return users.ErrNotFound
	}
	u.Disabled = disabled
	return nil
}

func (r *Repo) SetLastLogin(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	u, ok := r.users[id]
	if !ok {
		return users.ErrNotFound
	}
	u.LastLogin = time.Now().UTC()
	return nil
}
