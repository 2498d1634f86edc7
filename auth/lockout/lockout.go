// Package lockout tracks failed authentication attempts per account and
// denies sign-in once a threshold is exceeded, for a cooldown window.
//
// Counters live outside the user row so increments are a single atomic
// operation against the backing store: concurrent failed logins against the
// same account are each counted exactly once, and a cancelled request
// either commits its increment or leaves no trace.
package lockout

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// Store is the atomic failure-counter boundary.
type Store interface {
	// Incr atomically increments the failure count for key and returns the
	// new count. The counter expires window after its first increment.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)

	// Count returns the current failure count for key (0 if none).
	Count(ctx context.Context, key string) (int64, error)

	// Reset clears the counter for key.
	Reset(ctx context.Context, key string) error
}

// Policy applies a max-attempts threshold over a Store.
type Policy struct {
	store       Store
	maxAttempts int64
	window      time.Duration
}

// NewPolicy creates a lockout policy. maxAttempts failures within window
// lock the account until the window expires.
func NewPolicy(store Store, maxAttempts int, window time.Duration) (*Policy, error) {
	if store == nil {
		return nil, errors.New("[lockout.NewPolicy] store is required")
	}
	if maxAttempts <= 0 {
		return nil, errors.New("[lockout.NewPolicy] maxAttempts must be positive")
	}
	if window <= 0 {
		return nil, errors.New("[lockout.NewPolicy] window must be positive")
	}
	return &Policy{store: store, maxAttempts: int64(maxAttempts), window: window}, nil
}

// Locked reports whether the account has exceeded the failure threshold
// within the current window.
func (p *Policy) Locked(ctx context.Context, userID string) (bool, error) {
	count, err := p.store.Count(ctx, userID)
	if err != nil {
		return false, errors.Wrap(err, "[Policy.Locked] Count")
	}
	return count >= p.maxAttempts, nil
}

// RecordFailure counts one failed attempt and reports whether the account
// is now locked.
func (p *Policy) RecordFailure(ctx context.Context, userID string) (bool, error) {
	count, err := p.store.Incr(ctx, userID, p.window)
	if err != nil {
		return false, errors.Wrap(err, "[Policy.RecordFailure] Incr")
	}
	return count >= p.maxAttempts, nil
}

// Reset clears the account's failure history after a successful sign-in.
func (p *Policy) Reset(ctx context.Context, userID string) error {
	return errors.Wrap(p.store.Reset(ctx, userID), "[Policy.Reset] Reset")
}
