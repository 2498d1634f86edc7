package refresh

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

const tokenBytes = 32 // 256 bits

// Manager issues, redeems and revokes opaque refresh tokens. Tokens rotate:
// redeeming one deletes it, and the caller issues a replacement as part of
// the new token response.
type Manager struct {
	repo    Repo
	ttl     time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc overrides the clock, primarily for tests.
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) { m.nowFunc = now }
}

func NewManager(repo Repo, ttl time.Duration, options ...ManagerOption) (*Manager, error) {
	if repo == nil {
		return nil, errors.New("[refresh.NewManager] repo is required")
	}
	if ttl <= 0 {
		return nil, errors.New("[refresh.NewManager] ttl must be positive")
	}
	m := &Manager{repo: repo, ttl: ttl, nowFunc: time.Now}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// HashToken derives the storage key for a raw refresh token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// Issue mints a fresh opaque token for the subject. Only the token's hash
// is persisted; the raw value exists in the response and nowhere else.
func (m *Manager) Issue(ctx context.Context, subject, clientID string, scopes []string) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "[Manager.Issue] rand.Read")
	}
	raw := hex.EncodeToString(b)

	record := &RefreshToken{
		Hash:     HashToken(raw),
		Subject:  subject,
		ClientID: clientID,
		Scopes:   append([]string(nil), scopes...),
		IssuedAt: m.nowFunc(),
	}
	if err := m.repo.Upsert(ctx, record, m.ttl); err != nil {
		return "", errors.Wrap(err, "[Manager.Issue] Upsert")
	}
	return raw, nil
}

// Redeem consumes a raw refresh token, returning its stored record. The
// token is deleted before the record is returned, so a replayed token fails
// even if the caller's request is later abandoned.
func (m *Manager) Redeem(ctx context.Context, raw string) (*RefreshToken, error) {
	hash := HashToken(raw)
	record, err := m.repo.Get(ctx, hash)
	if err != nil {
		return nil, err
	}
	if m.nowFunc().Sub(record.IssuedAt) > m.ttl {
		_ = m.repo.Delete(ctx, hash)
		return nil, ErrNotFound
	}
	if err := m.repo.Delete(ctx, hash); err != nil {
		return nil, errors.Wrap(err, "[Manager.Redeem] Delete")
	}
	return record, nil
}

// Revoke invalidates a raw refresh token. Unknown tokens are a no-op:
// revocation is idempotent.
func (m *Manager) Revoke(ctx context.Context, raw string) error {
	err := m.repo.Delete(ctx, HashToken(raw))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return errors.Wrap(err, "[Manager.Revoke] Delete")
	}
	return nil
}

// RevokeAllForSubject drops every refresh token the subject holds. Used by
// logout.
func (m *Manager) RevokeAllForSubject(ctx context.Context, subject string) error {
	return errors.Wrap(m.repo.DeleteBySubject(ctx, subject), "[Manager.RevokeAllForSubject] DeleteBySubject")
}
