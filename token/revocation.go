package token

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// RevokedTokenCache remembers revoked access-token IDs (jti) until the
// token would have expired anyway, at which point the entry lapses.
type RevokedTokenCache struct {
	cache   *gocache.Cache
	nowFunc func() time.Time
}

// NewRevokedTokenCache creates a cache that sweeps lapsed entries every
// cleanupInterval.
func NewRevokedTokenCache(cleanupInterval time.Duration) *RevokedTokenCache {
	return &RevokedTokenCache{
		cache:   gocache.New(gocache.NoExpiration, cleanupInterval),
		nowFunc: time.Now,
	}
}

// Add marks a token ID revoked until its natural expiry.
func (rc *RevokedTokenCache) Add(jti string, expiresAt time.Time) {
	ttl := expiresAt.Sub(rc.nowFunc())
	if ttl <= 0 {
		return // already expired, nothing to remember
	}
	rc.cache.Set(jti, struct{}{}, ttl)
}

// IsRevoked reports whether the token ID has been revoked.
func (rc *RevokedTokenCache) IsRevoked(jti string) bool {
	_, revoked := rc.cache.Get(jti)
	return revoked
}
