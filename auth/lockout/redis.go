package lockout

import (
	"context"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

var _ Store = (*RedisStore)(nil)

// RedisStore shares failure counters across nodes using INCR + EXPIRE.
// The increment is atomic on the redis side, so concurrent failed logins
// against the same account never lose counts.
type RedisStore struct {
	client *rdb.Client
	prefix string
}

func NewRedisStore(client *rdb.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "lockout:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := r.prefix + key

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	// Start the cooldown window on the first failure only; later failures
	// inside the window must not push the expiry out.
	if incr.Val() == 1 {
		_ = r.client.Expire(ctx, redisKey, window).Err()
	}
	return incr.Val(), nil
}

func (r *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	count, err := r.client.Get(ctx, r.prefix+key).Int64()
	if err == rdb.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *RedisStore) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
