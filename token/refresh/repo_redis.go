package refresh

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	rdb "github.com/redis/go-redis/v9"
)

var _ Repo = (*RedisRepo)(nil)

// RedisRepo shares refresh tokens across nodes. Records are JSON values
// keyed by token hash with a redis-side TTL; a secondary set per subject
// supports logout-everywhere.
type RedisRepo struct {
	client *rdb.Client
	prefix string
}

func NewRedisRepo(client *rdb.Client, prefix string) *RedisRepo {
	if prefix == "" {
		prefix = "rt:"
	}
	return &RedisRepo{client: client, prefix: prefix}
}

func (r *RedisRepo) tokenKey(hash string) string  { return r.prefix + hash }
func (r *RedisRepo) subjectKey(sub string) string { return r.prefix + "sub:" + sub }

func (r *RedisRepo) Upsert(ctx context.Context, t *RefreshToken, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return errors.Wrap(err, "[RedisRepo.Upsert] marshal")
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.tokenKey(t.Hash), data, ttl)
	pipe.SAdd(ctx, r.subjectKey(t.Subject), t.Hash)
	pipe.Expire(ctx, r.subjectKey(t.Subject), ttl)
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "[RedisRepo.Upsert] exec")
}

func (r *RedisRepo) Get(ctx context.Context, hash string) (*RefreshToken, error) {
	data, err := r.client.Get(ctx, r.tokenKey(hash)).Bytes()
	if err == rdb.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Get] get")
	}

	var t RefreshToken
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, errors.Wrap(err, "[RedisRepo.Get] unmarshal")
	}
	return &t, nil
}

func (r *RedisRepo) Delete(ctx context.Context, hash string) error {
	t, err := r.Get(ctx, hash)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.tokenKey(hash))
	pipe.SRem(ctx, r.subjectKey(t.Subject), hash)
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "[RedisRepo.Delete] exec")
}

func (r *RedisRepo) DeleteBySubject(ctx context.Context, subject string) error {
	hashes, err := r.client.SMembers(ctx, r.subjectKey(subject)).Result()
	if err != nil && err != rdb.Nil {
		return errors.Wrap(err, "[RedisRepo.DeleteBySubject] smembers")
	}

	pipe := r.client.TxPipeline()
	for _, hash := range hashes {
		pipe.Del(ctx, r.tokenKey(hash))
	}
	pipe.Del(ctx, r.subjectKey(subject))
	_, err = pipe.Exec(ctx)
	return errors.Wrap(err, "[RedisRepo.DeleteBySubject] exec")
}
