package clientstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/apoiopedagogico/portal/core/session"
)

// RedisStore keeps the role hint of one client under a single redis key.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

var _ session.HintStore = (*RedisStore)(nil)

func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) LoadRoleHint(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "reading role hint")
	}
	return val, nil
}

func (s *RedisStore) SaveRoleHint(ctx context.Context, role session.Role) error {
	return errors.Wrap(s.client.Set(ctx, s.key, string(role), 0).Err(), "writing role hint")
}

func (s *RedisStore) ClearRoleHint(ctx context.Context) error {
	return errors.Wrap(s.client.Del(ctx, s.key).Err(), "clearing role hint")
}
