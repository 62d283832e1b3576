package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"adminconsole/pkg/constraints"

	"github.com/redis/go-redis/v9"
)

const RedisKeyPrefix = "adminconsole:session:"

// RedisStore keeps the token under one key whose TTL matches the long-lived
// cookie max age, so a stale token disappears on its own.
type RedisStore struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

func NewRedisStore(rdb *redis.Client, name string, ttl time.Duration) *RedisStore {
	if name == "" {
		name = constraints.TokenCookieName
	}
	if ttl <= 0 {
		ttl = constraints.TokenMaxAge
	}
	return &RedisStore{
		redis: rdb,
		key:   RedisKeyPrefix + name,
		ttl:   ttl,
	}
}

func (s *RedisStore) Load(ctx context.Context) (string, error) {
	token, err := s.redis.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load session token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, token string) error {
	if err := s.redis.Set(ctx, s.key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session token: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete session token: %w", err)
	}
	return nil
}
