package assertion

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"examreg/pkg/platform/sentinel"
)

const usedKeyPrefix = "assert:jti:"

// RedisUsedStore tracks consumed token IDs in Redis so replays are rejected
// across replicas. Keys expire with the assertion so the set stays bounded.
type RedisUsedStore struct {
	client *redis.Client
}

func NewRedisUsedStore(client *redis.Client) *RedisUsedStore {
	return &RedisUsedStore{client: client}
}

func (s *RedisUsedStore) MarkUsed(ctx context.Context, jti string, ttl time.Duration) error {
	ok, err := s.client.SetNX(ctx, usedKeyPrefix+jti, "1", ttl).Result()
	if err != nil {
		return fmt.Errorf("mark assertion used: %w", err)
	}
	if !ok {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}
