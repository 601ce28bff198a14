package otp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

const (
	challengeKeyPrefix = "otp:challenge:"
	consumedKeyPrefix  = "otp:consumed:"
)

// Challenge keys live twice the code's validity so a late verification can be
// told "expired" instead of "not found"; after the grace period Redis TTL
// reclaims them.
const expiryGraceFactor = 2

// consumeScript does the whole lookup-compare-consume in one atomic step.
// KEYS[1] challenge key, KEYS[2] consumed marker key.
// ARGV[1] presented code, ARGV[2] now (unix ms), ARGV[3] marker TTL (ms).
var consumeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
  if redis.call('EXISTS', KEYS[2]) == 1 then
    return 'consumed'
  end
  return 'notfound'
end
local sep = string.find(v, '|')
local expires = tonumber(string.sub(v, 1, sep - 1))
local code = string.sub(v, sep + 1)
if tonumber(ARGV[2]) > expires then
  return 'expired'
end
if code ~= ARGV[1] then
  return 'mismatch'
end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], '1', 'PX', ARGV[3])
return 'ok'
`)

// RedisStore holds challenges with TTL-based expiry, shared across replicas.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Put(ctx context.Context, challenge Challenge) error {
	value := strconv.FormatInt(challenge.ExpiresAt.UnixMilli(), 10) + "|" + challenge.Code
	ttl := challenge.ExpiresAt.Sub(challenge.IssuedAt) * expiryGraceFactor

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, challengeKeyPrefix+challenge.Address, value, ttl)
	pipe.Del(ctx, consumedKeyPrefix+challenge.Address)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store otp challenge: %w", err)
	}
	return nil
}

func (s *RedisStore) Consume(ctx context.Context, address, code string) error {
	now := requestcontext.Now(ctx)
	markerTTL := 10 * time.Minute

	result, err := consumeScript.Run(ctx, s.client,
		[]string{challengeKeyPrefix + address, consumedKeyPrefix + address},
		code,
		strconv.FormatInt(now.UnixMilli(), 10),
		strconv.FormatInt(markerTTL.Milliseconds(), 10),
	).Text()
	if err != nil {
		return fmt.Errorf("consume otp challenge: %w", err)
	}

	switch result {
	case "ok":
		return nil
	case "notfound":
		return sentinel.ErrNotFound
	case "consumed":
		return sentinel.ErrAlreadyUsed
	case "expired":
		return sentinel.ErrExpired
	case "mismatch":
		return sentinel.ErrMismatch
	default:
		return fmt.Errorf("consume otp challenge: unexpected result %q", result)
	}
}
