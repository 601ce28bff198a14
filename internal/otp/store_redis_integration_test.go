//go:build integration

package otp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/internal/otp"
	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
	"examreg/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *otp.RedisStore
	ctx   context.Context
	now   time.Time
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = otp.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.now = time.Now()
	s.ctx = context.Background()
}

func (s *RedisStoreSuite) challenge(address, code string, ttl time.Duration) otp.Challenge {
	return otp.Challenge{
		Address:   address,
		Code:      code,
		IssuedAt:  s.now,
		ExpiresAt: s.now.Add(ttl),
	}
}

func (s *RedisStoreSuite) TestConsumeIsOneShot() {
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "123456", 5*time.Minute)))

	s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "123456"))
	s.Require().ErrorIs(s.store.Consume(s.ctx, "a@x.com", "123456"), sentinel.ErrAlreadyUsed)
}

func (s *RedisStoreSuite) TestConsumeFailureModes() {
	s.Run("not found", func() {
		s.Require().ErrorIs(s.store.Consume(s.ctx, "nobody@x.com", "123456"), sentinel.ErrNotFound)
	})

	s.Run("mismatch", func() {
		s.Require().NoError(s.store.Put(s.ctx, s.challenge("b@x.com", "123456", 5*time.Minute)))
		s.Require().ErrorIs(s.store.Consume(s.ctx, "b@x.com", "654321"), sentinel.ErrMismatch)
	})

	s.Run("expired within grace window", func() {
		s.Require().NoError(s.store.Put(s.ctx, s.challenge("c@x.com", "123456", 5*time.Minute)))
		late := requestcontext.WithTime(s.ctx, s.now.Add(6*time.Minute))
		s.Require().ErrorIs(s.store.Consume(late, "c@x.com", "123456"), sentinel.ErrExpired)
	})
}

func (s *RedisStoreSuite) TestReissueSupersedes() {
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "111111", 5*time.Minute)))
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "222222", 5*time.Minute)))

	s.Require().ErrorIs(s.store.Consume(s.ctx, "a@x.com", "111111"), sentinel.ErrMismatch)
	s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "222222"))
}

func (s *RedisStoreSuite) TestReissueClearsConsumedMarker() {
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "111111", 5*time.Minute)))
	s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "111111"))

	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "222222", 5*time.Minute)))
	s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "222222"))
}
