package otp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *InMemoryStoreSuite) challenge(address, code string) Challenge {
	return Challenge{
		Address:   address,
		Code:      code,
		IssuedAt:  s.now,
		ExpiresAt: s.now.Add(5 * time.Minute),
	}
}

func (s *InMemoryStoreSuite) TestConsume() {
	s.Run("valid code consumed once", func() {
		s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "123456")))
		s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "123456"))
	})

	s.Run("second consume reports already used", func() {
		s.Require().NoError(s.store.Put(s.ctx, s.challenge("b@x.com", "123456")))
		s.Require().NoError(s.store.Consume(s.ctx, "b@x.com", "123456"))
		s.Require().ErrorIs(s.store.Consume(s.ctx, "b@x.com", "123456"), sentinel.ErrAlreadyUsed)
	})

	s.Run("unknown address reports not found", func() {
		s.Require().ErrorIs(s.store.Consume(s.ctx, "nobody@x.com", "123456"), sentinel.ErrNotFound)
	})

	s.Run("wrong code reports mismatch", func() {
		s.Require().NoError(s.store.Put(s.ctx, s.challenge("c@x.com", "123456")))
		s.Require().ErrorIs(s.store.Consume(s.ctx, "c@x.com", "654321"), sentinel.ErrMismatch)
	})

	s.Run("expired challenge reports expired", func() {
		s.Require().NoError(s.store.Put(s.ctx, s.challenge("d@x.com", "123456")))
		late := requestcontext.WithTime(context.Background(), s.now.Add(6*time.Minute))
		s.Require().ErrorIs(s.store.Consume(late, "d@x.com", "123456"), sentinel.ErrExpired)
	})
}

func (s *InMemoryStoreSuite) TestNewChallengeSupersedesOld() {
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "111111")))
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "222222")))

	s.Require().ErrorIs(s.store.Consume(s.ctx, "a@x.com", "111111"), sentinel.ErrMismatch)
	s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "222222"))
}

func (s *InMemoryStoreSuite) TestNewChallengeAfterConsumeIsVerifiable() {
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "111111")))
	s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "111111"))

	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "222222")))
	s.Require().NoError(s.store.Consume(s.ctx, "a@x.com", "222222"))
}

func (s *InMemoryStoreSuite) TestConcurrentConsumeSingleWinner() {
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("race@x.com", "123456")))

	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0
	for n := 0; n < 20; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.store.Consume(s.ctx, "race@x.com", "123456"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, successes)
}

func (s *InMemoryStoreSuite) TestCleanup() {
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("a@x.com", "111111")))
	s.Require().NoError(s.store.Put(s.ctx, s.challenge("b@x.com", "222222")))

	late := requestcontext.WithTime(context.Background(), s.now.Add(10*time.Minute))
	s.Equal(2, s.store.Cleanup(late))
	s.Require().ErrorIs(s.store.Consume(late, "a@x.com", "111111"), sentinel.ErrNotFound)
}
