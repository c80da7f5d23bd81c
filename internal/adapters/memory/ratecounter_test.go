package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type RateCounterSuite struct {
	suite.Suite
	counter *RateCounter
	clock   time.Time
	ctx     context.Context
}

func TestRateCounterSuite(t *testing.T) {
	suite.Run(t, new(RateCounterSuite))
}

func (s *RateCounterSuite) SetupTest() {
	s.clock = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.counter = NewRateCounter()
	s.counter.now = func() time.Time { return s.clock }
	s.ctx = context.Background()
}

func (s *RateCounterSuite) TestIncrement() {
	s.Run("counts per key", func() {
		for i := int64(1); i <= 3; i++ {
			n, err := s.counter.Increment(s.ctx, "k1", time.Minute)
			s.Require().NoError(err)
			s.Equal(i, n)
		}
		n, err := s.counter.Increment(s.ctx, "k2", time.Minute)
		s.Require().NoError(err)
		s.Equal(int64(1), n)
	})

	s.Run("resets after window", func() {
		s.clock = s.clock.Add(time.Minute)
		n, err := s.counter.Increment(s.ctx, "k1", time.Minute)
		s.Require().NoError(err)
		s.Equal(int64(1), n)
	})
}

func (s *RateCounterSuite) TestExpiredKeysAreSwept() {
	_, _ = s.counter.Increment(s.ctx, "old", time.Second)
	s.clock = s.clock.Add(2 * time.Second)
	_, _ = s.counter.Increment(s.ctx, "new", time.Second)

	s.counter.mu.Lock()
	defer s.counter.mu.Unlock()
	s.NotContains(s.counter.windows, "old")
}

func (s *RateCounterSuite) TestConcurrentIncrements() {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.counter.Increment(s.ctx, "shared", time.Minute)
		}()
	}
	wg.Wait()

	n, err := s.counter.Increment(s.ctx, "shared", time.Minute)
	s.Require().NoError(err)
	s.Equal(int64(51), n)
}
