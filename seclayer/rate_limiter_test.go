package seclayer_test

import (
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/perimetr/gatekeeper/seclayer"
)

type RateLimiterTestSuite struct {
	suite.Suite

	clockMock *clock.Mock
	limiter   *seclayer.RateLimiter
}

func (suite *RateLimiterTestSuite) SetupTest() {
	suite.clockMock = clock.NewMock()
	suite.limiter = seclayer.NewRateLimiter(1000, time.Second, suite.clockMock)
}

func (suite *RateLimiterTestSuite) TestFirstBucketIsFull() {
	suite.True(suite.limiter.TryConsume("client1", 1000))
	suite.False(suite.limiter.TryConsume("client1", 1))
}

func (suite *RateLimiterTestSuite) TestFailedConsumeKeepsBucket() {
	suite.True(suite.limiter.TryConsume("client1", 999))
	suite.False(suite.limiter.TryConsume("client1", 2))

	// The failed request above must not have taken anything.
	suite.True(suite.limiter.TryConsume("client1", 1))
}

func (suite *RateLimiterTestSuite) TestNoEarlyRefill() {
	suite.True(suite.limiter.TryConsume("client1", 1000))

	suite.clockMock.Add(999 * time.Millisecond)

	suite.False(suite.limiter.TryConsume("client1", 1))
}

func (suite *RateLimiterTestSuite) TestRefillAfterInterval() {
	suite.True(suite.limiter.TryConsume("client1", 1000))

	suite.clockMock.Add(time.Second)

	suite.True(suite.limiter.TryConsume("client1", 1000))
}

func (suite *RateLimiterTestSuite) TestRefillRestoresToCapacityOnly() {
	suite.True(suite.limiter.TryConsume("client1", 500))

	// Many idle intervals do not stack above capacity.
	suite.clockMock.Add(10 * time.Second)

	suite.True(suite.limiter.TryConsume("client1", 1000))
	suite.False(suite.limiter.TryConsume("client1", 1))
}

func (suite *RateLimiterTestSuite) TestRemainderAccrues() {
	suite.True(suite.limiter.TryConsume("client1", 1000))

	// 1.5 intervals: a refill happens, and the extra half interval
	// counts toward the next boundary.
	suite.clockMock.Add(1500 * time.Millisecond)
	suite.True(suite.limiter.TryConsume("client1", 1000))

	suite.clockMock.Add(500 * time.Millisecond)
	suite.True(suite.limiter.TryConsume("client1", 1000))
}

func (suite *RateLimiterTestSuite) TestClientsAreIndependent() {
	suite.True(suite.limiter.TryConsume("client1", 1000))
	suite.True(suite.limiter.TryConsume("client2", 1000))
	suite.False(suite.limiter.TryConsume("client1", 1))
}

func (suite *RateLimiterTestSuite) TestResetClient() {
	suite.True(suite.limiter.TryConsume("client1", 1000))
	suite.limiter.ResetClient("client1")
	suite.True(suite.limiter.TryConsume("client1", 1000))
}

func (suite *RateLimiterTestSuite) TestActiveClients() {
	suite.Equal(0, suite.limiter.ActiveClients())

	suite.limiter.TryConsume("client1", 1)
	suite.limiter.TryConsume("client2", 1)

	suite.Equal(2, suite.limiter.ActiveClients())
}

func (suite *RateLimiterTestSuite) TestConcurrentConservation() {
	wg := sync.WaitGroup{}

	var granted, denied atomic.Uint64

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for j := 0; j < 200; j++ {
				if suite.limiter.TryConsume("shared", 1) {
					granted.Add(1)
				} else {
					denied.Add(1)
				}
			}
		}()
	}

	wg.Wait()

	suite.EqualValues(1000, granted.Load())
	suite.EqualValues(1000, denied.Load())
}

func (suite *RateLimiterTestSuite) TestManyClients() {
	for i := 0; i < 100; i++ {
		suite.True(suite.limiter.TryConsume("client"+strconv.Itoa(i), 1000))
	}

	for i := 0; i < 100; i++ {
		suite.False(suite.limiter.TryConsume("client"+strconv.Itoa(i), 1))
	}
}

func TestRateLimiter(t *testing.T) {
	t.Parallel()
	suite.Run(t, &RateLimiterTestSuite{})
}
