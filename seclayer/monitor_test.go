package seclayer_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"

	"github.com/perimetr/gatekeeper/internal/testlib"
	"github.com/perimetr/gatekeeper/seclayer"
)

type SecurityMonitorTestSuite struct {
	suite.Suite

	clockMock *clock.Mock
	monitor   *seclayer.SecurityMonitor
}

func (suite *SecurityMonitorTestSuite) SetupTest() {
	suite.clockMock = clock.NewMock()
	suite.monitor = seclayer.NewSecurityMonitor(10, testlib.NoopLogger{}, suite.clockMock)
}

func (suite *SecurityMonitorTestSuite) TestUnknownIPIsNotBlocked() {
	suite.False(suite.monitor.ShouldBlockConnection("10.0.0.1"))
	suite.EqualValues(0, suite.monitor.Stats().BlockedConnections)
}

func (suite *SecurityMonitorTestSuite) TestBlocksAboveConnectionCap() {
	for i := 0; i < 10; i++ {
		suite.monitor.RecordConnection("10.0.0.1")
		suite.False(suite.monitor.ShouldBlockConnection("10.0.0.1"))
	}

	suite.monitor.RecordConnection("10.0.0.1")
	suite.True(suite.monitor.ShouldBlockConnection("10.0.0.1"))
}

func (suite *SecurityMonitorTestSuite) TestBlocksAboveAuthFailureCap() {
	for i := 0; i < 5; i++ {
		suite.monitor.RecordAuthFailure("10.0.0.1")
		suite.False(suite.monitor.ShouldBlockConnection("10.0.0.1"))
	}

	suite.monitor.RecordAuthFailure("10.0.0.1")
	suite.True(suite.monitor.ShouldBlockConnection("10.0.0.1"))
}

func (suite *SecurityMonitorTestSuite) TestBlockedCounterIsNotIdempotent() {
	for i := 0; i < 11; i++ {
		suite.monitor.RecordConnection("10.0.0.1")
	}

	suite.True(suite.monitor.ShouldBlockConnection("10.0.0.1"))
	suite.True(suite.monitor.ShouldBlockConnection("10.0.0.1"))
	suite.True(suite.monitor.ShouldBlockConnection("10.0.0.1"))

	suite.EqualValues(3, suite.monitor.Stats().BlockedConnections)
}

func (suite *SecurityMonitorTestSuite) TestIPsAreIndependent() {
	for i := 0; i < 11; i++ {
		suite.monitor.RecordConnection("10.0.0.1")
	}

	suite.monitor.RecordConnection("10.0.0.2")

	suite.True(suite.monitor.ShouldBlockConnection("10.0.0.1"))
	suite.False(suite.monitor.ShouldBlockConnection("10.0.0.2"))
}

func (suite *SecurityMonitorTestSuite) TestUnknownClientIsNotAnomalous() {
	suite.False(suite.monitor.DetectAnomalousTraffic("client1"))
}

func (suite *SecurityMonitorTestSuite) TestMessageBurstInFirstMinute() {
	for i := 0; i < 10001; i++ {
		suite.monitor.RecordMessage("client1", 1)
	}

	// The window is clamped to one minute, so the burst is visible
	// immediately.
	suite.True(suite.monitor.DetectAnomalousTraffic("client1"))
	suite.EqualValues(1, suite.monitor.Stats().AnomaliesDetected)
}

func (suite *SecurityMonitorTestSuite) TestByteBurstInFirstMinute() {
	suite.monitor.RecordMessage("client1", 1<<20)
	suite.monitor.RecordMessage("client1", 1)

	suite.True(suite.monitor.DetectAnomalousTraffic("client1"))
}

func (suite *SecurityMonitorTestSuite) TestModerateTrafficIsNotAnomalous() {
	for i := 0; i < 100; i++ {
		suite.monitor.RecordMessage("client1", 100)
	}

	suite.False(suite.monitor.DetectAnomalousTraffic("client1"))
	suite.EqualValues(0, suite.monitor.Stats().AnomaliesDetected)
}

func (suite *SecurityMonitorTestSuite) TestRateDilutesOverTime() {
	for i := 0; i < 10001; i++ {
		suite.monitor.RecordMessage("client1", 1)
	}

	suite.True(suite.monitor.DetectAnomalousTraffic("client1"))

	// The same volume spread over two minutes is under the rate.
	suite.clockMock.Add(2 * time.Minute)

	suite.False(suite.monitor.DetectAnomalousTraffic("client1"))
}

func (suite *SecurityMonitorTestSuite) TestStats() {
	suite.monitor.RecordConnection("10.0.0.1")
	suite.monitor.RecordConnection("10.0.0.2")
	suite.monitor.RecordAuthFailure("10.0.0.1")

	stats := suite.monitor.Stats()

	suite.EqualValues(2, stats.TotalConnections)
	suite.EqualValues(1, stats.AuthFailures)
	suite.EqualValues(0, stats.BlockedConnections)
	suite.EqualValues(0, stats.AnomaliesDetected)
}

func TestSecurityMonitor(t *testing.T) {
	t.Parallel()
	suite.Run(t, &SecurityMonitorTestSuite{})
}
