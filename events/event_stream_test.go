package events_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/perimetr/gatekeeper/events"
	"github.com/perimetr/gatekeeper/seclayer"
)

type recordingObserver struct {
	events.Observer

	starts   chan seclayer.EventStart
	finishes chan seclayer.EventFinish
	traffic  chan seclayer.EventTraffic
}

func (r recordingObserver) EventStart(evt seclayer.EventStart)     { r.starts <- evt }
func (r recordingObserver) EventFinish(evt seclayer.EventFinish)   { r.finishes <- evt }
func (r recordingObserver) EventTraffic(evt seclayer.EventTraffic) { r.traffic <- evt }
func (r recordingObserver) Shutdown()                              {}

type EventStreamTestSuite struct {
	suite.Suite

	stream   events.EventStream
	observer recordingObserver
}

func (suite *EventStreamTestSuite) SetupTest() {
	suite.observer = recordingObserver{
		starts:   make(chan seclayer.EventStart, 128),
		finishes: make(chan seclayer.EventFinish, 128),
		traffic:  make(chan seclayer.EventTraffic, 128),
	}
	suite.stream = events.NewEventStream([]events.ObserverFactory{
		func() events.Observer {
			return suite.observer
		},
	})
}

func (suite *EventStreamTestSuite) TearDownTest() {
	suite.stream.Shutdown()
}

func (suite *EventStreamTestSuite) TestDelivery() {
	ctx := context.Background()

	suite.stream.Send(ctx, seclayer.NewEventStart("stream1", net.ParseIP("10.0.0.1"), "client1"))
	suite.stream.Send(ctx, seclayer.NewEventTraffic("stream1", 100, true))
	suite.stream.Send(ctx, seclayer.NewEventFinish("stream1"))

	select {
	case evt := <-suite.observer.starts:
		suite.Equal("stream1", evt.StreamID())
		suite.Equal("client1", evt.ClientID)
	case <-time.After(time.Second):
		suite.FailNow("no start event was delivered")
	}

	select {
	case evt := <-suite.observer.traffic:
		suite.EqualValues(100, evt.Traffic)
		suite.True(evt.IsRead)
	case <-time.After(time.Second):
		suite.FailNow("no traffic event was delivered")
	}

	select {
	case evt := <-suite.observer.finishes:
		suite.Equal("stream1", evt.StreamID())
	case <-time.After(time.Second):
		suite.FailNow("no finish event was delivered")
	}
}

func (suite *EventStreamTestSuite) TestNothingDroppedWhenIdle() {
	suite.stream.Send(context.Background(), seclayer.NewEventTraffic("stream1", 1, false))

	select {
	case <-suite.observer.traffic:
	case <-time.After(time.Second):
		suite.FailNow("no traffic event was delivered")
	}

	suite.EqualValues(0, suite.stream.Dropped())
}

func TestEventStream(t *testing.T) {
	t.Parallel()
	suite.Run(t, &EventStreamTestSuite{})
}
