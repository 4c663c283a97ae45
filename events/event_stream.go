package events

import (
	"context"
	"math/rand"
	"runtime"
	"sync/atomic"

	"github.com/OneOfOne/xxhash"

	"github.com/perimetr/gatekeeper/seclayer"
)

// EventStream is a default implementation of the
// [seclayer.EventStream] interface.
//
// EventStream manages a set of goroutines, observers. Main
// responsibility of the event stream is to route an event to relevant
// observer based on some hash so each observer will have all events
// which belong to some stream id.
type EventStream struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	chans     []chan seclayer.Event

	// dropped counts traffic events lost on channel overflow.
	// A pointer because EventStream uses value receivers and
	// atomic.Uint64 contains a noCopy.
	dropped *atomic.Uint64
}

// Send delivers an event to an observer.
//
// EventTraffic is emitted on every read and write of a connection, so
// when a consumer stalls it is dropped instead of blocking the data
// path. Traffic totals become slightly less precise; the connection
// does not slow down. All other events are rare and delivered
// blocking.
func (e EventStream) Send(ctx context.Context, evt seclayer.Event) {
	var chanNo uint32

	if streamID := evt.StreamID(); streamID != "" {
		chanNo = xxhash.ChecksumString32(streamID)
	} else {
		chanNo = rand.Uint32()
	}

	ch := e.chans[int(chanNo)%len(e.chans)]

	if _, isTraffic := evt.(seclayer.EventTraffic); isTraffic {
		select {
		case <-ctx.Done():
		case <-e.ctx.Done():
		case ch <- evt:
		default:
			e.dropped.Add(1)
		}

		return
	}

	select {
	case <-ctx.Done():
	case <-e.ctx.Done():
	case ch <- evt:
	}
}

// Dropped returns the number of discarded traffic events so far.
func (e EventStream) Dropped() uint64 {
	return e.dropped.Load()
}

// Shutdown stops an event stream pipeline.
func (e EventStream) Shutdown() {
	e.ctxCancel()
}

// NewEventStream builds a new default event stream.
//
// If you give an empty array of observers, then NoopObserver is going
// to be used.
func NewEventStream(observerFactories []ObserverFactory) EventStream {
	if len(observerFactories) == 0 {
		observerFactories = append(observerFactories, NewNoopObserver)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rv := EventStream{
		ctx:       ctx,
		ctxCancel: cancel,
		chans:     make([]chan seclayer.Event, runtime.NumCPU()),
		dropped:   &atomic.Uint64{},
	}

	for i := 0; i < runtime.NumCPU(); i++ {
		rv.chans[i] = make(chan seclayer.Event, 64)

		if len(observerFactories) == 1 {
			go eventStreamProcessor(ctx, rv.chans[i], observerFactories[0]())
		} else {
			go eventStreamProcessor(ctx, rv.chans[i], newMultiObserver(observerFactories))
		}
	}

	return rv
}

func eventStreamProcessor(ctx context.Context, eventChan <-chan seclayer.Event, observer Observer) { //nolint: cyclop
	defer observer.Shutdown()

	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-eventChan:
			switch typedEvt := evt.(type) {
			case seclayer.EventTraffic:
				observer.EventTraffic(typedEvt)
			case seclayer.EventStart:
				observer.EventStart(typedEvt)
			case seclayer.EventFinish:
				observer.EventFinish(typedEvt)
			case seclayer.EventIPBlocked:
				observer.EventIPBlocked(typedEvt)
			case seclayer.EventAuthFailure:
				observer.EventAuthFailure(typedEvt)
			case seclayer.EventRateLimited:
				observer.EventRateLimited(typedEvt)
			case seclayer.EventAnomaly:
				observer.EventAnomaly(typedEvt)
			case seclayer.EventReplayAttack:
				observer.EventReplayAttack(typedEvt)
			case seclayer.EventBroadcast:
				observer.EventBroadcast(typedEvt)
			case seclayer.EventConcurrencyLimited:
				observer.EventConcurrencyLimited(typedEvt)
			}
		}
	}
}
