package events

import "github.com/perimetr/gatekeeper/seclayer"

// Observer is an abstraction which processes a stream of events. Each
// observer sees every event of a given stream id, in order.
type Observer interface {
	EventStart(seclayer.EventStart)
	EventFinish(seclayer.EventFinish)
	EventTraffic(seclayer.EventTraffic)
	EventIPBlocked(seclayer.EventIPBlocked)
	EventAuthFailure(seclayer.EventAuthFailure)
	EventRateLimited(seclayer.EventRateLimited)
	EventAnomaly(seclayer.EventAnomaly)
	EventReplayAttack(seclayer.EventReplayAttack)
	EventBroadcast(seclayer.EventBroadcast)
	EventConcurrencyLimited(seclayer.EventConcurrencyLimited)

	Shutdown()
}

// ObserverFactory creates a new observer. EventStream makes an
// independent observer per processing goroutine.
type ObserverFactory func() Observer

type noopObserver struct{}

func (n noopObserver) EventStart(_ seclayer.EventStart)                           {}
func (n noopObserver) EventFinish(_ seclayer.EventFinish)                         {}
func (n noopObserver) EventTraffic(_ seclayer.EventTraffic)                       {}
func (n noopObserver) EventIPBlocked(_ seclayer.EventIPBlocked)                   {}
func (n noopObserver) EventAuthFailure(_ seclayer.EventAuthFailure)               {}
func (n noopObserver) EventRateLimited(_ seclayer.EventRateLimited)               {}
func (n noopObserver) EventAnomaly(_ seclayer.EventAnomaly)                       {}
func (n noopObserver) EventReplayAttack(_ seclayer.EventReplayAttack)             {}
func (n noopObserver) EventBroadcast(_ seclayer.EventBroadcast)                   {}
func (n noopObserver) EventConcurrencyLimited(_ seclayer.EventConcurrencyLimited) {}
func (n noopObserver) Shutdown()                                                  {}

// NewNoopObserver builds an observer which discards everything.
func NewNoopObserver() Observer {
	return noopObserver{}
}
