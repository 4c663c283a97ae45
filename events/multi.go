package events

import "github.com/perimetr/gatekeeper/seclayer"

type multiObserver struct {
	observers []Observer
}

func (m multiObserver) EventStart(evt seclayer.EventStart) {
	for _, v := range m.observers {
		v.EventStart(evt)
	}
}

func (m multiObserver) EventFinish(evt seclayer.EventFinish) {
	for _, v := range m.observers {
		v.EventFinish(evt)
	}
}

func (m multiObserver) EventTraffic(evt seclayer.EventTraffic) {
	for _, v := range m.observers {
		v.EventTraffic(evt)
	}
}

func (m multiObserver) EventIPBlocked(evt seclayer.EventIPBlocked) {
	for _, v := range m.observers {
		v.EventIPBlocked(evt)
	}
}

func (m multiObserver) EventAuthFailure(evt seclayer.EventAuthFailure) {
	for _, v := range m.observers {
		v.EventAuthFailure(evt)
	}
}

func (m multiObserver) EventRateLimited(evt seclayer.EventRateLimited) {
	for _, v := range m.observers {
		v.EventRateLimited(evt)
	}
}

func (m multiObserver) EventAnomaly(evt seclayer.EventAnomaly) {
	for _, v := range m.observers {
		v.EventAnomaly(evt)
	}
}

func (m multiObserver) EventReplayAttack(evt seclayer.EventReplayAttack) {
	for _, v := range m.observers {
		v.EventReplayAttack(evt)
	}
}

func (m multiObserver) EventBroadcast(evt seclayer.EventBroadcast) {
	for _, v := range m.observers {
		v.EventBroadcast(evt)
	}
}

func (m multiObserver) EventConcurrencyLimited(evt seclayer.EventConcurrencyLimited) {
	for _, v := range m.observers {
		v.EventConcurrencyLimited(evt)
	}
}

func (m multiObserver) Shutdown() {
	for _, v := range m.observers {
		v.Shutdown()
	}
}

func newMultiObserver(factories []ObserverFactory) multiObserver {
	observers := make([]Observer, len(factories))

	for i, factory := range factories {
		observers[i] = factory()
	}

	return multiObserver{observers: observers}
}
