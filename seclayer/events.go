package seclayer

import (
	"net"
	"time"
)

type eventBase struct {
	streamID  string
	timestamp time.Time
}

// StreamID returns an ID of the stream this event belongs to.
func (e eventBase) StreamID() string {
	return e.streamID
}

// Timestamp returns a time when this event was generated.
func (e eventBase) Timestamp() time.Time {
	return e.timestamp
}

func newEventBase(streamID string) eventBase {
	return eventBase{
		streamID:  streamID,
		timestamp: time.Now(),
	}
}

// EventStart is emitted when an authenticated client stream has been
// admitted.
type EventStart struct {
	eventBase

	// RemoteIP is an IP address of the client.
	RemoteIP net.IP

	// ClientID is an identity established during authentication.
	ClientID string
}

// EventFinish is emitted when the layer stops managing a stream.
type EventFinish struct {
	eventBase
}

// EventTraffic is emitted when bytes move on an admitted connection.
type EventTraffic struct {
	eventBase

	// Traffic is a count of bytes which were transmitted.
	Traffic uint

	// IsRead defines if the bytes were read from the client.
	IsRead bool
}

// EventIPBlocked is emitted when a connection is rejected by the
// blocklist or by the security monitor's per-IP caps.
type EventIPBlocked struct {
	eventBase

	RemoteIP net.IP
}

// EventAuthFailure is emitted on a failed certificate, API-key or
// session check.
type EventAuthFailure struct {
	eventBase

	RemoteIP net.IP

	// Reason is a short machine-readable failure class.
	Reason string
}

// EventRateLimited is emitted when the accept path rejects an IP for
// exceeding its admission rate.
type EventRateLimited struct {
	eventBase

	RemoteIP net.IP
}

// EventAnomaly is emitted when the security monitor flags a client's
// traffic pattern.
type EventAnomaly struct {
	eventBase

	ClientID string
}

// EventReplayAttack is emitted when broadcast verification rejects a
// stale or duplicated frame.
type EventReplayAttack struct {
	eventBase
}

// EventBroadcast is emitted after a market-data frame has been signed
// and multicast.
type EventBroadcast struct {
	eventBase

	// Size is the payload size in bytes, MAC and header excluded.
	Size uint
}

// EventConcurrencyLimited is emitted when the worker pool declines a
// connection.
type EventConcurrencyLimited struct {
	eventBase
}

// NewEventStart creates a new EventStart event.
func NewEventStart(streamID string, remoteIP net.IP, clientID string) EventStart {
	return EventStart{
		eventBase: newEventBase(streamID),
		RemoteIP:  remoteIP,
		ClientID:  clientID,
	}
}

// NewEventFinish creates a new EventFinish event.
func NewEventFinish(streamID string) EventFinish {
	return EventFinish{
		eventBase: newEventBase(streamID),
	}
}

// NewEventTraffic creates a new EventTraffic event.
func NewEventTraffic(streamID string, traffic uint, isRead bool) EventTraffic {
	return EventTraffic{
		eventBase: newEventBase(streamID),
		Traffic:   traffic,
		IsRead:    isRead,
	}
}

// NewEventIPBlocked creates a new EventIPBlocked event.
func NewEventIPBlocked(remoteIP net.IP) EventIPBlocked {
	return EventIPBlocked{
		eventBase: newEventBase(""),
		RemoteIP:  remoteIP,
	}
}

// NewEventAuthFailure creates a new EventAuthFailure event.
func NewEventAuthFailure(streamID string, remoteIP net.IP, reason string) EventAuthFailure {
	return EventAuthFailure{
		eventBase: newEventBase(streamID),
		RemoteIP:  remoteIP,
		Reason:    reason,
	}
}

// NewEventRateLimited creates a new EventRateLimited event.
func NewEventRateLimited(remoteIP net.IP) EventRateLimited {
	return EventRateLimited{
		eventBase: newEventBase(""),
		RemoteIP:  remoteIP,
	}
}

// NewEventAnomaly creates a new EventAnomaly event.
func NewEventAnomaly(clientID string) EventAnomaly {
	return EventAnomaly{
		eventBase: newEventBase(""),
		ClientID:  clientID,
	}
}

// NewEventReplayAttack creates a new EventReplayAttack event.
func NewEventReplayAttack() EventReplayAttack {
	return EventReplayAttack{
		eventBase: newEventBase(""),
	}
}

// NewEventBroadcast creates a new EventBroadcast event.
func NewEventBroadcast(size uint) EventBroadcast {
	return EventBroadcast{
		eventBase: newEventBase(""),
		Size:      size,
	}
}

// NewEventConcurrencyLimited creates a new EventConcurrencyLimited
// event.
func NewEventConcurrencyLimited() EventConcurrencyLimited {
	return EventConcurrencyLimited{
		eventBase: newEventBase(""),
	}
}
