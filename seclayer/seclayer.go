// seclayer is the trust boundary of the exchange gateway. It
// terminates mutually authenticated TLS connections, authenticates
// clients by certificate or API key, rate-limits and anomaly-monitors
// per-client traffic, and signs outbound market-data broadcasts with a
// shared-secret MAC.
//
// The package exposes a single orchestrating façade,
// SecureNetworkLayer, built from LayerOpts. Everything it needs from
// the host application (logging, event processing, IP blocklists,
// replay caches) is defined here as an interface so implementations
// stay pluggable.
package seclayer

import (
	"context"
	"net"
	"time"
)

const (
	// DefaultConcurrency is the size of the connection worker pool.
	DefaultConcurrency = 4096

	// DefaultHandshakeTimeout bounds TLS handshake duration per
	// connection.
	DefaultHandshakeTimeout = 30 * time.Second

	// DefaultMulticastGroup is the multicast group market data is
	// broadcast to.
	DefaultMulticastGroup = "239.0.0.1"

	// DefaultMulticastPort is the UDP port for market-data broadcasts.
	DefaultMulticastPort = 9999

	// DefaultMaxConnectionsPerIP caps connections per source address
	// before the monitor blocks the address.
	DefaultMaxConnectionsPerIP = 10

	// DefaultRateLimitTokensPerSecond is the per-client token budget.
	DefaultRateLimitTokensPerSecond = 1000

	// DefaultSessionTimeout is how long an untouched session stays
	// valid.
	DefaultSessionTimeout = 3600 * time.Second
)

// Event is a markup interface for the events accepted by EventStream
// implementations.
type Event interface {
	// StreamID returns an ID of the connection stream this event is
	// related to. Empty for process-wide events.
	StreamID() string

	// Timestamp returns a time when this event was generated.
	Timestamp() time.Time
}

// EventStream is an abstraction that accepts security events and
// routes them to observers (metrics, logs).
type EventStream interface {
	// Send delivers an event to the stream. It must respect both
	// contexts and never block forever.
	Send(ctx context.Context, evt Event)

	// Shutdown stops the stream. Sends after Shutdown are dropped.
	Shutdown()
}

// IPBlocklist decides whether a source address is denied before any
// TLS work is spent on it.
type IPBlocklist interface {
	// Contains reports whether the address is listed.
	Contains(ip net.IP) bool

	// Shutdown releases resources held by the list.
	Shutdown()
}

// ReplayCache remembers digests of previously seen broadcast frames so
// a replayed frame can be rejected even when its MAC is valid.
type ReplayCache interface {
	// SeenBefore checks the digest and records it.
	SeenBefore(digest []byte) bool
}

// Logger is a thin structured-logging façade. Implementations bind
// fields eagerly and emit on the level methods.
type Logger interface {
	// Named returns a logger with a nested name.
	Named(name string) Logger

	// BindInt returns a logger with a bound int field.
	BindInt(name string, value int) Logger

	// BindStr returns a logger with a bound string field.
	BindStr(name, value string) Logger

	// Printf exists to satisfy worker-pool logging.
	Printf(format string, args ...interface{})

	Info(msg string)
	InfoError(msg string, err error)
	Warning(msg string)
	WarningError(msg string, err error)
	Debug(msg string)
	DebugError(msg string, err error)
}

// ConnHandler serves an admitted, authenticated client connection. It
// runs on a worker-pool goroutine; returning closes the connection.
type ConnHandler func(ctx context.Context, conn *ClientConn)
