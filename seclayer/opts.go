package seclayer

import (
	"net"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/time/rate"
)

// LayerOpts is a structure with settings for the secure network layer.
//
// This is not required per se, but this is to shorten the constructor
// signature and give an ability to conveniently provide default values.
type LayerOpts struct {
	// Config carries credentials, the broadcast secret and limits.
	//
	// This is a mandatory setting.
	Config *SecurityConfig

	// Logger defines an instance of the logger.
	//
	// This is a mandatory setting.
	Logger Logger

	// EventStream defines an instance of the event stream.
	//
	// This is a mandatory setting.
	EventStream EventStream

	// Blocklist rejects source addresses before any TLS work.
	//
	// This is an optional setting, ignored by default (no restrictions).
	Blocklist IPBlocklist

	// ReplayCache backs the broadcast verifier's digest check.
	//
	// This is an optional setting; without it only the sequence check
	// protects against replay.
	ReplayCache ReplayCache

	// Handler serves admitted connections from Serve's worker pool.
	//
	// This is mandatory for Serve and unused otherwise.
	Handler ConnHandler

	// APIKeys provisions the API-key identity path (key -> client id).
	//
	// This is an optional setting.
	APIKeys map[string]string

	// Concurrency is a size of the worker pool for connection
	// management. Connections above this number are rejected.
	//
	// This is an optional setting.
	Concurrency uint

	// HandshakeTimeout bounds the TLS handshake per connection.
	//
	// This is an optional setting.
	HandshakeTimeout time.Duration

	// MulticastGroup is the market-data multicast group.
	//
	// This is an optional setting.
	MulticastGroup string

	// MulticastPort is the market-data multicast port.
	//
	// This is an optional setting.
	MulticastPort uint

	// IPRateLimitPerSecond caps new connections per second per source
	// address on the accept path. Zero disables the limiter.
	//
	// This is an optional setting.
	IPRateLimitPerSecond float64

	// IPRateLimitBurst is the burst size for the accept-path limiter.
	//
	// This is an optional setting.
	IPRateLimitBurst int

	// Clock overrides the time source. Tests use a mock clock here.
	//
	// This is an optional setting.
	Clock clock.Clock
}

func (l LayerOpts) valid() error {
	switch {
	case l.Config == nil:
		return ErrConfigIsNotDefined
	case l.Logger == nil:
		return ErrLoggerIsNotDefined
	case l.EventStream == nil:
		return ErrEventStreamIsNotDefined
	}

	return nil
}

func (l LayerOpts) getConcurrency() int {
	if l.Concurrency == 0 {
		return DefaultConcurrency
	}

	return int(l.Concurrency)
}

func (l LayerOpts) getHandshakeTimeout() time.Duration {
	if l.HandshakeTimeout == 0 {
		return DefaultHandshakeTimeout
	}

	return l.HandshakeTimeout
}

func (l LayerOpts) getMulticastGroup() string {
	if l.MulticastGroup == "" {
		return DefaultMulticastGroup
	}

	return l.MulticastGroup
}

func (l LayerOpts) getMulticastPort() int {
	if l.MulticastPort == 0 {
		return DefaultMulticastPort
	}

	return int(l.MulticastPort)
}

func (l LayerOpts) getClock() clock.Clock {
	if l.Clock == nil {
		return clock.New()
	}

	return l.Clock
}

func (l LayerOpts) getBlocklist() IPBlocklist {
	if l.Blocklist == nil {
		return allowAllBlocklist{}
	}

	return l.Blocklist
}

func (l LayerOpts) getLogger(name string) Logger {
	return l.Logger.Named(name)
}

func (l LayerOpts) getIPRateLimit() rate.Limit {
	return rate.Limit(l.IPRateLimitPerSecond)
}

func (l LayerOpts) getIPRateLimitBurst() int {
	if l.IPRateLimitBurst == 0 {
		return 20
	}

	return l.IPRateLimitBurst
}

// allowAllBlocklist is the default no-restrictions blocklist.
type allowAllBlocklist struct{}

func (a allowAllBlocklist) Contains(net.IP) bool { return false }

func (a allowAllBlocklist) Shutdown() {}
