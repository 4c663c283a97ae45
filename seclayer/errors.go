package seclayer

import (
	"errors"

	"github.com/perimetr/gatekeeper/seclayer/internal/broadcast"
	"github.com/perimetr/gatekeeper/seclayer/internal/transport"
)

var (
	// ErrConfigIsNotDefined is returned if SecurityConfig is missing.
	ErrConfigIsNotDefined = errors.New("config is not defined")

	// ErrLoggerIsNotDefined is returned if a logger is missing.
	ErrLoggerIsNotDefined = errors.New("logger is not defined")

	// ErrEventStreamIsNotDefined is returned if an event stream is
	// missing.
	ErrEventStreamIsNotDefined = errors.New("event stream is not defined")

	// ErrNotInitialized is returned when the layer serves traffic
	// before Initialize has succeeded.
	ErrNotInitialized = errors.New("layer is not initialized")

	// ErrHandlerIsNotDefined is returned by Serve without a handler.
	ErrHandlerIsNotDefined = errors.New("connection handler is not defined")

	// ErrIPBlocked rejects a connection from a blocked source address.
	ErrIPBlocked = errors.New("ip address is blocked")

	// ErrRateLimited rejects a connection that exceeded the per-IP
	// admission rate.
	ErrRateLimited = errors.New("connection is rate limited")

	// ErrNoPeerCertificate is returned when certificate authentication
	// finds no client certificate on the connection.
	ErrNoPeerCertificate = transport.ErrNoPeerCertificate

	// ErrDisconnected is returned by reads/writes on a dead connection.
	ErrDisconnected = transport.ErrDisconnected

	// ErrUnknownAPIKey rejects an API key with no provisioned client.
	ErrUnknownAPIKey = errors.New("unknown api key")

	// ErrSessionInvalid is returned for missing or expired sessions.
	ErrSessionInvalid = errors.New("session is invalid or expired")

	// ErrEmptySecret is returned when the broadcast channel is
	// configured without a shared secret.
	ErrEmptySecret = broadcast.ErrEmptySecret

	// ErrBadFrame is returned for malformed broadcast frames.
	ErrBadFrame = broadcast.ErrBadFrame

	// ErrBadMAC is returned when a broadcast frame fails MAC
	// verification.
	ErrBadMAC = broadcast.ErrBadMAC

	// ErrReplayedFrame is returned for stale or duplicated broadcast
	// frames.
	ErrReplayedFrame = broadcast.ErrReplayedFrame
)
