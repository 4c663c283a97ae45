package seclayer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/perimetr/gatekeeper/seclayer/internal/broadcast"
	"github.com/perimetr/gatekeeper/seclayer/internal/transport"
)

// SecureNetworkLayer owns one instance each of the transport channel,
// broadcast channel, rate limiter, security monitor and authenticator,
// all built from a single SecurityConfig. It is the only type the
// hosting gateway talks to.
type SecureNetworkLayer struct {
	ctx             context.Context
	ctxCancel       context.CancelFunc
	streamWaitGroup sync.WaitGroup

	config      *SecurityConfig
	transport   *transport.Channel
	sender      *broadcast.Sender
	verifier    *broadcast.Verifier
	limiter     *RateLimiter
	ipLimiter   *IPLimiter
	monitor     *SecurityMonitor
	auth        *Authenticator
	blocklist   IPBlocklist
	replayCache ReplayCache
	stream      EventStream
	logger      Logger
	handler     ConnHandler
	workerPool  *ants.PoolWithFunc

	multicastGroup string
	multicastPort  int
}

// NewSecureNetworkLayer builds the layer from opts. The fallible parts
// of channel setup (credential loading, secret checks) happen in
// Initialize, not here.
func NewSecureNetworkLayer(opts LayerOpts) (*SecureNetworkLayer, error) {
	if err := opts.valid(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	clk := opts.getClock()
	config := opts.Config

	var ipLimiter *IPLimiter
	if opts.IPRateLimitPerSecond > 0 {
		ipLimiter = NewIPLimiter(opts.getIPRateLimit(), opts.getIPRateLimitBurst(), time.Minute)
	}

	layer := &SecureNetworkLayer{
		ctx:       ctx,
		ctxCancel: cancel,
		config:    config,
		transport: transport.NewChannel(transport.Config{
			CertFile:           config.CertFile,
			KeyFile:            config.KeyFile,
			CAFile:             config.CAFile,
			RequireClientCerts: config.RequireClientCerts,
			HandshakeTimeout:   opts.getHandshakeTimeout(),
		}),
		limiter:        NewRateLimiter(config.RateLimitTokensPerSecond, time.Second, clk),
		ipLimiter:      ipLimiter,
		monitor:        NewSecurityMonitor(config.MaxConnectionsPerIP, opts.Logger, clk),
		auth:           NewAuthenticator(config.SessionTimeout, opts.APIKeys, clk),
		blocklist:      opts.getBlocklist(),
		replayCache:    opts.ReplayCache,
		stream:         opts.EventStream,
		logger:         opts.getLogger("seclayer"),
		handler:        opts.Handler,
		multicastGroup: opts.getMulticastGroup(),
		multicastPort:  opts.getMulticastPort(),
	}

	pool, err := ants.NewPoolWithFunc(opts.getConcurrency(),
		func(arg interface{}) {
			layer.serveConn(arg.(net.Conn)) //nolint: forcetypeassert
		},
		ants.WithLogger(opts.getLogger("workers")),
		ants.WithNonblocking(true))
	if err != nil {
		cancel()

		return nil, fmt.Errorf("cannot create worker pool: %w", err)
	}

	layer.workerPool = pool

	return layer, nil
}

// Initialize brings up the transport channel and then the broadcast
// channel, failing fast on the first error.
func (l *SecureNetworkLayer) Initialize() error {
	if err := l.transport.Initialize(); err != nil {
		return fmt.Errorf("cannot initialize transport channel: %w", err)
	}

	sender, err := broadcast.NewSender(l.config.HMACSecret())
	if err != nil {
		return fmt.Errorf("cannot initialize broadcast channel: %w", err)
	}

	verifier, err := broadcast.NewVerifier(l.config.HMACSecret(), l.replayCache)
	if err != nil {
		return fmt.Errorf("cannot initialize broadcast verifier: %w", err)
	}

	l.sender = sender
	l.verifier = verifier
	l.logger.Info("secure network layer initialized")

	return nil
}

// AcceptSecureConnection composes a transport-level accept with the
// monitor's block decision and certificate authentication. The
// connection is closed on every failure path.
func (l *SecureNetworkLayer) AcceptSecureConnection(listener net.Listener) (*ClientConn, error) {
	if l.sender == nil {
		return nil, ErrNotInitialized
	}

	conn, err := l.transport.Accept(listener)
	if err != nil {
		return nil, fmt.Errorf("cannot accept secure connection: %w", err)
	}

	return l.admit(conn)
}

// admit runs the post-handshake checks over an established TLS
// connection.
func (l *SecureNetworkLayer) admit(conn *transport.Conn) (*ClientConn, error) {
	remoteIP := remoteIPOf(conn)
	ip := remoteIP.String()
	logger := l.logger.BindStr("ip", hashIP(remoteIP))

	l.monitor.RecordConnection(ip)

	if l.monitor.ShouldBlockConnection(ip) {
		conn.Close()
		logger.Warning("connection was blocked")
		l.stream.Send(l.ctx, NewEventIPBlocked(remoteIP))

		return nil, ErrIPBlocked
	}

	clientID, err := l.auth.AuthenticateCertificate(conn.State())
	if err != nil {
		conn.Close()
		l.monitor.RecordAuthFailure(ip)
		logger.InfoError("certificate authentication failed", err)
		l.stream.Send(l.ctx, NewEventAuthFailure("", remoteIP, "certificate"))

		return nil, fmt.Errorf("cannot authenticate client: %w", err)
	}

	streamID := uuid.NewString()
	client := newClientConn(l.ctx, conn, streamID, clientID, remoteIP, l.stream)

	l.stream.Send(l.ctx, NewEventStart(streamID, remoteIP, clientID))
	logger.BindStr("client-id", clientID).Info("client connection admitted")

	return client, nil
}

// Serve runs an accept loop on the listener: blocklist and per-IP rate
// checks first, then the worker pool takes the connection through the
// handshake and the configured handler. It returns nil after Shutdown.
func (l *SecureNetworkLayer) Serve(listener net.Listener) error {
	if l.handler == nil {
		return ErrHandlerIsNotDefined
	}

	if l.sender == nil {
		return ErrNotInitialized
	}

	l.streamWaitGroup.Add(1)
	defer l.streamWaitGroup.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-l.ctx.Done():
				return nil
			default:
				return fmt.Errorf("cannot accept a new connection: %w", err)
			}
		}

		ipAddr := remoteIPOf(conn)
		logger := l.logger.BindStr("ip", hashIP(ipAddr))

		if l.blocklist.Contains(ipAddr) {
			conn.Close()
			logger.Info("ip was rejected by blocklist")
			l.stream.Send(l.ctx, NewEventIPBlocked(ipAddr))

			continue
		}

		if l.ipLimiter != nil && !l.ipLimiter.Allow(ipAddr) {
			conn.Close()
			logger.Info("ip was rate limited")
			l.stream.Send(l.ctx, NewEventRateLimited(ipAddr))

			continue
		}

		err = l.workerPool.Invoke(conn)

		switch {
		case err == nil:
		case errors.Is(err, ants.ErrPoolClosed):
			conn.Close()

			return nil
		case errors.Is(err, ants.ErrPoolOverload):
			conn.Close()
			logger.Info("connection was concurrency limited")
			l.stream.Send(l.ctx, NewEventConcurrencyLimited())
		}
	}
}

// serveConn upgrades and admits a raw connection on a worker
// goroutine, then hands it to the handler.
func (l *SecureNetworkLayer) serveConn(raw net.Conn) {
	l.streamWaitGroup.Add(1)
	defer l.streamWaitGroup.Done()

	conn, err := l.transport.Secure(raw)
	if err != nil {
		remoteIP := remoteIPOf(raw)
		l.monitor.RecordAuthFailure(remoteIP.String())
		l.logger.BindStr("ip", hashIP(remoteIP)).InfoError("tls handshake failed", err)
		l.stream.Send(l.ctx, NewEventAuthFailure("", remoteIP, "handshake"))

		return
	}

	client, err := l.admit(conn)
	if err != nil {
		return
	}

	defer func() {
		client.Close()
		l.stream.Send(l.ctx, NewEventFinish(client.StreamID()))
	}()

	l.handler(l.ctx, client)
}

// BroadcastMarketData signs payload and multicasts it to the
// configured group and port.
func (l *SecureNetworkLayer) BroadcastMarketData(payload []byte) error {
	if l.sender == nil {
		return ErrNotInitialized
	}

	if err := l.sender.Send(payload, l.multicastGroup, l.multicastPort); err != nil {
		return fmt.Errorf("cannot broadcast market data: %w", err)
	}

	l.stream.Send(l.ctx, NewEventBroadcast(uint(len(payload))))

	return nil
}

// VerifyBroadcastFrame authenticates a received broadcast frame and
// returns its payload. Replay rejections are also reported to the
// event stream.
func (l *SecureNetworkLayer) VerifyBroadcastFrame(frame []byte) ([]byte, error) {
	if l.verifier == nil {
		return nil, ErrNotInitialized
	}

	payload, err := l.verifier.Verify(frame)
	if err != nil {
		if errors.Is(err, ErrReplayedFrame) {
			l.logger.Warning("replay attack has been detected!")
			l.stream.Send(l.ctx, NewEventReplayAttack())
		}

		return nil, fmt.Errorf("cannot verify broadcast frame: %w", err)
	}

	return payload, nil
}

// IsClientRateLimited charges one token against the client and reports
// whether the client is over budget.
func (l *SecureNetworkLayer) IsClientRateLimited(clientID string) bool {
	return !l.limiter.TryConsume(clientID, 1)
}

// ShouldBlockIP exposes the monitor's block decision to the hosting
// accept loop.
func (l *SecureNetworkLayer) ShouldBlockIP(ip string) bool {
	return l.monitor.ShouldBlockConnection(ip)
}

// RecordMessage accounts an application message and re-checks the
// client's traffic pattern, emitting an anomaly event when flagged.
func (l *SecureNetworkLayer) RecordMessage(clientID string, size int) {
	l.monitor.RecordMessage(clientID, size)

	if l.monitor.DetectAnomalousTraffic(clientID) {
		l.stream.Send(l.ctx, NewEventAnomaly(clientID))
	}
}

// RecordSecurityEvent forwards an ad-hoc security event to structured
// logging.
func (l *SecureNetworkLayer) RecordSecurityEvent(eventType, clientID string) {
	l.logger.
		BindStr("event-type", eventType).
		BindStr("client-id", clientID).
		Warning("security event")
}

// Authenticator exposes session management to the hosting gateway.
func (l *SecureNetworkLayer) Authenticator() *Authenticator {
	return l.auth
}

// Stats returns a snapshot of the aggregate security counters.
func (l *SecureNetworkLayer) Stats() StatsSnapshot {
	return l.monitor.Stats()
}

// Shutdown gracefully stops the layer. It does not close the listener
// given to Serve.
func (l *SecureNetworkLayer) Shutdown() {
	l.ctxCancel()
	l.streamWaitGroup.Wait()
	l.workerPool.Release()
	l.blocklist.Shutdown()

	if l.ipLimiter != nil {
		l.ipLimiter.Stop()
	}
}

// remoteIPOf extracts the peer address of a TCP or TLS connection.
func remoteIPOf(conn net.Conn) net.IP {
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		return addr.IP
	}

	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return net.IPv4zero
	}

	return net.ParseIP(host)
}
