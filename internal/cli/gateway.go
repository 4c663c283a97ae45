package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/perimetr/gatekeeper/antireplay"
	"github.com/perimetr/gatekeeper/events"
	"github.com/perimetr/gatekeeper/firewall"
	"github.com/perimetr/gatekeeper/internal/config"
	"github.com/perimetr/gatekeeper/internal/logger"
	"github.com/perimetr/gatekeeper/internal/utils"
	"github.com/perimetr/gatekeeper/seclayer"
	"github.com/perimetr/gatekeeper/stats"
)

const (
	defaultMetricPrefix = "gatekeeper"
	defaultHTTPPath     = "/"

	// messageBufferSize matches the broadcast frame budget; a client
	// message never needs more.
	messageBufferSize = 8192
)

func runGateway(conf *config.Config, version string) error { //nolint: cyclop, funlen
	log := logger.New(conf.Debug.Get(false))
	log.Named("gateway").BindStr("version", version).Info("starting")
	log.Named("gateway").Debug(conf.String())

	secConfig := seclayer.NewSecurityConfig()
	secConfig.CertFile = conf.TLS.CertFile.Get("")
	secConfig.KeyFile = conf.TLS.KeyFile.Get("")
	secConfig.CAFile = conf.TLS.CAFile.Get("")
	secConfig.RequireClientCerts = !conf.TLS.AllowAnonymousClients.Get(false)
	secConfig.MaxConnectionsPerIP = uint32(conf.Limits.MaxConnectionsPerIP.Get(seclayer.DefaultMaxConnectionsPerIP))
	secConfig.RateLimitTokensPerSecond = uint32(conf.Limits.TokensPerSecond.Get(seclayer.DefaultRateLimitTokensPerSecond))
	secConfig.SessionTimeout = conf.Auth.SessionTimeout.Get(seclayer.DefaultSessionTimeout)

	if err := secConfig.SetHMACSecret(conf.Broadcast.Secret.Value); err != nil {
		return fmt.Errorf("cannot set broadcast secret: %w", err)
	}

	eventStream, closeStats, err := makeEventStream(conf, log)
	if err != nil {
		return fmt.Errorf("cannot build event stream: %w", err)
	}

	defer closeStats()
	defer eventStream.Shutdown()

	var blocklist seclayer.IPBlocklist

	if conf.Defense.Blocklist.Enabled.Get(false) {
		blocklist, err = firewall.NewCIDRBlocklist(conf.Defense.Blocklist.CIDRs)
		if err != nil {
			return fmt.Errorf("cannot build blocklist: %w", err)
		}
	}

	var replayCache seclayer.ReplayCache

	if conf.Defense.AntiReplay.Enabled.Get(false) {
		replayCache = antireplay.NewStableBloomFilter(
			uint(conf.Defense.AntiReplay.MaxSize.Get(antireplay.DefaultMaxSize)),
			conf.Defense.AntiReplay.ErrorRate.Get(antireplay.DefaultErrorRate))
	}

	var layer *seclayer.SecureNetworkLayer

	opts := seclayer.LayerOpts{
		Config:           secConfig,
		Logger:           log,
		EventStream:      eventStream,
		Blocklist:        blocklist,
		ReplayCache:      replayCache,
		APIKeys:          conf.Auth.APIKeys,
		Concurrency:      conf.Concurrency.Get(0),
		HandshakeTimeout: conf.HandshakeTimeout.Get(0),
		MulticastGroup:   conf.Broadcast.Group.Get(net.ParseIP(seclayer.DefaultMulticastGroup)).String(),
		MulticastPort:    conf.Broadcast.Port.Get(seclayer.DefaultMulticastPort),
		Handler: func(ctx context.Context, conn *seclayer.ClientConn) {
			serveClient(ctx, layer, conn)
		},
	}

	if conf.Limits.IPRateLimit.Enabled.Get(false) {
		opts.IPRateLimitPerSecond = float64(conf.Limits.IPRateLimit.PerSecond.Get(0))
		opts.IPRateLimitBurst = int(conf.Limits.IPRateLimit.Burst.Get(0))
	}

	layer, err = seclayer.NewSecureNetworkLayer(opts)
	if err != nil {
		return fmt.Errorf("cannot build secure network layer: %w", err)
	}

	if err := layer.Initialize(); err != nil {
		return fmt.Errorf("cannot initialize secure network layer: %w", err)
	}

	listener, err := utils.NewListener(conf.BindTo.Get(""))
	if err != nil {
		return fmt.Errorf("cannot build listener: %w", err)
	}

	go func() {
		if err := layer.Serve(listener); err != nil {
			log.Named("gateway").WarningError("gateway stopped serving", err)
		}
	}()

	log.Named("gateway").BindStr("bind-to", listener.Addr().String()).Info("gateway is listening")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	// Closing the listener unblocks Serve's accept loop so Shutdown's
	// wait can complete.
	listener.Close()
	layer.Shutdown()

	return nil
}

// serveClient is the session loop of an admitted connection: account
// each message, drop what the client's token bucket does not cover,
// echo the rest back as an acknowledgement.
func serveClient(ctx context.Context, layer *seclayer.SecureNetworkLayer, conn *seclayer.ClientConn) {
	buf := make([]byte, messageBufferSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := conn.Read(buf)
		if err != nil {
			return
		}

		if n == 0 {
			continue
		}

		if layer.IsClientRateLimited(conn.ClientID()) {
			continue
		}

		layer.RecordMessage(conn.ClientID(), n)

		if _, err := conn.Write(buf[:n]); err != nil {
			return
		}
	}
}

// makeEventStream assembles the observer set from the stats config and
// returns the stream plus a closer for the stats backends.
func makeEventStream(conf *config.Config, log logger.Logger) (events.EventStream, func(), error) {
	factories := []events.ObserverFactory{}
	closers := []func(){}

	if conf.Stats.Prometheus.Enabled.Get(false) {
		factory := stats.NewPrometheus(
			conf.Stats.Prometheus.MetricPrefix.Get(defaultMetricPrefix),
			conf.Stats.Prometheus.HTTPPath.Get(defaultHTTPPath))

		listener, err := net.Listen("tcp", conf.Stats.Prometheus.BindTo.Get(""))
		if err != nil {
			return events.EventStream{}, nil, fmt.Errorf("cannot build prometheus listener: %w", err)
		}

		go factory.Serve(listener) //nolint: errcheck

		factories = append(factories, factory.Make)
		closers = append(closers, func() {
			factory.Close()
			listener.Close()
		})
	}

	if conf.Stats.StatsD.Enabled.Get(false) {
		factory, err := stats.NewStatsd(
			conf.Stats.StatsD.Address.Get(""),
			log.Named("statsd"),
			conf.Stats.StatsD.MetricPrefix.Get(defaultMetricPrefix),
			conf.Stats.StatsD.TagFormat.Get("datadog"))
		if err != nil {
			return events.EventStream{}, nil, fmt.Errorf("cannot build statsd client: %w", err)
		}

		factories = append(factories, factory.Make)
		closers = append(closers, func() {
			factory.Close() //nolint: errcheck
		})
	}

	closeAll := func() {
		for _, closer := range closers {
			closer()
		}
	}

	return events.NewEventStream(factories), closeAll, nil
}
