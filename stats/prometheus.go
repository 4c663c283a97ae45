package stats

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/perimetr/gatekeeper/events"
	"github.com/perimetr/gatekeeper/seclayer"
)

type prometheusProcessor struct {
	streams map[string]*streamInfo
	factory *PrometheusFactory
}

func (p prometheusProcessor) EventStart(evt seclayer.EventStart) {
	info := acquireStreamInfo()
	info.startTime = time.Now()

	if evt.RemoteIP.To4() != nil {
		info.tags[TagIPFamily] = TagIPFamilyIPv4
	} else {
		info.tags[TagIPFamily] = TagIPFamilyIPv6
	}

	p.streams[evt.StreamID()] = info

	p.factory.metricClientConnections.
		WithLabelValues(info.tags[TagIPFamily]).
		Inc()
}

func (p prometheusProcessor) EventFinish(evt seclayer.EventFinish) {
	info, ok := p.streams[evt.StreamID()]
	if !ok {
		return
	}

	defer func() {
		delete(p.streams, evt.StreamID())
		releaseStreamInfo(info)
	}()

	if !info.startTime.IsZero() {
		p.factory.metricSessionDuration.Observe(time.Since(info.startTime).Seconds())
	}

	p.factory.metricClientConnections.
		WithLabelValues(info.tags[TagIPFamily]).
		Dec()
}

func (p prometheusProcessor) EventTraffic(evt seclayer.EventTraffic) {
	p.factory.metricTraffic.
		WithLabelValues(getDirection(evt.IsRead)).
		Add(float64(evt.Traffic))
}

func (p prometheusProcessor) EventIPBlocked(_ seclayer.EventIPBlocked) {
	p.factory.metricIPBlocked.Inc()
}

func (p prometheusProcessor) EventAuthFailure(evt seclayer.EventAuthFailure) {
	p.factory.metricAuthFailures.WithLabelValues(evt.Reason).Inc()
}

func (p prometheusProcessor) EventRateLimited(_ seclayer.EventRateLimited) {
	p.factory.metricRateLimited.Inc()
}

func (p prometheusProcessor) EventAnomaly(_ seclayer.EventAnomaly) {
	p.factory.metricAnomalies.Inc()
}

func (p prometheusProcessor) EventReplayAttack(_ seclayer.EventReplayAttack) {
	p.factory.metricReplayAttacks.Inc()
}

func (p prometheusProcessor) EventBroadcast(evt seclayer.EventBroadcast) {
	p.factory.metricBroadcasts.Inc()
	p.factory.metricBroadcastBytes.Add(float64(evt.Size))
}

func (p prometheusProcessor) EventConcurrencyLimited(_ seclayer.EventConcurrencyLimited) {
	p.factory.metricConcurrencyLimited.Inc()
}

func (p prometheusProcessor) Shutdown() {
	for k, v := range p.streams {
		releaseStreamInfo(v)
		delete(p.streams, k)
	}
}

// PrometheusFactory is a factory of [events.Observer] which collect
// information in a format suitable for Prometheus.
//
// This factory can also serve on a given listener. In that case it
// starts HTTP server with a single endpoint - a Prometheus-compatible
// scrape output.
type PrometheusFactory struct {
	httpServer *http.Server

	metricClientConnections *prometheus.GaugeVec

	metricTraffic      *prometheus.CounterVec
	metricAuthFailures *prometheus.CounterVec

	metricIPBlocked          prometheus.Counter
	metricRateLimited        prometheus.Counter
	metricAnomalies          prometheus.Counter
	metricReplayAttacks      prometheus.Counter
	metricBroadcasts         prometheus.Counter
	metricBroadcastBytes     prometheus.Counter
	metricConcurrencyLimited prometheus.Counter

	metricSessionDuration prometheus.Histogram
}

// Make builds a new observer.
func (p *PrometheusFactory) Make() events.Observer {
	return prometheusProcessor{
		streams: make(map[string]*streamInfo),
		factory: p,
	}
}

// Serve starts an HTTP server on a given listener.
func (p *PrometheusFactory) Serve(listener net.Listener) error {
	return p.httpServer.Serve(listener) //nolint: wrapcheck
}

// Close stops a factory. Please pay attention that underlying listener
// is not closed.
func (p *PrometheusFactory) Close() error {
	return p.httpServer.Shutdown(context.Background()) //nolint: wrapcheck
}

// NewPrometheus builds an events.ObserverFactory which can serve HTTP
// endpoint with Prometheus scrape data.
func NewPrometheus(metricPrefix, httpPath string) *PrometheusFactory {
	registry := prometheus.NewPedanticRegistry()
	httpHandler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
	mux := http.NewServeMux()

	mux.Handle(httpPath, httpHandler)

	factory := &PrometheusFactory{
		httpServer: &http.Server{
			Handler: mux,
		},

		metricClientConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricPrefix,
			Name:      MetricClientConnections,
			Help:      "A number of actively processing client connections.",
		}, []string{TagIPFamily}),

		metricTraffic: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricTraffic,
			Help:      "Bytes transmitted on admitted client connections.",
		}, []string{TagDirection}),
		metricAuthFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricAuthFailures,
			Help:      "A number of failed authentication attempts.",
		}, []string{TagReason}),

		metricIPBlocked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricIPBlocked,
			Help:      "A number of connections rejected due to ip blocking.",
		}),
		metricRateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricRateLimited,
			Help:      "A number of connections rejected by the admission rate limiter.",
		}),
		metricAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricAnomalies,
			Help:      "A number of detected traffic anomalies.",
		}),
		metricReplayAttacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricReplayAttacks,
			Help:      "A number of detected replay attacks.",
		}),
		metricBroadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricBroadcasts,
			Help:      "A number of signed market data frames sent to the multicast group.",
		}),
		metricBroadcastBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricBroadcastBytes,
			Help:      "Payload bytes sent to the multicast group.",
		}),
		metricConcurrencyLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricPrefix,
			Name:      MetricConcurrencyLimited,
			Help:      "A number of sessions that were rejected by concurrency limiter.",
		}),

		metricSessionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricPrefix,
			Name:      MetricSessionDuration,
			Help:      "Duration of admitted client sessions in seconds.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 3600},
		}),
	}

	registry.MustRegister(factory.metricClientConnections)

	registry.MustRegister(factory.metricTraffic)
	registry.MustRegister(factory.metricAuthFailures)

	registry.MustRegister(factory.metricIPBlocked)
	registry.MustRegister(factory.metricRateLimited)
	registry.MustRegister(factory.metricAnomalies)
	registry.MustRegister(factory.metricReplayAttacks)
	registry.MustRegister(factory.metricBroadcasts)
	registry.MustRegister(factory.metricBroadcastBytes)
	registry.MustRegister(factory.metricConcurrencyLimited)

	registry.MustRegister(factory.metricSessionDuration)

	return factory
}
