package stats

import (
	"fmt"
	"strings"
	"time"

	statsd "github.com/smira/go-statsd"

	"github.com/perimetr/gatekeeper/events"
	"github.com/perimetr/gatekeeper/seclayer"
)

type statsdProcessor struct {
	streams map[string]*streamInfo
	client  *statsd.Client
}

func (s statsdProcessor) EventStart(evt seclayer.EventStart) {
	info := acquireStreamInfo()
	info.startTime = time.Now()

	if evt.RemoteIP.To4() != nil {
		info.tags[TagIPFamily] = TagIPFamilyIPv4
	} else {
		info.tags[TagIPFamily] = TagIPFamilyIPv6
	}

	s.streams[evt.StreamID()] = info

	s.client.GaugeDelta(MetricClientConnections, 1, info.T(TagIPFamily))
}

func (s statsdProcessor) EventFinish(evt seclayer.EventFinish) {
	info, ok := s.streams[evt.StreamID()]
	if !ok {
		return
	}

	defer func() {
		delete(s.streams, evt.StreamID())
		releaseStreamInfo(info)
	}()

	if !info.startTime.IsZero() {
		s.client.PrecisionTiming(MetricSessionDuration, time.Since(info.startTime))
	}

	s.client.GaugeDelta(MetricClientConnections, -1, info.T(TagIPFamily))
}

func (s statsdProcessor) EventTraffic(evt seclayer.EventTraffic) {
	s.client.Incr(MetricTraffic,
		int64(evt.Traffic),
		statsd.StringTag(TagDirection, getDirection(evt.IsRead)))
}

func (s statsdProcessor) EventIPBlocked(_ seclayer.EventIPBlocked) {
	s.client.Incr(MetricIPBlocked, 1)
}

func (s statsdProcessor) EventAuthFailure(evt seclayer.EventAuthFailure) {
	s.client.Incr(MetricAuthFailures, 1, statsd.StringTag(TagReason, evt.Reason))
}

func (s statsdProcessor) EventRateLimited(_ seclayer.EventRateLimited) {
	s.client.Incr(MetricRateLimited, 1)
}

func (s statsdProcessor) EventAnomaly(_ seclayer.EventAnomaly) {
	s.client.Incr(MetricAnomalies, 1)
}

func (s statsdProcessor) EventReplayAttack(_ seclayer.EventReplayAttack) {
	s.client.Incr(MetricReplayAttacks, 1)
}

func (s statsdProcessor) EventBroadcast(evt seclayer.EventBroadcast) {
	s.client.Incr(MetricBroadcasts, 1)
	s.client.Incr(MetricBroadcastBytes, int64(evt.Size))
}

func (s statsdProcessor) EventConcurrencyLimited(_ seclayer.EventConcurrencyLimited) {
	s.client.Incr(MetricConcurrencyLimited, 1)
}

func (s statsdProcessor) Shutdown() {
	for k, v := range s.streams {
		releaseStreamInfo(v)
		delete(s.streams, k)
	}
}

// StatsdFactory is a factory of [events.Observer] which ships metrics
// to a statsd daemon.
type StatsdFactory struct {
	client *statsd.Client
}

// Close stops the underlying statsd client, flushing pending metrics.
func (s StatsdFactory) Close() error {
	return s.client.Close() //nolint: wrapcheck
}

// Make builds a new observer.
func (s StatsdFactory) Make() events.Observer {
	return statsdProcessor{
		streams: make(map[string]*streamInfo),
		client:  s.client,
	}
}

// NewStatsd builds a statsd observer factory. tagFormat selects how
// tags are rendered on the wire: datadog, influxdb or graphite.
func NewStatsd(address string, log statsd.SomeLogger, metricPrefix, tagFormat string) (StatsdFactory, error) {
	options := []statsd.Option{
		statsd.MetricPrefix(metricPrefix + "."),
		statsd.Logger(log),
	}

	switch strings.ToLower(tagFormat) {
	case "datadog":
		options = append(options, statsd.TagStyle(statsd.TagFormatDatadog))
	case "influxdb":
		options = append(options, statsd.TagStyle(statsd.TagFormatInfluxDB))
	case "graphite":
		options = append(options, statsd.TagStyle(statsd.TagFormatGraphite))
	default:
		return StatsdFactory{}, fmt.Errorf("unknown tag format %s", tagFormat)
	}

	return StatsdFactory{
		client: statsd.NewClient(address, options...),
	}, nil
}
