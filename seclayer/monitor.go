package seclayer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Anomaly thresholds. A client exceeding either rate is flagged.
const (
	maxMessagesPerMinute uint64 = 10000
	maxBytesPerMinute    uint64 = 1 << 20

	// maxAuthFailuresPerIP is how many failed authentications an
	// address gets before it is blocked.
	maxAuthFailuresPerIP uint32 = 5
)

type clientMetrics struct {
	messageCount uint64
	totalBytes   uint64
	firstSeen    time.Time
	lastActivity time.Time
}

type ipMetrics struct {
	connectionCount uint32
	authFailures    uint32
	firstSeen       time.Time
	lastFailure     time.Time
}

// StatsSnapshot is a point-in-time copy of the process-wide security
// counters.
type StatsSnapshot struct {
	TotalConnections   uint64
	BlockedConnections uint64
	AuthFailures       uint64
	AnomaliesDetected  uint64
}

// SecurityMonitor accounts traffic per client id and per source
// address and decides when an address must be blocked or a client's
// pattern flagged as anomalous. Metric maps are guarded by one mutex;
// the aggregate counters are lock-free.
type SecurityMonitor struct {
	maxConnectionsPerIP uint32
	clock               clock.Clock
	logger              Logger

	mutex   sync.Mutex
	clients map[string]*clientMetrics
	ips     map[string]*ipMetrics

	totalConnections   atomic.Uint64
	blockedConnections atomic.Uint64
	authFailures       atomic.Uint64
	anomaliesDetected  atomic.Uint64
}

// NewSecurityMonitor makes a monitor blocking addresses above
// maxConnectionsPerIP concurrent-connection count. A nil clk uses the
// wall clock.
func NewSecurityMonitor(maxConnectionsPerIP uint32, logger Logger, clk clock.Clock) *SecurityMonitor {
	if clk == nil {
		clk = clock.New()
	}

	return &SecurityMonitor{
		maxConnectionsPerIP: maxConnectionsPerIP,
		clock:               clk,
		logger:              logger.Named("monitor"),
		clients:             make(map[string]*clientMetrics),
		ips:                 make(map[string]*ipMetrics),
	}
}

// RecordConnection accounts a new connection from the address.
func (m *SecurityMonitor) RecordConnection(ip string) {
	m.mutex.Lock()

	metrics, ok := m.ips[ip]
	if !ok {
		metrics = &ipMetrics{firstSeen: m.clock.Now()}
		m.ips[ip] = metrics
	}
	metrics.connectionCount++

	m.mutex.Unlock()

	m.totalConnections.Add(1)
}

// RecordMessage accounts an application message for the client.
func (m *SecurityMonitor) RecordMessage(clientID string, size int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	now := m.clock.Now()

	metrics, ok := m.clients[clientID]
	if !ok {
		metrics = &clientMetrics{firstSeen: now}
		m.clients[clientID] = metrics
	}

	metrics.messageCount++
	metrics.totalBytes += uint64(size)
	metrics.lastActivity = now
}

// RecordAuthFailure accounts a failed authentication from the address.
func (m *SecurityMonitor) RecordAuthFailure(ip string) {
	m.mutex.Lock()

	metrics, ok := m.ips[ip]
	if !ok {
		metrics = &ipMetrics{firstSeen: m.clock.Now()}
		m.ips[ip] = metrics
	}
	metrics.authFailures++
	metrics.lastFailure = m.clock.Now()

	m.mutex.Unlock()

	m.authFailures.Add(1)
}

// DetectAnomalousTraffic flags the client if its message or byte rate
// since first sight exceeds the thresholds. The observation window is
// clamped to one minute so a burst inside the first minute of a
// client's life is caught rather than divided away.
func (m *SecurityMonitor) DetectAnomalousTraffic(clientID string) bool {
	m.mutex.Lock()

	metrics, ok := m.clients[clientID]
	if !ok {
		m.mutex.Unlock()

		return false
	}

	minutes := uint64(m.clock.Now().Sub(metrics.firstSeen) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	messagesPerMinute := metrics.messageCount / minutes
	bytesPerMinute := metrics.totalBytes / minutes

	m.mutex.Unlock()

	if messagesPerMinute <= maxMessagesPerMinute && bytesPerMinute <= maxBytesPerMinute {
		return false
	}

	m.anomaliesDetected.Add(1)
	m.logger.
		BindStr("alert", "TRAFFIC_ANOMALY").
		BindStr("client-id", clientID).
		Warning("anomalous traffic pattern detected")

	return true
}

// ShouldBlockConnection reports whether the address has exceeded its
// connection or authentication-failure caps. A positive answer bumps
// the blocked-connection counter every time, so the check itself is
// not idempotent with respect to the stats.
func (m *SecurityMonitor) ShouldBlockConnection(ip string) bool {
	m.mutex.Lock()

	metrics, ok := m.ips[ip]
	if !ok {
		m.mutex.Unlock()

		return false
	}

	blocked := metrics.connectionCount > m.maxConnectionsPerIP ||
		metrics.authFailures > maxAuthFailuresPerIP

	m.mutex.Unlock()

	if blocked {
		m.blockedConnections.Add(1)
	}

	return blocked
}

// Stats returns a snapshot of the aggregate counters.
func (m *SecurityMonitor) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalConnections:   m.totalConnections.Load(),
		BlockedConnections: m.blockedConnections.Load(),
		AuthFailures:       m.authFailures.Load(),
		AnomaliesDetected:  m.anomaliesDetected.Load(),
	}
}
