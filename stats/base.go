// stats has a set of observer factories for the event stream:
// Prometheus and statsd backends which translate security events into
// metrics.
package stats

const (
	// MetricClientConnections is a gauge of live admitted connections.
	MetricClientConnections = "client_connections"

	// MetricTraffic is a counter of bytes moved on admitted
	// connections.
	MetricTraffic = "traffic"

	// MetricIPBlocked counts connections rejected by the blocklist or
	// by the per-IP connection cap.
	MetricIPBlocked = "ip_blocked"

	// MetricAuthFailures counts failed authentication attempts.
	MetricAuthFailures = "auth_failures"

	// MetricRateLimited counts connections rejected by the per-IP
	// admission limiter.
	MetricRateLimited = "rate_limited"

	// MetricAnomalies counts flagged traffic patterns.
	MetricAnomalies = "traffic_anomalies"

	// MetricReplayAttacks counts rejected broadcast frames.
	MetricReplayAttacks = "replay_attacks"

	// MetricBroadcasts counts signed multicast frames sent out.
	MetricBroadcasts = "broadcasts"

	// MetricBroadcastBytes counts payload bytes sent via multicast.
	MetricBroadcastBytes = "broadcast_bytes"

	// MetricConcurrencyLimited counts connections declined by the
	// worker pool.
	MetricConcurrencyLimited = "concurrency_limited"

	// MetricSessionDuration is a histogram of admitted session
	// lifetimes in seconds.
	MetricSessionDuration = "session_duration_seconds"

	// TagIPFamily is a tag for the client address family.
	TagIPFamily = "ip_family"

	// TagIPFamilyIPv4 is a value of TagIPFamily for IPv4 clients.
	TagIPFamilyIPv4 = "ipv4"

	// TagIPFamilyIPv6 is a value of TagIPFamily for IPv6 clients.
	TagIPFamilyIPv6 = "ipv6"

	// TagDirection is a tag for the traffic direction.
	TagDirection = "direction"

	// TagDirectionFromClient marks bytes read from the client.
	TagDirectionFromClient = "from_client"

	// TagDirectionToClient marks bytes written to the client.
	TagDirectionToClient = "to_client"

	// TagReason is a tag for the authentication failure class.
	TagReason = "reason"
)

func getDirection(isRead bool) string {
	if isRead {
		return TagDirectionFromClient
	}

	return TagDirectionToClient
}
