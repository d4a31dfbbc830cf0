package types

import "time"

// HealthStatus represents the overall health state.
type HealthStatus int

const (
	// HealthStatusHealthy indicates all tiers operating normally.
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded indicates partial functionality (e.g., remote tier down).
	HealthStatusDegraded
	// HealthStatusUnhealthy indicates critical failure.
	HealthStatusUnhealthy
)

// String returns the string representation of health status.
func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// TierHealth contains the probe result for a single tier.
type TierHealth struct {
	Name    string   `json:"name"`
	Healthy bool     `json:"healthy"`
	Issues  []string `json:"issues,omitempty"`
}

// HealthReport contains overall cache health information. Healthy is the
// logical AND of all tier probes.
type HealthReport struct {
	Timestamp time.Time    `json:"timestamp"`
	Healthy   bool         `json:"healthy"`
	Status    HealthStatus `json:"status"`
	Local     TierHealth   `json:"local"`
	Remote    TierHealth   `json:"remote"`
}

// MetricsSnapshot contains a point-in-time view of cache metrics.
type MetricsSnapshot struct {
	Timestamp time.Time
	// Hit/miss counters
	LocalHits    int64
	LocalMisses  int64
	RemoteHits   int64
	RemoteMisses int64
	// Operation counters
	GetCount    int64
	SetCount    int64
	DeleteCount int64
	ErrorCount  int64
	LockWaits   int64

	// Latency metrics (milliseconds)
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64

	// Local tier gauges
	LocalSizeBytes  int64
	LocalEntries    int64
	LocalEvictions  int64
	LocalMaxBytes   int64
	LocalUsageRatio float64

	// Remote tier gauges
	RemoteConnected     bool
	CircuitBreakerState string
}

// LocalHitRatio calculates the local tier hit ratio.
func (s *MetricsSnapshot) LocalHitRatio() float64 {
	total := s.LocalHits + s.LocalMisses
	if total == 0 {
		return 0
	}
	return float64(s.LocalHits) / float64(total)
}

// RemoteHitRatio calculates the remote tier hit ratio.
func (s *MetricsSnapshot) RemoteHitRatio() float64 {
	total := s.RemoteHits + s.RemoteMisses
	if total == 0 {
		return 0
	}
	return float64(s.RemoteHits) / float64(total)
}

// TotalHitRatio calculates the overall cache hit ratio.
func (s *MetricsSnapshot) TotalHitRatio() float64 {
	totalHits := s.LocalHits + s.RemoteHits
	totalMisses := s.LocalMisses + s.RemoteMisses
	total := totalHits + totalMisses
	if total == 0 {
		return 0
	}
	return float64(totalHits) / float64(total)
}
