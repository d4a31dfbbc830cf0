package types

import "time"

// Publisher ships metrics to an external monitoring backend. The method set
// mirrors the statsd vocabulary so a DataDog client can back it directly.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text string, alertType string, tags ...string)
	PublishHealthMetrics(metrics *PublisherHealthMetrics)
	Close() error
}

// PublisherHealthMetrics is the condensed health gauge set published on a
// fixed interval.
type PublisherHealthMetrics struct {
	LocalUsedBytes       int64
	LocalLimitBytes      int64
	LocalUsagePercentage float64
	TotalEntries         int64
	HitRatio             float64
	AverageLatencyMs     float64
	RemoteConnected      bool
}
