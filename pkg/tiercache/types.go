package tiercache

import (
	"github.com/tradedesk/tiercache/internal/types"
)

type (
	// Tier identifies a cache tier for targeted operations.
	Tier = types.Tier
	// Priority specifies the eviction priority class of a cache entry.
	Priority = types.Priority
	// CacheEntry represents a cached value with metadata.
	CacheEntry = types.CacheEntry
	// CacheOptions contains options for cache operations.
	CacheOptions = types.CacheOptions
	// TierStatistics contains the counters for one tier.
	TierStatistics = types.TierStatistics
	// CacheStatistics is a point-in-time snapshot across tiers.
	CacheStatistics = types.CacheStatistics
	// LocalCacheStats contains statistics about the in-process tier.
	LocalCacheStats = types.LocalCacheStats
	// WarmupEntry is one key/value pair to pre-populate.
	WarmupEntry = types.WarmupEntry
	// WarmupRequest is a batch of entries to pre-populate.
	WarmupRequest = types.WarmupRequest
	// Serializer provides serialization and deserialization operations.
	Serializer = types.Serializer
	// MetricsRecorder provides operations for recording cache metrics.
	MetricsRecorder = types.MetricsRecorder
	// Publisher ships metrics to an external monitoring backend.
	Publisher = types.Publisher
	// PublisherHealthMetrics is the condensed health gauge set.
	PublisherHealthMetrics = types.PublisherHealthMetrics
	// Logger provides logging operations.
	Logger = types.Logger
)

const (
	// TierLocal is the in-process tier.
	TierLocal = types.TierLocal
	// TierRemote is the shared Redis tier.
	TierRemote = types.TierRemote
	// TierAll addresses both tiers.
	TierAll = types.TierAll
)

const (
	// PriorityLow indicates low priority entries that are evicted first.
	PriorityLow = types.PriorityLow
	// PriorityNormal indicates normal priority entries.
	PriorityNormal = types.PriorityNormal
	// PriorityHigh indicates high priority entries that are evicted last.
	PriorityHigh = types.PriorityHigh
)

// DefaultOptions returns a default CacheOptions configuration.
func DefaultOptions() *CacheOptions {
	return types.DefaultOptions()
}
