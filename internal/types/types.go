// Package types provides shared types for the tiercache library.
// This package breaks import cycles between pkg/tiercache and internal/cache.
package types

import "time"

// Tier identifies one storage level in the cache hierarchy.
type Tier int

const (
	// TierLocal is the in-process tier.
	TierLocal Tier = iota + 1
	// TierRemote is the shared tier reachable over the network.
	TierRemote
	// TierAll targets both tiers.
	TierAll
)

func (t Tier) String() string {
	switch t {
	case TierLocal:
		return "local"
	case TierRemote:
		return "remote"
	case TierAll:
		return "all"
	default:
		return "unknown"
	}
}

// Priority is the eviction priority class of a local cache entry.
type Priority int

const (
	PriorityLow Priority = iota + 1
	PriorityNormal
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	default:
		return "unknown"
	}
}

// CacheOptions contains per-operation options.
type CacheOptions struct {
	TTL      time.Duration
	Priority Priority
}

// DefaultOptions returns a default CacheOptions configuration.
func DefaultOptions() *CacheOptions {
	return &CacheOptions{
		TTL: 5 * time.Minute,
	}
}

// CacheEntry represents a cached value with its metadata.
type CacheEntry struct {
	Key       string
	Value     []byte
	TTL       time.Duration
	Priority  Priority
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the entry's expiry has passed.
func (e *CacheEntry) IsExpired() bool {
	if e.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(e.ExpiresAt)
}

// TierStatistics contains the monotonic counters for a single tier.
type TierStatistics struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
	Errors int64 `json:"errors"`
}

// HitRatio computes the hit ratio for the tier. Never stored, always
// derived on read.
func (s TierStatistics) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CacheStatistics is a point-in-time snapshot of per-tier and overall counters.
type CacheStatistics struct {
	Timestamp time.Time      `json:"timestamp"`
	Local     TierStatistics `json:"local"`
	Remote    TierStatistics `json:"remote"`
	Overall   TierStatistics `json:"overall"`
}

// TotalHits returns the hit count summed across tiers.
func (s *CacheStatistics) TotalHits() int64 { return s.Overall.Hits }

// TotalMisses returns the miss count summed across tiers.
func (s *CacheStatistics) TotalMisses() int64 { return s.Overall.Misses }

// LocalCacheStats contains counters maintained by the local tier itself.
// Readmissions counts high-priority entries written back after a space
// eviction pushed them out.
type LocalCacheStats struct {
	Hits         int64
	Misses       int64
	Sets         int64
	Deletes      int64
	Evictions    int64
	Readmissions int64
}

// WarmupEntry is a single key/value pair to pre-populate.
type WarmupEntry struct {
	Key   string
	Value any
	TTL   time.Duration
}

// WarmupRequest describes a batch of entries to pre-populate ahead of demand.
type WarmupRequest struct {
	Entries []WarmupEntry
}
