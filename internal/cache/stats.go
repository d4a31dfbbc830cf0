package cache

import (
	"sync/atomic"
	"time"

	"github.com/tradedesk/tiercache/internal/types"
)

// tierCounters holds the lock-free monotonic counters for one tier.
type tierCounters struct {
	hits   atomic.Int64
	misses atomic.Int64
	sets   atomic.Int64
	errors atomic.Int64
}

func (c *tierCounters) snapshot() types.TierStatistics {
	return types.TierStatistics{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Sets:   c.sets.Load(),
		Errors: c.errors.Load(),
	}
}

// Collector accumulates per-tier statistics from the hot path without
// locking. Hit ratios are derived on read, never stored.
type Collector struct {
	local  tierCounters
	remote tierCounters
}

// NewCollector creates an empty statistics collector.
func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) counters(tier types.Tier) *tierCounters {
	if tier == types.TierRemote {
		return &c.remote
	}
	return &c.local
}

// Hit records a hit on the given tier.
func (c *Collector) Hit(tier types.Tier) { c.counters(tier).hits.Add(1) }

// Miss records a miss on the given tier.
func (c *Collector) Miss(tier types.Tier) { c.counters(tier).misses.Add(1) }

// Set records a write on the given tier.
func (c *Collector) Set(tier types.Tier) { c.counters(tier).sets.Add(1) }

// Error records an internal fault on the given tier.
func (c *Collector) Error(tier types.Tier) { c.counters(tier).errors.Add(1) }

// Snapshot returns the current statistics. Overall is the sum across tiers.
func (c *Collector) Snapshot() *types.CacheStatistics {
	local := c.local.snapshot()
	remote := c.remote.snapshot()

	return &types.CacheStatistics{
		Timestamp: time.Now(),
		Local:     local,
		Remote:    remote,
		Overall: types.TierStatistics{
			Hits:   local.Hits + remote.Hits,
			Misses: local.Misses + remote.Misses,
			Sets:   local.Sets + remote.Sets,
			Errors: local.Errors + remote.Errors,
		},
	}
}
