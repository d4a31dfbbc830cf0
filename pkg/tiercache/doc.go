// Package tiercache provides a two-tier caching library for read-heavy
// services: a fast in-process tier backed by bigcache in front of a shared
// Redis tier.
//
// Reads cascade local-then-remote, and a remote hit is promoted into the
// local tier with a deliberately short TTL so local copies never drift far
// from the shared value. Writes land in the local tier synchronously and in
// the remote tier best-effort; a broken remote connection degrades the cache
// to local-only operation instead of failing callers.
//
// # Features
//
//   - Tiered reads: local tier first, remote tier on miss, with promotion
//   - Stampede protection: GetWithFallback collapses concurrent misses per
//     process via singleflight and across processes via a Redis lock
//   - Graceful degradation: remote outages are absorbed, never surfaced
//   - Resilience: circuit breaker and retry with exponential backoff around
//     every remote call
//   - Observability: per-tier statistics, health probes, and pluggable
//     metrics publishers (DataDog StatsD included)
//
// # Quick Start
//
// Create a local-only cache with default configuration:
//
//	c, err := tiercache.NewLocalOnly()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
// Or connect both tiers:
//
//	cfg := tiercache.Config()
//	cfg.Remote.Enabled = true
//	cfg.Remote.Address = "localhost:6379"
//	c, err := tiercache.NewFromConfig(cfg)
//
// # Cache Operations
//
// Basic set and get:
//
//	ctx := context.Background()
//	pos := Position{Contract: "BRN-2026-03", Lots: 40}
//
//	err := c.Set(ctx, "position:BRN-2026-03", pos)
//
//	var cached Position
//	err = c.Get(ctx, "position:BRN-2026-03", &cached)
//
// Cache-aside with stampede protection:
//
//	var result Position
//	err := c.GetWithFallback(ctx, "position:BRN-2026-03", &result,
//	    func(ctx context.Context) (any, error) {
//	        // runs at most once per key across the cluster while the
//	        // lock is held
//	        return loadPositionFromDB(ctx, "BRN-2026-03")
//	    })
//
// # Options
//
// Use functional options to customize behavior per operation:
//
//	c.Set(ctx, "key", value, tiercache.WithTTL(5*time.Minute))
//	c.Set(ctx, "key", value, tiercache.WithPriority(tiercache.PriorityHigh))
//
// When no priority is given, one is derived from the key: contract and
// position keys are high priority, price and market keys normal, everything
// else low.
//
// # Health and Statistics
//
//	report, _ := c.Health(ctx)
//	if report.Status == tiercache.HealthStatusDegraded {
//	    // remote tier is down, local tier still serving
//	}
//
//	stats := c.Statistics()
//	fmt.Printf("local hit ratio: %.2f\n", stats.Local.HitRatio())
//
// # Configuration
//
// Load configuration from a JSON file with environment overrides:
//
//	c, err := tiercache.NewFromFile("config.json")
//
// For testing, use the test configuration:
//
//	cfg := tiercache.TestConfig()
//
// # Thread Safety
//
// All operations are safe for concurrent use from multiple goroutines.
package tiercache
