package cache

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/tradedesk/tiercache/internal/config"
	"github.com/tradedesk/tiercache/internal/types"
)

func newTestLocalCache(t *testing.T) *LocalCache {
	t.Helper()
	c, err := NewLocalCache(config.ForTesting().Local, slog.Default())
	if err != nil {
		t.Fatalf("Failed to create local cache: %v", err)
	}
	return c
}

// TestLocalCacheGetSet tests basic storage operations.
func TestLocalCacheGetSet(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		c := newTestLocalCache(t)
		defer c.Close()

		if err := c.Set(ctx, "k", []byte("v"), types.DefaultOptions()); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		data, err := c.Get(ctx, "k")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(data) != "v" {
			t.Errorf("Expected 'v', got '%s'", data)
		}
	})

	t.Run("miss for absent key", func(t *testing.T) {
		c := newTestLocalCache(t)
		defer c.Close()

		if _, err := c.Get(ctx, "absent"); !types.IsCacheMiss(err) {
			t.Errorf("Expected cache miss, got: %v", err)
		}
	})

	t.Run("per-entry TTL expires independently", func(t *testing.T) {
		c := newTestLocalCache(t)
		defer c.Close()

		short := &types.CacheOptions{TTL: 30 * time.Millisecond}
		long := &types.CacheOptions{TTL: time.Minute}
		_ = c.Set(ctx, "short", []byte("a"), short)
		_ = c.Set(ctx, "long", []byte("b"), long)

		time.Sleep(60 * time.Millisecond)

		if _, err := c.Get(ctx, "short"); !types.IsCacheMiss(err) {
			t.Errorf("Expected short key expired, got: %v", err)
		}
		if _, err := c.Get(ctx, "long"); err != nil {
			t.Errorf("Expected long key alive, got: %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		c := newTestLocalCache(t)
		defer c.Close()

		_ = c.Set(ctx, "k", []byte("v"), types.DefaultOptions())
		if err := c.Delete(ctx, "k"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := c.Get(ctx, "k"); !types.IsCacheMiss(err) {
			t.Errorf("Expected miss after delete, got: %v", err)
		}
	})

	t.Run("contains respects expiry", func(t *testing.T) {
		c := newTestLocalCache(t)
		defer c.Close()

		_ = c.Set(ctx, "gone", []byte("v"), &types.CacheOptions{TTL: 20 * time.Millisecond})
		exists, err := c.Contains(ctx, "gone")
		if err != nil || !exists {
			t.Errorf("Expected exists=true before expiry, got %v (err %v)", exists, err)
		}

		time.Sleep(40 * time.Millisecond)
		exists, err = c.Contains(ctx, "gone")
		if err != nil || exists {
			t.Errorf("Expected exists=false after expiry, got %v (err %v)", exists, err)
		}
	})
}

// TestLocalCacheClear tests Clear and ClearByPattern.
func TestLocalCacheClear(t *testing.T) {
	ctx := context.Background()

	t.Run("clear removes everything", func(t *testing.T) {
		c := newTestLocalCache(t)
		defer c.Close()

		_ = c.Set(ctx, "a", []byte("1"), types.DefaultOptions())
		_ = c.Set(ctx, "b", []byte("2"), types.DefaultOptions())

		if err := c.Clear(ctx); err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if got := c.EntryCount(); got != 0 {
			t.Errorf("Expected 0 entries, got %d", got)
		}
	})

	t.Run("pattern clear removes matches only", func(t *testing.T) {
		c := newTestLocalCache(t)
		defer c.Close()

		_ = c.Set(ctx, "order:1", []byte("a"), types.DefaultOptions())
		_ = c.Set(ctx, "order:2", []byte("b"), types.DefaultOptions())
		_ = c.Set(ctx, "trade:1", []byte("c"), types.DefaultOptions())

		if err := c.ClearByPattern(ctx, "order:*"); err != nil {
			t.Fatalf("ClearByPattern failed: %v", err)
		}

		if _, err := c.Get(ctx, "order:1"); !types.IsCacheMiss(err) {
			t.Errorf("Expected order:1 removed, got: %v", err)
		}
		if _, err := c.Get(ctx, "trade:1"); err != nil {
			t.Errorf("Expected trade:1 to survive, got: %v", err)
		}
	})
}

// TestLocalCacheStats tests size and usage reporting.
func TestLocalCacheStats(t *testing.T) {
	ctx := context.Background()

	c := newTestLocalCache(t)
	defer c.Close()

	_ = c.Set(ctx, "k", []byte("value"), types.DefaultOptions())

	if got := c.EntryCount(); got != 1 {
		t.Errorf("Expected 1 entry, got %d", got)
	}
	if c.MaxSize() <= 0 {
		t.Error("Expected positive max size")
	}
	if pct := c.UsagePercentage(); pct < 0 {
		t.Errorf("Expected non-negative usage, got %f", pct)
	}

	stats := c.Stats()
	if stats.Sets != 1 {
		t.Errorf("Expected 1 recorded set, got %d", stats.Sets)
	}
}

// TestLocalCachePriorityEviction tests that under space pressure a
// high-priority entry outlives the low-priority flood that evicts it.
func TestLocalCachePriorityEviction(t *testing.T) {
	ctx := context.Background()

	cfg := config.ForTesting().Local
	cfg.MaxSizeMB = 1
	cfg.Shards = 2
	cfg.MaxEntrySize = 8 * 1024

	c, err := NewLocalCache(cfg, slog.Default())
	if err != nil {
		t.Fatalf("Failed to create local cache: %v", err)
	}
	defer c.Close()

	high := &types.CacheOptions{TTL: time.Minute, Priority: types.PriorityHigh}
	low := &types.CacheOptions{TTL: time.Minute, Priority: types.PriorityLow}
	payload := make([]byte, 4*1024)

	if err := c.Set(ctx, "position:keep", payload, high); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := c.Set(ctx, "tick:0", payload, low); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// write several times the 1MB cap so every shard sheds its oldest entries
	for i := 1; i < 600; i++ {
		_ = c.Set(ctx, fmt.Sprintf("tick:%d", i), payload, low)
	}

	// re-admission runs on a separate goroutine
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := c.Get(ctx, "position:keep"); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("High-priority entry did not survive eviction pressure")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, err := c.Get(ctx, "tick:0"); !types.IsCacheMiss(err) {
		t.Errorf("Expected oldest low-priority entry evicted, got: %v", err)
	}

	stats := c.Stats()
	if stats.Evictions == 0 {
		t.Error("Expected evictions under space pressure")
	}
	if stats.Readmissions == 0 {
		t.Error("Expected the high-priority entry to be re-admitted")
	}
}

// TestEnvelope tests the TTL envelope encoding.
func TestEnvelope(t *testing.T) {
	t.Run("round trip preserves payload and priority", func(t *testing.T) {
		payload := []byte("payload")
		encoded := encodeEnvelope(payload, time.Minute, types.PriorityHigh)

		decoded, priority, expired := decodeEnvelope(encoded)
		if expired {
			t.Error("Expected entry not expired")
		}
		if priority != types.PriorityHigh {
			t.Errorf("Expected high priority, got %v", priority)
		}
		if string(decoded) != "payload" {
			t.Errorf("Expected 'payload', got '%s'", decoded)
		}
	})

	t.Run("expired envelope is detected", func(t *testing.T) {
		encoded := encodeEnvelope([]byte("old"), -time.Second, types.PriorityLow)
		_, _, expired := decodeEnvelope(encoded)
		if !expired {
			t.Error("Expected entry to be expired")
		}
	})

	t.Run("truncated data reads as expired", func(t *testing.T) {
		_, _, expired := decodeEnvelope([]byte{0x01, 0x02})
		if !expired {
			t.Error("Expected truncated entry to read as expired")
		}
	})
}

// TestMatchPattern tests the glob-lite matcher.
func TestMatchPattern(t *testing.T) {
	cases := []struct {
		key     string
		pattern string
		want    bool
	}{
		{"order:1", "order:*", true},
		{"order:1", "trade:*", false},
		{"order:1", "order:1", true},
		{"order:12", "order:1", false},
		{"anything", "*", true},
		{"report.csv", "*.csv", true},
		{"report.txt", "*.csv", false},
		{"price:BRN:spot", "price:*:spot", true},
		{"price:BRN:close", "price:*:spot", false},
	}

	for _, tc := range cases {
		if got := matchPattern(tc.key, tc.pattern); got != tc.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tc.key, tc.pattern, got, tc.want)
		}
	}
}
