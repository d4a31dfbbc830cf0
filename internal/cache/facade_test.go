package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tradedesk/tiercache/internal/config"
	"github.com/tradedesk/tiercache/internal/types"
)

// testConfig returns a minimal configuration for testing.
func testConfig() *config.Config {
	return config.ForTesting()
}

func newTestFacade(t *testing.T) *Facade {
	t.Helper()
	f, err := NewFacade(testConfig(), nil)
	if err != nil {
		t.Fatalf("Failed to create test facade: %v", err)
	}
	return f
}

// newTestFacadeWithRemote builds a local-only facade and splices in a fake
// remote tier so the cascade, promotion, and locking paths are exercised
// without a Redis server.
func newTestFacadeWithRemote(t *testing.T, remote types.RemoteTier) *Facade {
	t.Helper()
	f := newTestFacade(t)
	f.remote = remote
	f.guard = NewStampedeGuard(remote, f.config.Lock, f.logger)
	f.health = NewHealthMonitor(f.local, remote, true)
	return f
}

// TestNewFacade tests facade creation.
func TestNewFacade(t *testing.T) {
	t.Run("creates facade with defaults", func(t *testing.T) {
		f, err := NewFacade(testConfig(), nil)
		if err != nil {
			t.Fatalf("NewFacade failed: %v", err)
		}
		defer f.Close()

		if !f.IsLocalAvailable() {
			t.Error("Expected local tier to be available")
		}
		if f.IsRemoteAvailable() {
			t.Error("Expected remote tier to be disabled")
		}
	})

	t.Run("creates facade with custom serializer", func(t *testing.T) {
		customSerializer := &mockSerializer{}
		opts := &types.FacadeOptions{
			Serializer: customSerializer,
		}

		f, err := NewFacade(testConfig(), opts)
		if err != nil {
			t.Fatalf("NewFacade failed: %v", err)
		}
		defer f.Close()

		if f.serializer != customSerializer {
			t.Error("Expected custom serializer to be set")
		}
	})

	t.Run("disables remote tier via options", func(t *testing.T) {
		cfg := testConfig()
		cfg.Remote.Enabled = true // Enable first
		opts := &types.FacadeOptions{
			DisableRemote: true,
		}

		f, err := NewFacade(cfg, opts)
		if err != nil {
			t.Fatalf("NewFacade failed: %v", err)
		}
		defer f.Close()

		if f.IsRemoteAvailable() {
			t.Error("Expected remote tier to be disabled")
		}
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		cfg := testConfig()
		cfg.Local.Enabled = false
		cfg.Remote.Enabled = false

		if _, err := NewFacade(cfg, nil); err == nil {
			t.Error("Expected error for config with no tiers")
		}
	})
}

// TestFacadeGetSet tests the basic read/write contract.
func TestFacadeGetSet(t *testing.T) {
	ctx := context.Background()

	t.Run("returns cache miss for non-existent key", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		var result string
		err := f.Get(ctx, "nonexistent", &result)

		if !types.IsCacheMiss(err) {
			t.Errorf("Expected cache miss, got: %v", err)
		}
	})

	t.Run("retrieves previously set value", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		if err := f.Set(ctx, "key1", "value1"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var result string
		if err := f.Get(ctx, "key1", &result); err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if result != "value1" {
			t.Errorf("Expected 'value1', got '%s'", result)
		}
	})

	t.Run("retrieves complex types", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		type Position struct {
			Contract string  `json:"contract"`
			Lots     int     `json:"lots"`
			AvgPrice float64 `json:"avgPrice"`
		}

		original := Position{Contract: "BRN-2026-03", Lots: 40, AvgPrice: 78.25}
		if err := f.Set(ctx, "position:BRN-2026-03", original); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var result Position
		if err := f.Get(ctx, "position:BRN-2026-03", &result); err != nil {
			t.Fatalf("Get failed: %v", err)
		}

		if result != original {
			t.Errorf("Expected %+v, got %+v", original, result)
		}
	})

	t.Run("respects per-entry TTL", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		err := f.Set(ctx, "shortlived", "v", func(o *types.CacheOptions) {
			o.TTL = 30 * time.Millisecond
		})
		if err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		var result string
		if err := f.Get(ctx, "shortlived", &result); err != nil {
			t.Fatalf("Get before expiry failed: %v", err)
		}

		time.Sleep(60 * time.Millisecond)

		err = f.Get(ctx, "shortlived", &result)
		if !types.IsCacheMiss(err) {
			t.Errorf("Expected cache miss after TTL, got: %v", err)
		}
	})

	t.Run("overwrites existing value", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		_ = f.Set(ctx, "key1", "first")
		_ = f.Set(ctx, "key1", "second")

		var result string
		if err := f.Get(ctx, "key1", &result); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if result != "second" {
			t.Errorf("Expected 'second', got '%s'", result)
		}
	})

	t.Run("rejects invalid key", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		var result string
		if err := f.Get(ctx, "", &result); !errors.Is(err, types.ErrInvalidKey) {
			t.Errorf("Expected ErrInvalidKey for empty key, got: %v", err)
		}
		if err := f.Set(ctx, "lock:sneaky", "v"); !errors.Is(err, types.ErrInvalidKey) {
			t.Errorf("Expected ErrInvalidKey for reserved prefix, got: %v", err)
		}
	})

	t.Run("drops unserializable values without error", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		if err := f.Set(ctx, "bad", make(chan int)); err != nil {
			t.Errorf("Expected nil for unserializable value, got: %v", err)
		}

		var result string
		if err := f.Get(ctx, "bad", &result); !types.IsCacheMiss(err) {
			t.Errorf("Expected miss for dropped value, got: %v", err)
		}
	})

	t.Run("corrupt payload reads as miss", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		fullKey := f.codec.FullKey("corrupt")
		if err := f.local.Set(ctx, fullKey, []byte("{not json"), types.DefaultOptions()); err != nil {
			t.Fatalf("raw Set failed: %v", err)
		}

		var result map[string]string
		if err := f.Get(ctx, "corrupt", &result); !types.IsCacheMiss(err) {
			t.Errorf("Expected miss for corrupt payload, got: %v", err)
		}

		stats := f.Statistics()
		if stats.Local.Errors == 0 {
			t.Error("Expected corrupt payload to be counted as a tier error")
		}
	})
}

// TestFacadePromotion tests remote-to-local promotion on a remote hit.
func TestFacadePromotion(t *testing.T) {
	ctx := context.Background()

	t.Run("promotes remote hit into local tier", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		fullKey := f.codec.FullKey("warm")
		data, _ := f.serializer.Marshal("remote-value")
		remote.seed(fullKey, data)

		var result string
		if err := f.Get(ctx, "warm", &result); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if result != "remote-value" {
			t.Errorf("Expected 'remote-value', got '%s'", result)
		}

		// promotion runs in the background
		deadline := time.Now().Add(time.Second)
		for {
			if _, err := f.local.Get(ctx, fullKey); err == nil {
				break
			}
			if time.Now().After(deadline) {
				t.Fatal("Value was never promoted into the local tier")
			}
			time.Sleep(5 * time.Millisecond)
		}

		// subsequent reads must not touch the remote tier again
		before := remote.gets.Load()
		if err := f.Get(ctx, "warm", &result); err != nil {
			t.Fatalf("Get after promotion failed: %v", err)
		}
		if remote.gets.Load() != before {
			t.Error("Expected promoted read to be served locally")
		}

		stats := f.Statistics()
		if stats.Remote.Hits != 1 {
			t.Errorf("Expected 1 remote hit, got %d", stats.Remote.Hits)
		}
		if stats.Local.Hits != 1 {
			t.Errorf("Expected 1 local hit, got %d", stats.Local.Hits)
		}
	})

	t.Run("writes go to both tiers", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		if err := f.Set(ctx, "both", "v"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		fullKey := f.codec.FullKey("both")
		if !remote.has(fullKey) {
			t.Error("Expected value in remote tier")
		}
		if _, err := f.local.Get(ctx, fullKey); err != nil {
			t.Errorf("Expected value in local tier: %v", err)
		}
	})
}

// TestFacadeDegradedMode tests behavior while the remote tier is failing.
func TestFacadeDegradedMode(t *testing.T) {
	ctx := context.Background()

	t.Run("get treats remote faults as misses", func(t *testing.T) {
		remote := newFakeRemote()
		remote.setFailing(true)
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		var result string
		if err := f.Get(ctx, "anything", &result); !types.IsCacheMiss(err) {
			t.Errorf("Expected cache miss during remote outage, got: %v", err)
		}

		stats := f.Statistics()
		if stats.Remote.Errors == 0 {
			t.Error("Expected remote fault to be counted")
		}
	})

	t.Run("set succeeds on local tier alone", func(t *testing.T) {
		remote := newFakeRemote()
		remote.setFailing(true)
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		if err := f.Set(ctx, "k", "v"); err != nil {
			t.Fatalf("Set failed during remote outage: %v", err)
		}

		var result string
		if err := f.Get(ctx, "k", &result); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if result != "v" {
			t.Errorf("Expected 'v', got '%s'", result)
		}
	})

	t.Run("fallback still runs when lock acquisition fails", func(t *testing.T) {
		remote := newFakeRemote()
		remote.setFailing(true)
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		var calls atomic.Int64
		var result string
		err := f.GetWithFallback(ctx, "computed", &result, func(ctx context.Context) (any, error) {
			calls.Add(1)
			return "fresh", nil
		})
		if err != nil {
			t.Fatalf("GetWithFallback failed: %v", err)
		}
		if result != "fresh" {
			t.Errorf("Expected 'fresh', got '%s'", result)
		}
		if calls.Load() != 1 {
			t.Errorf("Expected exactly 1 fallback call, got %d", calls.Load())
		}
	})

	t.Run("health reports degraded with remote down", func(t *testing.T) {
		remote := newFakeRemote()
		remote.setFailing(true)
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		report, err := f.Health(ctx)
		if err != nil {
			t.Fatalf("Health failed: %v", err)
		}
		if report.Healthy {
			t.Error("Expected overall healthy=false with remote down")
		}
		if report.Status != types.HealthStatusDegraded {
			t.Errorf("Expected degraded status, got %v", report.Status)
		}
		if report.Remote.Healthy {
			t.Error("Expected remote tier to be reported unhealthy")
		}
		if !report.Local.Healthy {
			t.Error("Expected local tier to remain healthy")
		}
	})
}

// TestFacadeCircuitBreaker tests the cascade with the breaker enabled, which
// config.ForTesting() turns off everywhere else.
func TestFacadeCircuitBreaker(t *testing.T) {
	ctx := context.Background()

	newBreakerFacade := func(t *testing.T, remote types.RemoteTier) *Facade {
		t.Helper()
		cfg := testConfig()
		cfg.CircuitBreaker = config.CircuitBreakerConfig{
			Enabled:             true,
			FailureThreshold:    5,
			SuccessThreshold:    1,
			OpenDuration:        time.Minute,
			HalfOpenMaxRequests: 1,
		}
		f, err := NewFacade(cfg, nil)
		if err != nil {
			t.Fatalf("Failed to create facade: %v", err)
		}
		f.remote = remote
		f.guard = NewStampedeGuard(remote, f.config.Lock, f.logger)
		f.health = NewHealthMonitor(f.local, remote, true)
		return f
	}

	t.Run("consecutive misses keep the circuit closed", func(t *testing.T) {
		remote := newFakeRemote()
		f := newBreakerFacade(t, remote)
		defer f.Close()

		var result string
		for i := 0; i < 5; i++ {
			key := "absent:" + string(rune('a'+i))
			if err := f.Get(ctx, key, &result); !types.IsCacheMiss(err) {
				t.Fatalf("Expected cache miss for %q, got: %v", key, err)
			}
		}

		if f.policy.IsCircuitOpen() {
			t.Fatal("Expected circuit closed after plain misses")
		}

		// the remote must still be reachable
		fullKey := f.codec.FullKey("warm")
		data, _ := f.serializer.Marshal("still-here")
		remote.seed(fullKey, data)

		if err := f.Get(ctx, "warm", &result); err != nil {
			t.Fatalf("Get after misses failed: %v", err)
		}
		if result != "still-here" {
			t.Errorf("Expected 'still-here', got '%s'", result)
		}

		stats := f.Statistics()
		if stats.Remote.Misses != 5 {
			t.Errorf("Expected 5 remote misses, got %d", stats.Remote.Misses)
		}
		if stats.Remote.Errors != 0 {
			t.Errorf("Expected 0 remote errors, got %d", stats.Remote.Errors)
		}
	})

	t.Run("remote faults still open the circuit", func(t *testing.T) {
		remote := newFakeRemote()
		remote.setFailing(true)
		f := newBreakerFacade(t, remote)
		defer f.Close()

		var result string
		for i := 0; i < 5; i++ {
			_ = f.Get(ctx, "down", &result)
		}

		if !f.policy.IsCircuitOpen() {
			t.Fatal("Expected circuit open after consecutive remote faults")
		}

		// open circuit must fail fast without touching the remote
		before := remote.gets.Load()
		if err := f.Get(ctx, "down", &result); !types.IsCacheMiss(err) {
			t.Errorf("Expected cache miss while circuit open, got: %v", err)
		}
		if remote.gets.Load() != before {
			t.Error("Expected no remote call while circuit open")
		}
	})
}

// TestGetWithFallback tests the stampede-protected cache-aside path.
func TestGetWithFallback(t *testing.T) {
	ctx := context.Background()

	t.Run("skips fallback on cache hit", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		_ = f.Set(ctx, "present", "cached")

		var result string
		err := f.GetWithFallback(ctx, "present", &result, func(ctx context.Context) (any, error) {
			t.Error("Fallback must not run on a hit")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("GetWithFallback failed: %v", err)
		}
		if result != "cached" {
			t.Errorf("Expected 'cached', got '%s'", result)
		}
	})

	t.Run("computes and caches on miss", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		var result string
		err := f.GetWithFallback(ctx, "fresh", &result, func(ctx context.Context) (any, error) {
			return "computed", nil
		})
		if err != nil {
			t.Fatalf("GetWithFallback failed: %v", err)
		}
		if result != "computed" {
			t.Errorf("Expected 'computed', got '%s'", result)
		}

		// second call must be served from cache
		var again string
		err = f.GetWithFallback(ctx, "fresh", &again, func(ctx context.Context) (any, error) {
			t.Error("Fallback must not run twice")
			return nil, nil
		})
		if err != nil {
			t.Fatalf("Second GetWithFallback failed: %v", err)
		}
		if again != "computed" {
			t.Errorf("Expected 'computed', got '%s'", again)
		}
	})

	t.Run("propagates fallback error verbatim", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		wantErr := errors.New("downstream database unavailable")
		var result string
		err := f.GetWithFallback(ctx, "failing", &result, func(ctx context.Context) (any, error) {
			return nil, wantErr
		})
		if !errors.Is(err, wantErr) {
			t.Errorf("Expected fallback error, got: %v", err)
		}

		// nothing must be cached after a failed computation
		if err := f.Get(ctx, "failing", &result); !types.IsCacheMiss(err) {
			t.Errorf("Expected miss after failed fallback, got: %v", err)
		}
	})

	t.Run("collapses concurrent same-process callers", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		var calls atomic.Int64
		var wg sync.WaitGroup
		start := make(chan struct{})

		const callers = 50
		results := make([]string, callers)
		errs := make([]error, callers)

		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				errs[i] = f.GetWithFallback(ctx, "hot", &results[i], func(ctx context.Context) (any, error) {
					calls.Add(1)
					time.Sleep(20 * time.Millisecond)
					return "expensive", nil
				})
			}(i)
		}

		close(start)
		wg.Wait()

		for i := 0; i < callers; i++ {
			if errs[i] != nil {
				t.Fatalf("caller %d failed: %v", i, errs[i])
			}
			if results[i] != "expensive" {
				t.Errorf("caller %d got '%s'", i, results[i])
			}
		}

		if got := calls.Load(); got > 2 {
			t.Errorf("Expected at most 2 fallback executions, got %d", got)
		}
	})

	t.Run("second process waits for lock holder result", func(t *testing.T) {
		remote := newFakeRemote()
		a := newTestFacadeWithRemote(t, remote)
		defer a.Close()
		b := newTestFacadeWithRemote(t, remote)
		defer b.Close()

		var calls atomic.Int64
		fallback := func(ctx context.Context) (any, error) {
			calls.Add(1)
			return "shared", nil
		}

		var wg sync.WaitGroup
		for _, f := range []*Facade{a, b} {
			wg.Add(1)
			go func(f *Facade) {
				defer wg.Done()
				var result string
				if err := f.GetWithFallback(ctx, "cluster-key", &result, fallback); err != nil {
					t.Errorf("GetWithFallback failed: %v", err)
				} else if result != "shared" {
					t.Errorf("Expected 'shared', got '%s'", result)
				}
			}(f)
		}
		wg.Wait()

		if got := calls.Load(); got > 2 {
			t.Errorf("Expected at most 2 fallback executions across processes, got %d", got)
		}
	})

	t.Run("releases lock after computation", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		var result string
		err := f.GetWithFallback(ctx, "locked", &result, func(ctx context.Context) (any, error) {
			return "v", nil
		})
		if err != nil {
			t.Fatalf("GetWithFallback failed: %v", err)
		}

		lockKey := lockKeyPrefix + f.codec.FullKey("locked")
		if remote.has(lockKey) {
			t.Error("Expected lock record to be released")
		}
	})
}

// TestFacadeRemove tests single, bulk, and pattern removal.
func TestFacadeRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("removes from both tiers", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		_ = f.Set(ctx, "gone", "v")
		if err := f.Remove(ctx, "gone"); err != nil {
			t.Fatalf("Remove failed: %v", err)
		}

		var result string
		if err := f.Get(ctx, "gone", &result); !types.IsCacheMiss(err) {
			t.Errorf("Expected miss after remove, got: %v", err)
		}
		if remote.has(f.codec.FullKey("gone")) {
			t.Error("Expected remote copy to be removed")
		}
	})

	t.Run("remove many", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		keys := []string{"a", "b", "c"}
		for _, k := range keys {
			_ = f.Set(ctx, k, k)
		}

		if err := f.RemoveMany(ctx, keys); err != nil {
			t.Fatalf("RemoveMany failed: %v", err)
		}

		for _, k := range keys {
			var result string
			if err := f.Get(ctx, k, &result); !types.IsCacheMiss(err) {
				t.Errorf("Expected miss for %q, got: %v", k, err)
			}
		}
	})

	t.Run("pattern removal spares non-matching keys", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		_ = f.Set(ctx, "order:a", 1)
		_ = f.Set(ctx, "order:b", 2)
		_ = f.Set(ctx, "other:c", 3)

		if err := f.RemoveByPattern(ctx, "order:*"); err != nil {
			t.Fatalf("RemoveByPattern failed: %v", err)
		}

		var n int
		if err := f.Get(ctx, "order:a", &n); !types.IsCacheMiss(err) {
			t.Errorf("Expected order:a removed, got: %v", err)
		}
		if err := f.Get(ctx, "order:b", &n); !types.IsCacheMiss(err) {
			t.Errorf("Expected order:b removed, got: %v", err)
		}
		if err := f.Get(ctx, "other:c", &n); err != nil {
			t.Errorf("Expected other:c to survive, got: %v", err)
		}
	})

	t.Run("pattern removal covers remote tier", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		_ = f.Set(ctx, "price:BRN", 79.0)
		_ = f.Set(ctx, "price:WTI", 74.9)
		_ = f.Set(ctx, "position:BRN", 40)

		if err := f.RemoveByPattern(ctx, "price:*"); err != nil {
			t.Fatalf("RemoveByPattern failed: %v", err)
		}

		if remote.has(f.codec.FullKey("price:BRN")) || remote.has(f.codec.FullKey("price:WTI")) {
			t.Error("Expected price keys removed from remote tier")
		}
		if !remote.has(f.codec.FullKey("position:BRN")) {
			t.Error("Expected position key to survive in remote tier")
		}
	})
}

// TestFacadeBatchOps tests GetMany and SetMany.
func TestFacadeBatchOps(t *testing.T) {
	ctx := context.Background()

	t.Run("set many then get many", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		items := map[string]any{
			"batch:1": "one",
			"batch:2": "two",
			"batch:3": "three",
		}
		if err := f.SetMany(ctx, items); err != nil {
			t.Fatalf("SetMany failed: %v", err)
		}

		results, err := f.GetMany(ctx, []string{"batch:1", "batch:2", "batch:3", "batch:missing"})
		if err != nil {
			t.Fatalf("GetMany failed: %v", err)
		}

		if len(results) != 3 {
			t.Errorf("Expected 3 results, got %d", len(results))
		}
		if _, ok := results["batch:missing"]; ok {
			t.Error("Expected missing key to be omitted")
		}

		var one string
		if err := f.serializer.Unmarshal(results["batch:1"], &one); err != nil || one != "one" {
			t.Errorf("Expected 'one', got '%s' (err %v)", one, err)
		}
	})

	t.Run("empty batches are no-ops", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		results, err := f.GetMany(ctx, nil)
		if err != nil {
			t.Fatalf("GetMany failed: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("Expected empty result, got %d entries", len(results))
		}

		if err := f.SetMany(ctx, nil); err != nil {
			t.Fatalf("SetMany failed: %v", err)
		}
	})
}

// TestFacadeTierOps tests targeted per-tier reads and writes.
func TestFacadeTierOps(t *testing.T) {
	ctx := context.Background()

	t.Run("set and get on specific tiers", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		if err := f.SetToTier(ctx, types.TierRemote, "remote-only", "r"); err != nil {
			t.Fatalf("SetToTier remote failed: %v", err)
		}

		var result string
		if err := f.GetFromTier(ctx, types.TierLocal, "remote-only", &result); !types.IsCacheMiss(err) {
			t.Errorf("Expected local miss, got: %v", err)
		}
		if err := f.GetFromTier(ctx, types.TierRemote, "remote-only", &result); err != nil {
			t.Fatalf("GetFromTier remote failed: %v", err)
		}
		if result != "r" {
			t.Errorf("Expected 'r', got '%s'", result)
		}
	})

	t.Run("remote tier ops fail when disabled", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		var result string
		err := f.GetFromTier(ctx, types.TierRemote, "k", &result)
		if !errors.Is(err, types.ErrRemoteUnavailable) {
			t.Errorf("Expected ErrRemoteUnavailable, got: %v", err)
		}
		err = f.SetToTier(ctx, types.TierRemote, "k", "v")
		if !errors.Is(err, types.ErrRemoteUnavailable) {
			t.Errorf("Expected ErrRemoteUnavailable, got: %v", err)
		}
	})
}

// TestFacadeSynchronize tests the remote-to-local pull.
func TestFacadeSynchronize(t *testing.T) {
	ctx := context.Background()

	t.Run("pulls remote value into local tier", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		fullKey := f.codec.FullKey("sync")
		data, _ := f.serializer.Marshal("authoritative")
		remote.seed(fullKey, data)

		if err := f.Synchronize(ctx, "sync"); err != nil {
			t.Fatalf("Synchronize failed: %v", err)
		}

		if _, err := f.local.Get(ctx, fullKey); err != nil {
			t.Errorf("Expected local copy after synchronize: %v", err)
		}
	})

	t.Run("drops local copy on remote miss", func(t *testing.T) {
		remote := newFakeRemote()
		f := newTestFacadeWithRemote(t, remote)
		defer f.Close()

		fullKey := f.codec.FullKey("stale")
		_ = f.local.Set(ctx, fullKey, []byte(`"old"`), types.DefaultOptions())

		if err := f.Synchronize(ctx, "stale"); err != nil {
			t.Fatalf("Synchronize failed: %v", err)
		}

		if _, err := f.local.Get(ctx, fullKey); !types.IsCacheMiss(err) {
			t.Errorf("Expected local copy dropped, got: %v", err)
		}
	})
}

// TestFacadeInvalidateDistributed tests cross-process invalidation.
func TestFacadeInvalidateDistributed(t *testing.T) {
	ctx := context.Background()

	remote := newFakeRemote()
	a := newTestFacadeWithRemote(t, remote)
	defer a.Close()
	b := newTestFacadeWithRemote(t, remote)
	defer b.Close()

	if err := a.Set(ctx, "shared", "v1"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// peer b reads through the shared tier
	var result string
	if err := b.Get(ctx, "shared", &result); err != nil {
		t.Fatalf("peer Get failed: %v", err)
	}

	if err := a.InvalidateDistributed(ctx, "shared"); err != nil {
		t.Fatalf("InvalidateDistributed failed: %v", err)
	}

	if remote.has(a.codec.FullKey("shared")) {
		t.Error("Expected shared tier copy removed")
	}

	// a's own local copy must be gone immediately
	if err := a.Get(ctx, "shared", &result); !types.IsCacheMiss(err) {
		t.Errorf("Expected miss on invalidating process, got: %v", err)
	}
}

// TestFacadeWarmup tests warmup and preheat groups.
func TestFacadeWarmup(t *testing.T) {
	ctx := context.Background()

	t.Run("warmup populates entries", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		req := types.WarmupRequest{Entries: []types.WarmupEntry{
			{Key: "warm:1", Value: "a", TTL: time.Minute},
			{Key: "warm:2", Value: "b", TTL: time.Minute},
		}}
		if err := f.Warmup(ctx, req); err != nil {
			t.Fatalf("Warmup failed: %v", err)
		}

		var result string
		if err := f.Get(ctx, "warm:1", &result); err != nil || result != "a" {
			t.Errorf("Expected 'a', got '%s' (err %v)", result, err)
		}
	})

	t.Run("preheat uses registered loader", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		f.RegisterPreheatGroup("contracts", func(ctx context.Context) ([]types.WarmupEntry, error) {
			return []types.WarmupEntry{{Key: "contract:BRN", Value: "loaded", TTL: time.Minute}}, nil
		})

		if err := f.Preheat(ctx, "contracts"); err != nil {
			t.Fatalf("Preheat failed: %v", err)
		}

		var result string
		if err := f.Get(ctx, "contract:BRN", &result); err != nil || result != "loaded" {
			t.Errorf("Expected 'loaded', got '%s' (err %v)", result, err)
		}
	})

	t.Run("preheat of unregistered group is a no-op", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		if err := f.Preheat(ctx, "unknown"); err != nil {
			t.Errorf("Expected nil for unregistered group, got: %v", err)
		}
	})

	t.Run("preheat propagates loader error", func(t *testing.T) {
		f := newTestFacade(t)
		defer f.Close()

		wantErr := errors.New("reference data service down")
		f.RegisterPreheatGroup("broken", func(ctx context.Context) ([]types.WarmupEntry, error) {
			return nil, wantErr
		})

		if err := f.Preheat(ctx, "broken"); !errors.Is(err, wantErr) {
			t.Errorf("Expected loader error, got: %v", err)
		}
	})
}

// TestFacadeStatistics tests hit/miss accounting.
func TestFacadeStatistics(t *testing.T) {
	ctx := context.Background()

	f := newTestFacade(t)
	defer f.Close()

	_ = f.Set(ctx, "counted", "v")

	var result string
	for i := 0; i < 3; i++ {
		if err := f.Get(ctx, "counted", &result); err != nil {
			t.Fatalf("Get failed: %v", err)
		}
	}
	for i := 0; i < 2; i++ {
		_ = f.Get(ctx, "absent", &result)
	}

	stats := f.Statistics()
	if stats.Local.Hits != 3 {
		t.Errorf("Expected 3 local hits, got %d", stats.Local.Hits)
	}
	if stats.Local.Misses != 2 {
		t.Errorf("Expected 2 local misses, got %d", stats.Local.Misses)
	}
	if stats.Local.Sets != 1 {
		t.Errorf("Expected 1 local set, got %d", stats.Local.Sets)
	}
	if got := stats.Local.HitRatio(); got < 0.59 || got > 0.61 {
		t.Errorf("Expected hit ratio 0.6, got %f", got)
	}
	if stats.Overall.Hits != 3 || stats.Overall.Misses != 2 {
		t.Errorf("Expected overall 3/2, got %d/%d", stats.Overall.Hits, stats.Overall.Misses)
	}
}

// TestFacadeClear tests tier clearing.
func TestFacadeClear(t *testing.T) {
	ctx := context.Background()

	remote := newFakeRemote()
	f := newTestFacadeWithRemote(t, remote)
	defer f.Close()

	_ = f.Set(ctx, "a", 1)
	_ = f.Set(ctx, "b", 2)

	if err := f.Clear(ctx, types.TierAll); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	var n int
	if err := f.Get(ctx, "a", &n); !types.IsCacheMiss(err) {
		t.Errorf("Expected miss after clear, got: %v", err)
	}
	if remote.has(f.codec.FullKey("b")) {
		t.Error("Expected remote tier cleared")
	}
}

// TestFacadeClose tests shutdown semantics.
func TestFacadeClose(t *testing.T) {
	ctx := context.Background()

	t.Run("operations fail after close", func(t *testing.T) {
		f := newTestFacade(t)
		if err := f.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}

		var result string
		if err := f.Get(ctx, "k", &result); !errors.Is(err, types.ErrClosed) {
			t.Errorf("Expected ErrClosed from Get, got: %v", err)
		}
		if err := f.Set(ctx, "k", "v"); !errors.Is(err, types.ErrClosed) {
			t.Errorf("Expected ErrClosed from Set, got: %v", err)
		}
	})

	t.Run("double close is safe", func(t *testing.T) {
		f := newTestFacade(t)
		if err := f.Close(); err != nil {
			t.Fatalf("First close failed: %v", err)
		}
		if err := f.Close(); err != nil {
			t.Errorf("Second close failed: %v", err)
		}
	})
}

// TestFacadeContains tests existence checks across tiers.
func TestFacadeContains(t *testing.T) {
	ctx := context.Background()

	remote := newFakeRemote()
	f := newTestFacadeWithRemote(t, remote)
	defer f.Close()

	_ = f.Set(ctx, "present", "v")

	exists, err := f.Contains(ctx, "present")
	if err != nil || !exists {
		t.Errorf("Expected present=true, got %v (err %v)", exists, err)
	}

	exists, err = f.Contains(ctx, "absent")
	if err != nil || exists {
		t.Errorf("Expected absent=false, got %v (err %v)", exists, err)
	}

	// remote-only key
	data, _ := f.serializer.Marshal("r")
	remote.seed(f.codec.FullKey("remote-only"), data)
	exists, err = f.Contains(ctx, "remote-only")
	if err != nil || !exists {
		t.Errorf("Expected remote-only=true, got %v (err %v)", exists, err)
	}
}

// Helper functions and mocks

// mockSerializer is a mock serializer for testing.
type mockSerializer struct {
	marshalFunc   func(v any) ([]byte, error)
	unmarshalFunc func(data []byte, dest any) error
}

func (m *mockSerializer) Marshal(v any) ([]byte, error) {
	if m.marshalFunc != nil {
		return m.marshalFunc(v)
	}
	return NewJSONSerializer().Marshal(v)
}

func (m *mockSerializer) Unmarshal(data []byte, dest any) error {
	if m.unmarshalFunc != nil {
		return m.unmarshalFunc(data, dest)
	}
	return NewJSONSerializer().Unmarshal(data, dest)
}

// fakeRemote is an in-memory stand-in for the Redis tier. The lock
// primitives are atomic under one mutex, matching the SETNX and
// compare-and-delete script semantics.
type fakeRemote struct {
	mu      sync.Mutex
	data    map[string]fakeEntry
	failing bool

	gets atomic.Int64
	sets atomic.Int64
}

type fakeEntry struct {
	value     []byte
	expiresAt time.Time
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{data: make(map[string]fakeEntry)}
}

func (r *fakeRemote) setFailing(failing bool) {
	r.mu.Lock()
	r.failing = failing
	r.mu.Unlock()
}

func (r *fakeRemote) seed(key string, value []byte) {
	r.mu.Lock()
	r.data[key] = fakeEntry{value: value}
	r.mu.Unlock()
}

func (r *fakeRemote) has(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[key]
	if !ok {
		return false
	}
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt)
}

func (r *fakeRemote) Name() string { return "fake-remote" }

func (r *fakeRemote) IsAvailable() bool { return true }

func (r *fakeRemote) Get(ctx context.Context, key string) ([]byte, error) {
	r.gets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return nil, errors.New("fake remote: connection refused")
	}
	e, ok := r.data[key]
	if !ok || (!e.expiresAt.IsZero() && time.Now().After(e.expiresAt)) {
		return nil, types.ErrCacheMiss
	}
	return e.value, nil
}

func (r *fakeRemote) Contains(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return false, errors.New("fake remote: connection refused")
	}
	e, ok := r.data[key]
	if !ok {
		return false, nil
	}
	return e.expiresAt.IsZero() || time.Now().Before(e.expiresAt), nil
}

func (r *fakeRemote) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	r.sets.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("fake remote: connection refused")
	}
	e := fakeEntry{value: value}
	if opts != nil && opts.TTL > 0 {
		e.expiresAt = time.Now().Add(opts.TTL)
	}
	r.data[key] = e
	return nil
}

func (r *fakeRemote) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("fake remote: connection refused")
	}
	delete(r.data, key)
	return nil
}

func (r *fakeRemote) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("fake remote: connection refused")
	}
	r.data = make(map[string]fakeEntry)
	return nil
}

func (r *fakeRemote) ClearByPattern(ctx context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("fake remote: connection refused")
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range r.data {
		if strings.HasPrefix(key, prefix) {
			delete(r.data, key)
		}
	}
	return nil
}

func (r *fakeRemote) Close() error { return nil }

func (r *fakeRemote) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	results := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if data, err := r.Get(ctx, key); err == nil {
			results[key] = data
		}
	}
	return results, nil
}

func (r *fakeRemote) SetMany(ctx context.Context, items map[string][]byte, opts *types.CacheOptions) error {
	for key, value := range items {
		if err := r.Set(ctx, key, value, opts); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRemote) SetIfAbsent(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return false, errors.New("fake remote: connection refused")
	}
	if e, ok := r.data[key]; ok {
		if e.expiresAt.IsZero() || time.Now().Before(e.expiresAt) {
			return false, nil
		}
	}
	r.data[key] = fakeEntry{value: []byte(token), expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (r *fakeRemote) CompareAndDelete(ctx context.Context, key, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return false, errors.New("fake remote: connection refused")
	}
	e, ok := r.data[key]
	if !ok || string(e.value) != token {
		return false, nil
	}
	delete(r.data, key)
	return true, nil
}

func (r *fakeRemote) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("fake remote: connection refused")
	}
	return nil
}

var _ types.RemoteTier = (*fakeRemote)(nil)
