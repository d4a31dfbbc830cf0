package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradedesk/tiercache/internal/config"
	"github.com/tradedesk/tiercache/internal/types"
)

const (
	disconnectErrorThreshold = 5
	scanBatchSize            = 100
)

// compareAndDeleteScript deletes a key only while it still holds the caller's
// token, as one atomic server-side operation. A plain GET+DEL pair would race
// against a lock that expired and was re-acquired by another owner.
var compareAndDeleteScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`)

// RemoteCache implements the shared tier on Redis. Namespacing is the
// facade's job; keys arrive here already fully qualified.
type RemoteCache struct {
	client *redis.Client
	config config.RemoteConfig
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup

	hits    atomic.Int64
	misses  atomic.Int64
	sets    atomic.Int64
	deletes atomic.Int64
}

// NewRemoteCache creates a remote tier adapter. A failed initial connection
// does not fail construction; the tier starts disconnected and the health
// check worker keeps probing for recovery.
func NewRemoteCache(cfg *config.RemoteConfig, logger *slog.Logger) (*RemoteCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify,
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	rc := &RemoteCache{
		client:            redis.NewClient(opts),
		config:            *cfg,
		logger:            logger.With("component", "remote-cache"),
		healthCheckStopCh: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := rc.client.Ping(ctx).Err(); err != nil {
		rc.logger.Warn("Remote tier initial connection failed", "error", err)
		rc.setError(err)
		// Don't return error - allow graceful degradation
	} else {
		rc.connected.Store(true)
		rc.logger.Info("Remote tier connected", "address", cfg.Address)
	}

	if cfg.HealthCheckInterval > 0 {
		rc.healthCheckWg.Add(1)
		go rc.healthCheckWorker()
	}

	return rc, nil
}

func (c *RemoteCache) Name() string {
	return "remote"
}

func (c *RemoteCache) IsAvailable() bool {
	return c.connected.Load()
}

func (c *RemoteCache) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.connected.Load() {
		return nil, types.ErrRemoteUnavailable
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.misses.Add(1)
			return nil, types.ErrCacheMiss
		}
		c.handleError(err)
		return nil, types.NewCacheError("Get", key, "remote", err)
	}

	c.hits.Add(1)
	c.clearError()

	return data, nil
}

func (c *RemoteCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	if !c.connected.Load() {
		return types.ErrRemoteUnavailable
	}

	if opts == nil {
		opts = types.DefaultOptions()
	}

	ttl := c.config.DefaultTTL
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		c.handleError(err)
		return types.NewCacheError("Set", key, "remote", err)
	}

	c.sets.Add(1)
	c.clearError()

	return nil
}

func (c *RemoteCache) Delete(ctx context.Context, key string) error {
	if !c.connected.Load() {
		return types.ErrRemoteUnavailable
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err)
		return types.NewCacheError("Delete", key, "remote", err)
	}

	c.deletes.Add(1)
	c.clearError()

	return nil
}

func (c *RemoteCache) Contains(ctx context.Context, key string) (bool, error) {
	if !c.connected.Load() {
		return false, types.ErrRemoteUnavailable
	}

	exists, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.handleError(err)
		return false, types.NewCacheError("Contains", key, "remote", err)
	}

	c.clearError()
	return exists > 0, nil
}

func (c *RemoteCache) GetMany(ctx context.Context, keys []string) (map[string][]byte, error) {
	if !c.connected.Load() {
		return nil, types.ErrRemoteUnavailable
	}

	if len(keys) == 0 {
		return make(map[string][]byte), nil
	}

	results, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		c.handleError(err)
		return nil, types.NewCacheError("GetMany", "", "remote", err)
	}

	resultMap := make(map[string][]byte, len(keys))
	for i, result := range results {
		if result != nil {
			if str, ok := result.(string); ok {
				resultMap[keys[i]] = []byte(str)
				c.hits.Add(1)
			}
		} else {
			c.misses.Add(1)
		}
	}

	c.clearError()
	return resultMap, nil
}

func (c *RemoteCache) SetMany(ctx context.Context, items map[string][]byte, opts *types.CacheOptions) error {
	if !c.connected.Load() {
		return types.ErrRemoteUnavailable
	}

	if len(items) == 0 {
		return nil
	}

	if opts == nil {
		opts = types.DefaultOptions()
	}

	ttl := c.config.DefaultTTL
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	pipe := c.client.Pipeline()
	for key, value := range items {
		pipe.Set(ctx, key, value, ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.handleError(err)
		return types.NewCacheError("SetMany", "", "remote", err)
	}

	c.sets.Add(int64(len(items)))
	c.clearError()

	return nil
}

func (c *RemoteCache) Clear(ctx context.Context) error {
	return c.ClearByPattern(ctx, "*")
}

// ClearByPattern scans the keyspace in batches and deletes every match.
func (c *RemoteCache) ClearByPattern(ctx context.Context, pattern string) error {
	if !c.connected.Load() {
		return types.ErrRemoteUnavailable
	}

	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			c.handleError(err)
			return types.NewCacheError("ClearByPattern", pattern, "remote", err)
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err)
				return types.NewCacheError("ClearByPattern", pattern, "remote", err)
			}
			deleted += int64(len(keys))
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	c.logger.Debug("Cleared keys by pattern", "pattern", pattern, "deleted", deleted)
	c.clearError()
	return nil
}

// SetIfAbsent atomically creates a lock record with a TTL. Returns true when
// this caller won the record.
func (c *RemoteCache) SetIfAbsent(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if !c.connected.Load() {
		return false, types.ErrRemoteUnavailable
	}

	acquired, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		c.handleError(err)
		return false, types.NewCacheError("SetIfAbsent", key, "remote", err)
	}

	c.clearError()
	return acquired, nil
}

// CompareAndDelete atomically deletes the key if it still holds token.
// Returns true when the record was deleted by this call.
func (c *RemoteCache) CompareAndDelete(ctx context.Context, key, token string) (bool, error) {
	if !c.connected.Load() {
		return false, types.ErrRemoteUnavailable
	}

	n, err := compareAndDeleteScript.Run(ctx, c.client, []string{key}, token).Int()
	if err != nil {
		c.handleError(err)
		return false, types.NewCacheError("CompareAndDelete", key, "remote", err)
	}

	c.clearError()
	return n == 1, nil
}

func (c *RemoteCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RemoteCache) Close() error {
	c.connected.Store(false)

	close(c.healthCheckStopCh)
	c.healthCheckWg.Wait()

	return c.client.Close()
}

func (c *RemoteCache) healthCheckWorker() {
	defer c.healthCheckWg.Done()

	ticker := time.NewTicker(c.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.healthCheckStopCh:
			return
		case <-ticker.C:
			c.performHealthCheck()
		}
	}
}

func (c *RemoteCache) performHealthCheck() {
	wasConnected := c.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.DialTimeout)
	defer cancel()

	err := c.client.Ping(ctx).Err()
	if err != nil {
		if wasConnected {
			c.logger.Warn("Remote tier health check failed", "error", err)
			c.setError(err)
		}
		return
	}

	if !wasConnected {
		c.connected.Store(true)
		c.errorCount.Store(0)
		c.logger.Info("Remote tier connection restored via health check")
	}
}

func (c *RemoteCache) handleError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = err
	c.lastErrorTime = time.Now()
	count := c.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if c.connected.CompareAndSwap(true, false) {
			c.logger.Warn("Remote tier marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (c *RemoteCache) clearError() {
	if c.errorCount.Swap(0) > 0 {
		if c.connected.CompareAndSwap(false, true) {
			c.logger.Info("Remote tier connection restored")
		}
	}
}

func (c *RemoteCache) setError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = err
	c.lastErrorTime = time.Now()
	c.connected.Store(false)
}

// LastError returns the most recent remote tier error and when it happened.
func (c *RemoteCache) LastError() (error, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastError, c.lastErrorTime
}

var _ types.RemoteTier = (*RemoteCache)(nil)
