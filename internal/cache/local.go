package cache

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/tradedesk/tiercache/internal/config"
	"github.com/tradedesk/tiercache/internal/types"
)

// envelopeHeaderSize is the fixed metadata prepended to every stored payload:
// 8 bytes big-endian unix-nano expiry (0 = no expiry) and 1 priority byte.
// BigCache only has a cache-wide life window, so per-entry TTL and priority
// ride along with the value.
const envelopeHeaderSize = 9

// readmitQueueSize bounds the re-admission backlog. Under sustained pressure
// the queue fills and further high-priority evictions are simply lost, which
// is the correct failure mode for a cache.
const readmitQueueSize = 256

// readmission is a high-priority entry pulled out of the eviction callback so
// it can be written back outside the shard lock.
type readmission struct {
	key  string
	data []byte
}

// LocalCache implements the in-process tier using BigCache.
type LocalCache struct {
	cache  *bigcache.BigCache
	config config.LocalConfig
	logger *slog.Logger

	readmit     chan readmission
	readmitStop chan struct{}
	readmitWG   sync.WaitGroup

	hits         atomic.Int64
	misses       atomic.Int64
	sets         atomic.Int64
	deletes      atomic.Int64
	evictions    atomic.Int64
	readmissions atomic.Int64

	closed atomic.Bool
}

// NewLocalCache creates a new local cache with the given configuration.
func NewLocalCache(cfg config.LocalConfig, logger *slog.Logger) (*LocalCache, error) {
	if logger == nil {
		logger = slog.Default()
	}

	lc := &LocalCache{
		config:      cfg,
		logger:      logger.With("component", "local-cache"),
		readmit:     make(chan readmission, readmitQueueSize),
		readmitStop: make(chan struct{}),
	}

	bcConfig := bigcache.Config{
		Shards: cfg.Shards,
		// LifeWindow is the hard upper bound on entry lifetime; per-entry
		// TTLs shorter than it are enforced by the envelope on read.
		LifeWindow:         cfg.DefaultTTL,
		CleanWindow:        cfg.CleanupInterval,
		MaxEntriesInWindow: 1000 * 10 * 60,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: logger},
		OnRemoveWithReason: lc.onRemove,
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	lc.cache = bc

	lc.readmitWG.Add(1)
	go lc.readmitLoop()

	return lc, nil
}

// onRemove is BigCache's eviction callback. Expired entries are just counted;
// entries pushed out for space are queued for re-admission when they carry
// high priority and are still live. BigCache invokes the callback while
// holding the shard lock and the entry slice aliases its ring buffer, so the
// write-back has to be copied out and done from a separate goroutine.
func (c *LocalCache) onRemove(key string, entry []byte, reason bigcache.RemoveReason) {
	if reason != bigcache.NoSpace && reason != bigcache.Expired {
		return
	}
	c.evictions.Add(1)

	if reason != bigcache.NoSpace {
		return
	}

	_, priority, expired := decodeEnvelope(entry)
	if expired || priority != types.PriorityHigh {
		return
	}

	data := make([]byte, len(entry))
	copy(data, entry)

	select {
	case c.readmit <- readmission{key: key, data: data}:
	default:
		// queue full, the entry is lost like any other eviction
	}
}

// readmitLoop writes evicted high-priority entries back into the cache. The
// re-admitted entry keeps its original envelope, so the expiry and priority
// survive the round trip.
func (c *LocalCache) readmitLoop() {
	defer c.readmitWG.Done()

	for {
		select {
		case <-c.readmitStop:
			return
		case r := <-c.readmit:
			if c.closed.Load() {
				continue
			}
			if err := c.cache.Set(r.key, r.data); err != nil {
				c.logger.Debug("Failed to re-admit evicted entry", "key", r.key, "error", err)
				continue
			}
			c.readmissions.Add(1)
		}
	}
}

// Name returns the tier name.
func (c *LocalCache) Name() string {
	return "local"
}

// IsAvailable returns true if the cache is not closed.
func (c *LocalCache) IsAvailable() bool {
	return !c.closed.Load()
}

// Get retrieves a value from the local cache. An entry whose envelope expiry
// has passed is deleted and reported as a miss.
func (c *LocalCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, types.ErrClosed
	}

	data, err := c.cache.Get(key)
	if err != nil {
		if err == bigcache.ErrEntryNotFound {
			c.misses.Add(1)
			return nil, types.ErrCacheMiss
		}
		return nil, types.NewCacheError("Get", key, "local", err)
	}

	payload, _, expired := decodeEnvelope(data)
	if expired {
		_ = c.cache.Delete(key)
		c.misses.Add(1)
		return nil, types.ErrCacheMiss
	}

	c.hits.Add(1)
	return payload, nil
}

// Set stores a value in the local cache with its own absolute expiry and
// eviction priority.
func (c *LocalCache) Set(ctx context.Context, key string, value []byte, opts *types.CacheOptions) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if opts == nil {
		opts = types.DefaultOptions()
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	if err := c.cache.Set(key, encodeEnvelope(value, ttl, opts.Priority)); err != nil {
		return types.NewCacheError("Set", key, "local", err)
	}

	c.sets.Add(1)
	return nil
}

// Delete removes a value from the local cache.
func (c *LocalCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	if err := c.cache.Delete(key); err != nil {
		if err != bigcache.ErrEntryNotFound {
			return types.NewCacheError("Delete", key, "local", err)
		}
	}

	c.deletes.Add(1)
	return nil
}

// Contains checks if a live entry exists for the key.
func (c *LocalCache) Contains(ctx context.Context, key string) (bool, error) {
	if c.closed.Load() {
		return false, types.ErrClosed
	}

	data, err := c.cache.Get(key)
	if err != nil {
		if err == bigcache.ErrEntryNotFound {
			return false, nil
		}
		return false, err
	}

	_, _, expired := decodeEnvelope(data)
	return !expired, nil
}

// Clear removes all entries from the local cache.
func (c *LocalCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	return c.cache.Reset()
}

// ClearByPattern removes entries whose keys match the given pattern.
// BigCache has no pattern primitive, so this walks the iterator and deletes
// matches one by one.
func (c *LocalCache) ClearByPattern(ctx context.Context, pattern string) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	var keysToDelete []string

	iter := c.cache.Iterator()
	for iter.SetNext() {
		entry, err := iter.Value()
		if err != nil {
			continue
		}

		if matchPattern(entry.Key(), pattern) {
			keysToDelete = append(keysToDelete, entry.Key())
		}
	}

	for _, key := range keysToDelete {
		_ = c.cache.Delete(key)
	}

	c.logger.Debug("Cleared entries by pattern",
		"pattern", pattern,
		"deleted", len(keysToDelete),
	)

	return nil
}

// Close closes the local cache and releases resources.
func (c *LocalCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}

	close(c.readmitStop)
	c.readmitWG.Wait()

	return c.cache.Close()
}

// Stats returns local cache statistics.
func (c *LocalCache) Stats() types.LocalCacheStats {
	return types.LocalCacheStats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		Sets:         c.sets.Load(),
		Deletes:      c.deletes.Load(),
		Evictions:    c.evictions.Load(),
		Readmissions: c.readmissions.Load(),
	}
}

// EntryCount returns the number of entries in the local cache.
func (c *LocalCache) EntryCount() int {
	return c.cache.Len()
}

// Size returns the current allocated size of the local cache in bytes.
func (c *LocalCache) Size() int64 {
	return int64(c.cache.Capacity())
}

// MaxSize returns the maximum size of the local cache in bytes.
func (c *LocalCache) MaxSize() int64 {
	return int64(c.config.MaxSizeMB) * 1024 * 1024
}

// UsagePercentage returns the local cache usage as a percentage.
func (c *LocalCache) UsagePercentage() float64 {
	maxBytes := c.MaxSize()
	if maxBytes == 0 {
		return 0
	}
	return float64(c.Size()) / float64(maxBytes) * 100
}

// encodeEnvelope prepends the entry metadata header to the payload.
func encodeEnvelope(payload []byte, ttl time.Duration, priority types.Priority) []byte {
	buf := make([]byte, envelopeHeaderSize+len(payload))

	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}
	binary.BigEndian.PutUint64(buf[:8], uint64(expiresAt))
	buf[8] = byte(priority)
	copy(buf[envelopeHeaderSize:], payload)

	return buf
}

// decodeEnvelope splits a stored entry into payload and metadata.
// Entries shorter than the header are treated as expired garbage.
func decodeEnvelope(data []byte) (payload []byte, priority types.Priority, expired bool) {
	if len(data) < envelopeHeaderSize {
		return nil, 0, true
	}

	expiresAt := int64(binary.BigEndian.Uint64(data[:8]))
	if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
		return nil, 0, true
	}

	return data[envelopeHeaderSize:], types.Priority(data[8]), false
}

// matchPattern implements the glob-lite matching used by pattern
// invalidation: a single "*" wildcard at the start, end, or middle.
func matchPattern(key, pattern string) bool {
	if pattern == "*" {
		return true
	}

	if strings.HasSuffix(pattern, "*") && !strings.Contains(strings.TrimSuffix(pattern, "*"), "*") {
		return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
	}

	if strings.HasPrefix(pattern, "*") && !strings.Contains(strings.TrimPrefix(pattern, "*"), "*") {
		return strings.HasSuffix(key, strings.TrimPrefix(pattern, "*"))
	}

	if strings.Contains(pattern, "*") {
		parts := strings.Split(pattern, "*")
		if len(parts) == 2 {
			return strings.HasPrefix(key, parts[0]) && strings.HasSuffix(key, parts[1])
		}
	}

	return key == pattern
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: " + fmt.Sprintf(format, args...))
}

var _ types.LocalTier = (*LocalCache)(nil)
