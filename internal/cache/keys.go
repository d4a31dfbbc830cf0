package cache

import "strings"

// lockKeyPrefix namespaces stampede lock records away from cached values.
const lockKeyPrefix = "lock:"

// KeyCodec composes fully-qualified cache keys from the process-wide
// namespace prefix and a caller-supplied logical key. Keys follow a
// colon-delimited hierarchy ("inventory:snapshot:<product>:<location>")
// so bulk invalidation can match on prefixes.
type KeyCodec struct {
	prefix string
}

// NewKeyCodec creates a codec for the given namespace prefix.
func NewKeyCodec(prefix string) *KeyCodec {
	return &KeyCodec{prefix: strings.TrimSuffix(prefix, ":")}
}

// FullKey returns "<prefix>:<logical-key>". With an empty prefix the logical
// key is used as-is.
func (c *KeyCodec) FullKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

// LockKey returns the lock record key for a fully-qualified cache key.
func (c *KeyCodec) LockKey(fullKey string) string {
	return lockKeyPrefix + fullKey
}

// Prefix returns the configured namespace prefix.
func (c *KeyCodec) Prefix() string {
	return c.prefix
}
