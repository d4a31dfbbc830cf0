package types

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// KeyValidationConfig contains configuration for cache key validation.
type KeyValidationConfig struct {
	ReservedPrefixes []string
	MaxKeyLength     int
	AllowEmpty       bool
	AllowWhitespace  bool
}

// DefaultKeyValidationConfig returns a KeyValidationConfig with default values.
// The "lock:" prefix is reserved for the stampede guard's lock records.
func DefaultKeyValidationConfig() KeyValidationConfig {
	return KeyValidationConfig{
		MaxKeyLength:     1024,
		AllowEmpty:       false,
		AllowWhitespace:  false,
		ReservedPrefixes: []string{"lock:"},
	}
}

// KeyValidator validates logical cache keys according to configured rules.
type KeyValidator struct {
	config KeyValidationConfig
}

// NewKeyValidator creates a new KeyValidator with the given configuration.
func NewKeyValidator(config KeyValidationConfig) *KeyValidator {
	return &KeyValidator{config: config}
}

// Validate checks if a cache key is valid according to the configured rules.
func (v *KeyValidator) Validate(key string) error {
	if key == "" {
		if !v.config.AllowEmpty {
			return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
		}
		return nil
	}

	if v.config.MaxKeyLength > 0 && len(key) > v.config.MaxKeyLength {
		return fmt.Errorf("%w: key length %d exceeds maximum %d bytes",
			ErrInvalidKey, len(key), v.config.MaxKeyLength)
	}

	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: key contains invalid UTF-8", ErrInvalidKey)
	}

	for i, r := range key {
		// Control characters (ASCII 0-31 and 127)
		if r < 32 || r == 127 {
			return fmt.Errorf("%w: key contains control character at position %d", ErrInvalidKey, i)
		}
		if !v.config.AllowWhitespace && unicode.IsSpace(r) {
			return fmt.Errorf("%w: key contains whitespace at position %d", ErrInvalidKey, i)
		}
	}

	for _, prefix := range v.config.ReservedPrefixes {
		if strings.HasPrefix(key, prefix) {
			return fmt.Errorf("%w: key uses reserved prefix %q", ErrInvalidKey, prefix)
		}
	}

	return nil
}
