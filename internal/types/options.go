package types

// Option is a functional option for configuring cache operations.
type Option func(*CacheOptions)

// ApplyOptions applies functional options to create CacheOptions.
func ApplyOptions(opts ...Option) *CacheOptions {
	options := DefaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// FacadeOptions holds construction-time configuration for the cache facade.
type FacadeOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics is the metrics recorder.
	Metrics MetricsRecorder

	// Serializer is the value serializer.
	Serializer Serializer

	// RemoteAddress overrides the remote tier address from config.
	RemoteAddress string

	// RemotePassword overrides the remote tier password from config.
	// Uses SecretString to prevent accidental logging of sensitive values.
	RemotePassword SecretString

	// RemoteDB overrides the remote tier database from config.
	RemoteDB int

	// DisableRemote disables the remote tier entirely; the cache degrades
	// to local-only operation.
	DisableRemote bool

	// DisableResilience disables circuit breaker and retry patterns.
	DisableResilience bool
}
