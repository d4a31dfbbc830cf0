package tiercache

import (
	"time"

	"github.com/tradedesk/tiercache/internal/types"
)

type (
	Option        = types.Option
	FacadeOptions = types.FacadeOptions
)

func ApplyOptions(opts ...Option) *CacheOptions {
	return types.ApplyOptions(opts...)
}

func WithTTL(ttl time.Duration) Option {
	return func(o *CacheOptions) {
		o.TTL = ttl
	}
}

func WithPriority(priority Priority) Option {
	return func(o *CacheOptions) {
		o.Priority = priority
	}
}

func WithHighPriority() Option {
	return func(o *CacheOptions) {
		o.Priority = PriorityHigh
	}
}

func WithLowPriority() Option {
	return func(o *CacheOptions) {
		o.Priority = PriorityLow
	}
}

type CacheOption func(*FacadeOptions)

func WithLogger(logger Logger) CacheOption {
	return func(o *FacadeOptions) {
		o.Logger = logger
	}
}

func WithMetrics(metrics MetricsRecorder) CacheOption {
	return func(o *FacadeOptions) {
		o.Metrics = metrics
	}
}

func WithSerializer(serializer Serializer) CacheOption {
	return func(o *FacadeOptions) {
		o.Serializer = serializer
	}
}

func WithRemoteAddress(addr string) CacheOption {
	return func(o *FacadeOptions) {
		o.RemoteAddress = addr
	}
}

func WithRemotePassword(password string) CacheOption {
	return func(o *FacadeOptions) {
		o.RemotePassword = types.NewSecretString(password)
	}
}

func WithRemoteDB(db int) CacheOption {
	return func(o *FacadeOptions) {
		o.RemoteDB = db
	}
}

func WithoutRemote() CacheOption {
	return func(o *FacadeOptions) {
		o.DisableRemote = true
	}
}

func WithoutResilience() CacheOption {
	return func(o *FacadeOptions) {
		o.DisableResilience = true
	}
}
