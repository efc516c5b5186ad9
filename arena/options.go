package arena

import (
	"context"
	"time"

	"github.com/hupe1980/slotmap"
)

// MemoryAcquirer is an interface for acquiring memory.
type MemoryAcquirer interface {
	AcquireMemory(ctx context.Context, amount int64) error
	ReleaseMemory(amount int64)
}

type options struct {
	name     string
	acquirer MemoryAcquirer
	timeout  time.Duration
	logger   *slotmap.Logger
	mapOpts  []slotmap.Option
}

// Option is a configuration option for Arena.
type Option func(*options)

// WithName labels the arena in log records.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithMemoryAcquirer sets the memory acquirer for the arena.
func WithMemoryAcquirer(acquirer MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = acquirer
	}
}

// WithAcquireTimeout bounds how long creation waits for the memory acquirer.
// Default: 100ms.
func WithAcquireTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the arena logger. It is also passed to every borrowed Map.
// A nil logger disables logging.
func WithLogger(logger *slotmap.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slotmap.NoopLogger()
		}
		o.logger = logger
	}
}

// WithMapOptions appends options applied to every borrowed Map.
func WithMapOptions(opts ...slotmap.Option) Option {
	return func(o *options) {
		o.mapOpts = append(o.mapOpts, opts...)
	}
}

func applyOptions(optFns []Option) options {
	opts := options{
		name:    "arena",
		timeout: DefaultAcquireTimeout,
		logger:  slotmap.NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return opts
}
