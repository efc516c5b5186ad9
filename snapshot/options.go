package snapshot

import (
	"runtime"
	"time"

	"github.com/hupe1980/slotmap"
	"github.com/hupe1980/slotmap/codec"
	"github.com/hupe1980/slotmap/resource"
)

type options struct {
	compression Compression
	chunkSize   int
	concurrency int
	codec       codec.Codec
	controller  *resource.Controller
	logger      *slotmap.Logger
	now         func() time.Time
}

// Option configures a Snapshotter.
type Option func(*options)

// WithCompression sets the chunk codec. Default: CompressionZstd.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithChunkSize sets the uncompressed chunk size. Default: DefaultChunkSize.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 && n <= MaxChunkSize {
			o.chunkSize = n
		}
	}
}

// WithConcurrency bounds parallel chunk (de)compression. Default: GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithCodec sets the manifest codec. Default: codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithController throttles blob IO and bounds concurrent Save calls through
// the controller's background slots.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.controller = rc
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slotmap.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slotmap.NoopLogger()
		}
		o.logger = logger
	}
}

func withClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func applyOptions(optFns []Option) options {
	opts := options{
		compression: CompressionZstd,
		chunkSize:   DefaultChunkSize,
		concurrency: runtime.GOMAXPROCS(0),
		codec:       codec.Default,
		logger:      slotmap.NoopLogger(),
		now:         time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&opts)
		}
	}
	return opts
}
