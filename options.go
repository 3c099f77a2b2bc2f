package vecexport

import (
	"log/slog"
	"os"
	"runtime"

	"github.com/hupe1980/vecexport/blobstore"
	"github.com/hupe1980/vecexport/codec"
	"github.com/hupe1980/vecexport/internal/compress"
)

// DefaultIndent is the indentation of the output document.
const DefaultIndent = "  "

// CompressionLevel trades speed for ratio for compressed outputs.
type CompressionLevel int

const (
	CompressionDefault CompressionLevel = iota
	CompressionFastest
	CompressionBest
)

func (l CompressionLevel) level() compress.Level {
	switch l {
	case CompressionFastest:
		return compress.LevelFastest
	case CompressionBest:
		return compress.LevelBest
	default:
		return compress.LevelDefault
	}
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	codec            codec.Codec
	indent           string
	strict           bool
	stores           *blobstore.Resolver
	memoryLimit      int64
	writeRate        int64
	parallelism      int
	failFast         bool
	compression      CompressionLevel
}

// Option configures Convert, NewConverter and RunBatch.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger on stderr with the specified level.
// Convenience wrapper for WithLogger(NewTextLogger(os.Stderr, level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(os.Stderr, level)
	}
}

// WithMetricsCollector reports every conversion to mc.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithCodec configures the JSON implementation used to parse metadata and
// encode the output.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithIndent sets the indentation of the output document. An empty
// string produces compact output.
func WithIndent(indent string) Option {
	return func(o *options) {
		o.indent = indent
	}
}

// WithStrictMetadata rejects metadata arrays whose length differs from the
// number of vectors. Objects and scalars are never checked.
func WithStrictMetadata(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithStores resolves locations through r, which enables object store
// schemes such as "s3://". Local paths are always supported.
func WithStores(r *blobstore.Resolver) Option {
	return func(o *options) {
		o.stores = r
	}
}

// WithMemoryLimit caps the bytes of reconstructed vectors held at once
// across the jobs of a Converter. Zero means unlimited.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithWriteRateLimit caps output throughput in bytes per second. Zero
// means unlimited.
func WithWriteRateLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.writeRate = bytesPerSec
	}
}

// WithParallelism sets how many jobs RunBatch runs concurrently.
// Values below 1 select runtime.GOMAXPROCS(0).
func WithParallelism(n int) Option {
	return func(o *options) {
		o.parallelism = n
	}
}

// WithFailFast makes RunBatch cancel the remaining jobs after the first
// failure.
func WithFailFast(failFast bool) Option {
	return func(o *options) {
		o.failFast = failFast
	}
}

// WithCompressionLevel sets the level used when the output name asks for
// compression (".gz", ".zst", ".lz4").
func WithCompressionLevel(level CompressionLevel) Option {
	return func(o *options) {
		o.compression = level
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		codec:            codec.Default,
		indent:           DefaultIndent,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.stores == nil {
		o.stores = blobstore.NewResolver(nil)
	}
	if o.parallelism < 1 {
		o.parallelism = runtime.GOMAXPROCS(0)
	}
	return o
}
