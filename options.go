package leadrec

import (
	"log/slog"
	"time"

	"github.com/hupe1980/leadrec/codec"
	"github.com/hupe1980/leadrec/persistence"
	"github.com/hupe1980/leadrec/ranker"
	"github.com/hupe1980/leadrec/resource"
	"github.com/hupe1980/leadrec/schema"
	"github.com/hupe1980/leadrec/tfidf"
)

type options struct {
	schema           *schema.Schema
	params           tfidf.Params
	missingThreshold *float64
	batchSize        int
	workers          int
	rc               *resource.Controller
	codec            codec.Codec
	compression      persistence.Compression
	metricsCollector MetricsCollector
	logger           *Logger
	now              func() time.Time
}

// Option configures Fit, New and the Load helpers.
type Option func(*options)

// WithSchema sets the encoding schema. Fit uses the embedded market schema
// when none is given.
func WithSchema(s *schema.Schema) Option {
	return func(o *options) {
		o.schema = s
	}
}

// WithClock stamps the fitted model's CreatedAt. Without it CreatedAt is zero
// and refitting identical input gives a byte-identical artifact.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithParams sets the vectorizer parameters. Defaults to tfidf.DefaultParams.
func WithParams(p tfidf.Params) Option {
	return func(o *options) {
		o.params = p
	}
}

// WithMissingThreshold overrides the schema's missing-value threshold.
func WithMissingThreshold(threshold float64) Option {
	return func(o *options) {
		o.missingThreshold = &threshold
	}
}

// WithBatchSize sets how many portfolio rows are scored per batch.
// Results do not depend on it.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithWorkers bounds the number of batches scored in parallel.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithResourceController caps similarity buffer memory and artifact I/O.
//
// Example:
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 256 << 20})
//	rec, _ := leadrec.Fit(ctx, table, leadrec.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithCodec configures the codec used for the artifact manifest.
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

// WithCompression configures artifact body compression.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &leadrec.BasicMetricsCollector{}
//	rec, _ := leadrec.Fit(ctx, table, leadrec.WithMetricsCollector(metrics))
//	// ... use rec ...
//	stats := metrics.GetStats()
//	fmt.Printf("Predicts: %d, unresolved ids: %d\n", stats.PredictCount, stats.UnresolvedIDs)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		params:           tfidf.DefaultParams(),
		codec:            codec.Default,
		compression:      persistence.CompressionZSTD,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

func (o options) persistenceOptions() []persistence.Option {
	return []persistence.Option{
		persistence.WithCodec(o.codec),
		persistence.WithCompression(o.compression),
		persistence.WithController(o.rc),
		persistence.WithLogger(o.logger.Logger),
	}
}

func (o options) rankerOptions() []ranker.Option {
	opts := []ranker.Option{
		ranker.WithController(o.rc),
		ranker.WithLogger(o.logger.Logger),
	}
	if o.batchSize != 0 {
		opts = append(opts, ranker.WithBatchSize(o.batchSize))
	}
	if o.workers != 0 {
		opts = append(opts, ranker.WithWorkers(o.workers))
	}
	return opts
}

func (o options) fitOptions(s *schema.Schema) []tfidf.Option {
	opts := []tfidf.Option{tfidf.WithLogger(o.logger.Logger)}
	if s != nil {
		opts = append(opts, tfidf.WithSchema(s))
	}
	if o.now != nil {
		opts = append(opts, tfidf.WithClock(o.now))
	}
	return opts
}
