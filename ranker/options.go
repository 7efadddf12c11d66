package ranker

import (
	"log/slog"

	"github.com/hupe1980/leadrec/resource"
)

// DefaultBatchSize is the number of query rows scored per batch.
const DefaultBatchSize = 64

type options struct {
	batchSize int
	workers   int
	rc        *resource.Controller
	logger    *slog.Logger
}

// Option configures a Ranker.
type Option func(*options)

// WithBatchSize sets how many query rows share one similarity buffer.
// It bounds memory only and never changes results.
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.batchSize = n
	}
}

// WithWorkers sets how many batches are scored concurrently per call.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithController shares memory and worker limits across calls.
func WithController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithLogger sets the logger. Pass nil to discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
