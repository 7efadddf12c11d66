package tfidf

import (
	"log/slog"
	"time"

	"github.com/hupe1980/leadrec/schema"
)

type options struct {
	schema *schema.Schema
	logger *slog.Logger
	now    func() time.Time
}

// Option configures Fit.
type Option func(*options)

// WithSchema records the schema the corpus was encoded with in the model.
func WithSchema(s *schema.Schema) Option {
	return func(o *options) {
		o.schema = s
	}
}

// WithLogger sets the logger for fit statistics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock stamps CreatedAt from now. Without it CreatedAt stays zero and
// two fits of the same corpus produce byte-identical artifacts.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}
