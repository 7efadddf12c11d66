package encoder

import "log/slog"

type options struct {
	threshold *float64
	logger    *slog.Logger
}

// Option configures an Encoder.
type Option func(*options)

// WithMissingThreshold sets the maximum tolerated missing fraction per
// column. It takes precedence over the schema's missing_threshold.
func WithMissingThreshold(threshold float64) Option {
	return func(o *options) {
		o.threshold = &threshold
	}
}

// WithLogger sets the logger used for drop decisions. Pass nil to discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
