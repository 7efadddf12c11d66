package evaluate

import "log/slog"

const (
	// DefaultTestFraction is the share of each portfolio held out.
	DefaultTestFraction = 0.3
	// DefaultSeed seeds the split shuffle.
	DefaultSeed = 42
	// DefaultTopNFactor scales the held-out size into topn when no topn is set.
	DefaultTopNFactor = 10
)

type options struct {
	fraction float64
	seed     int64
	topn     int
	logger   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*options)

// WithTestFraction sets the held-out share of each portfolio.
func WithTestFraction(f float64) Option {
	return func(o *options) {
		o.fraction = f
	}
}

// WithSeed sets the split seed.
func WithSeed(seed int64) Option {
	return func(o *options) {
		o.seed = seed
	}
}

// WithTopN fixes the number of recommendations requested per portfolio.
// By default it is ten times the portfolio's held-out size.
func WithTopN(n int) Option {
	return func(o *options) {
		o.topn = n
	}
}

// WithLogger sets the logger. Pass nil to discard.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
