package leadrec

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/hupe1980/leadrec/model"
)

// Logger wraps slog.Logger with recommender-specific helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, a no-op logger is returned.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		return NoopLogger()
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON to stdout.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger returns a Logger that discards all output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.DiscardHandler)}
}

// WithModel returns a logger tagged with the model id.
func (l *Logger) WithModel(id string) *Logger {
	return &Logger{Logger: l.With("model_id", id)}
}

// WithTopN returns a logger tagged with the requested result count.
func (l *Logger) WithTopN(topn int) *Logger {
	return &Logger{Logger: l.With("topn", topn)}
}

// WithRows returns a logger tagged with a corpus size.
func (l *Logger) WithRows(rows int) *Logger {
	return &Logger{Logger: l.With("rows", rows)}
}

// LogFit logs a fit.
func (l *Logger) LogFit(ctx context.Context, rows, terms int, dropped []string, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "fit failed", "rows", rows, "error", err)
		return
	}
	l.InfoContext(ctx, "fit completed",
		"rows", rows,
		"terms", terms,
		"dropped_columns", dropped,
		"duration", elapsed,
	)
}

// LogPredict logs a predict call. Unresolved portfolio ids are a warning,
// not an error.
func (l *Logger) LogPredict(ctx context.Context, topn, returned int, stats model.MatchStats, elapsed time.Duration, err error) {
	switch {
	case err != nil:
		l.ErrorContext(ctx, "predict failed", "topn", topn, "found", stats.Found, "total", stats.Total, "error", err)
	case stats.Found < stats.Total:
		l.WarnContext(ctx, "predict completed with unresolved ids",
			"topn", topn,
			"returned", returned,
			"found", stats.Found,
			"total", stats.Total,
			"duration", elapsed,
		)
	default:
		l.DebugContext(ctx, "predict completed",
			"topn", topn,
			"returned", returned,
			"found", stats.Found,
			"duration", elapsed,
		)
	}
}

// LogEvaluate logs an evaluation run.
func (l *Logger) LogEvaluate(ctx context.Context, portfolios, failed int, meanHitRate float64, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "evaluate failed", "portfolios", portfolios, "error", err)
		return
	}
	l.InfoContext(ctx, "evaluate completed",
		"portfolios", portfolios,
		"failed", failed,
		"mean_hit_rate", meanHitRate,
		"duration", elapsed,
	)
}

// LogSave logs writing a model artifact.
func (l *Logger) LogSave(ctx context.Context, target string, bytes int64, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed", "target", target, "error", err)
		return
	}
	l.InfoContext(ctx, "model saved", "target", target, "bytes", bytes)
}

// LogLoad logs reading a model artifact.
func (l *Logger) LogLoad(ctx context.Context, source string, rows int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed", "source", source, "error", err)
		return
	}
	l.InfoContext(ctx, "model loaded", "source", source, "rows", rows)
}
