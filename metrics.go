package leadrec

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/leadrec/model"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; package
// metrics/prom provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordFit is called after each fit. rows and terms describe the
	// resulting model and are zero on failure.
	RecordFit(rows, terms int, duration time.Duration, err error)

	// RecordPredict is called after each predict call with the match
	// statistics of the portfolio and the number of recommendations returned.
	RecordPredict(stats model.MatchStats, returned int, duration time.Duration, err error)

	// RecordEvaluate is called after each evaluation run.
	RecordEvaluate(portfolios, failed int, duration time.Duration)

	// RecordSave is called after an artifact is written.
	RecordSave(bytes int64, duration time.Duration, err error)

	// RecordLoad is called after an artifact is read.
	RecordLoad(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordFit(int, int, time.Duration, error)                  {}
func (NoopMetricsCollector) RecordPredict(model.MatchStats, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordEvaluate(int, int, time.Duration)                    {}
func (NoopMetricsCollector) RecordSave(int64, time.Duration, error)                    {}
func (NoopMetricsCollector) RecordLoad(time.Duration, error)                           {}

// BasicMetricsCollector provides simple in-memory metrics collection.
type BasicMetricsCollector struct {
	FitCount           atomic.Int64
	FitErrors          atomic.Int64
	PredictCount       atomic.Int64
	PredictErrors      atomic.Int64
	PredictTotalNanos  atomic.Int64
	PortfolioIDs       atomic.Int64
	UnresolvedIDs      atomic.Int64
	Recommendations    atomic.Int64
	EvaluateCount      atomic.Int64
	EvaluatePortfolios atomic.Int64
	EvaluateFailed     atomic.Int64
	SaveCount          atomic.Int64
	SaveErrors         atomic.Int64
	SaveBytes          atomic.Int64
	LoadCount          atomic.Int64
	LoadErrors         atomic.Int64
}

// RecordFit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFit(rows, terms int, duration time.Duration, err error) {
	b.FitCount.Add(1)
	if err != nil {
		b.FitErrors.Add(1)
	}
}

// RecordPredict implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPredict(stats model.MatchStats, returned int, duration time.Duration, err error) {
	b.PredictCount.Add(1)
	b.PredictTotalNanos.Add(duration.Nanoseconds())
	b.PortfolioIDs.Add(int64(stats.Total))
	b.UnresolvedIDs.Add(int64(stats.Total - stats.Found))
	b.Recommendations.Add(int64(returned))
	if err != nil {
		b.PredictErrors.Add(1)
	}
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(portfolios, failed int, duration time.Duration) {
	b.EvaluateCount.Add(1)
	b.EvaluatePortfolios.Add(int64(portfolios))
	b.EvaluateFailed.Add(int64(failed))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int64, duration time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(bytes)
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(duration time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		FitCount:           b.FitCount.Load(),
		FitErrors:          b.FitErrors.Load(),
		PredictCount:       b.PredictCount.Load(),
		PredictErrors:      b.PredictErrors.Load(),
		PredictAvgNanos:    b.getAvgPredictNanos(),
		PortfolioIDs:       b.PortfolioIDs.Load(),
		UnresolvedIDs:      b.UnresolvedIDs.Load(),
		Recommendations:    b.Recommendations.Load(),
		EvaluateCount:      b.EvaluateCount.Load(),
		EvaluatePortfolios: b.EvaluatePortfolios.Load(),
		EvaluateFailed:     b.EvaluateFailed.Load(),
		SaveCount:          b.SaveCount.Load(),
		SaveErrors:         b.SaveErrors.Load(),
		SaveBytes:          b.SaveBytes.Load(),
		LoadCount:          b.LoadCount.Load(),
		LoadErrors:         b.LoadErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgPredictNanos() int64 {
	count := b.PredictCount.Load()
	if count == 0 {
		return 0
	}
	return b.PredictTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	FitCount           int64
	FitErrors          int64
	PredictCount       int64
	PredictErrors      int64
	PredictAvgNanos    int64
	PortfolioIDs       int64
	UnresolvedIDs      int64
	Recommendations    int64
	EvaluateCount      int64
	EvaluatePortfolios int64
	EvaluateFailed     int64
	SaveCount          int64
	SaveErrors         int64
	SaveBytes          int64
	LoadCount          int64
	LoadErrors         int64
}
