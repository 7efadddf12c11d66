// Package evaluate measures how well a predictor recovers held-out
// portfolio entries.
//
// Every portfolio is split once into a training and a held-out part. The
// predictor is queried with the training ids and the hit rate is the share of
// held-out ids found among the recommendations. This is a single split, not
// cross-validation.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hupe1980/leadrec/internal/bitmap"
	"github.com/hupe1980/leadrec/model"
)

// Predictor is what the evaluator queries.
type Predictor interface {
	Predict(ctx context.Context, ids []string, topn int) ([]model.Recommendation, model.MatchStats, error)
	Lookup(id string) (int, bool)
}

// Report is the outcome for one portfolio.
type Report struct {
	// Index is the position of the portfolio in the Evaluate input.
	Index int
	Train []string
	Test  []string
	// HitRate is Hits / TestSize.
	HitRate     float64
	Hits        int
	TestSize    int
	Recommended int
	// Match describes how many training ids the predictor resolved.
	Match model.MatchStats
	// Err is the predict error for this portfolio, if any.
	Err error
}

func (r Report) String() string {
	if r.Err != nil {
		return fmt.Sprintf("portfolio %d: %v", r.Index, r.Err)
	}
	return fmt.Sprintf("portfolio %d: hit rate %.4f (%d/%d, %d recommended, matched %s)",
		r.Index, r.HitRate, r.Hits, r.TestSize, r.Recommended, r.Match)
}

// Evaluator runs hold-out evaluations against a Predictor.
type Evaluator struct {
	predictor Predictor
	fraction  float64
	seed      int64
	topn      int
	logger    *slog.Logger
}

// New creates an Evaluator. Options are validated here.
func New(p Predictor, opts ...Option) (*Evaluator, error) {
	o := options{
		fraction: DefaultTestFraction,
		seed:     DefaultSeed,
	}
	for _, fn := range opts {
		fn(&o)
	}

	if !(o.fraction > 0 && o.fraction < 1) {
		return nil, model.NewConfigError("test fraction", o.fraction, "must be within (0, 1)")
	}
	if o.topn < 0 {
		return nil, model.NewConfigError("topn", o.topn, "must be at least 1")
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Evaluator{
		predictor: p,
		fraction:  o.fraction,
		seed:      o.seed,
		topn:      o.topn,
		logger:    logger.With("component", "evaluate"),
	}, nil
}

// Evaluate splits every portfolio and reports its hit rate. All portfolios
// are split before the predictor is queried, so a portfolio that cannot be
// split fails the whole call. A failed prediction is recorded in its Report
// and the remaining portfolios are still evaluated.
func (e *Evaluator) Evaluate(ctx context.Context, portfolios [][]string) ([]Report, error) {
	reports := make([]Report, len(portfolios))
	for i, ids := range portfolios {
		train, test, err := Split(ids, e.fraction, e.seed)
		if err != nil {
			return nil, fmt.Errorf("portfolio %d: %w", i, err)
		}
		reports[i] = Report{Index: i, Train: train, Test: test, TestSize: len(test)}
	}

	for i := range reports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e.evaluate(ctx, &reports[i])
	}

	return reports, nil
}

func (e *Evaluator) evaluate(ctx context.Context, rep *Report) {
	topn := e.topn
	if topn == 0 {
		topn = DefaultTopNFactor * rep.TestSize
	}

	recs, stats, err := e.predictor.Predict(ctx, rep.Train, topn)
	rep.Match = stats
	if err != nil {
		rep.Err = err
		e.logger.DebugContext(ctx, "predict failed", "portfolio", rep.Index, "error", err)
		return
	}
	rep.Recommended = len(recs)

	recommended := bitmap.New()
	for _, r := range recs {
		if row, ok := e.predictor.Lookup(r.ID); ok {
			recommended.Add(row)
		}
	}
	heldOut := bitmap.New()
	for _, id := range rep.Test {
		if row, ok := e.predictor.Lookup(id); ok {
			heldOut.Add(row)
		}
	}

	rep.Hits = recommended.IntersectionLen(heldOut)
	rep.HitRate = float64(rep.Hits) / float64(rep.TestSize)

	e.logger.DebugContext(ctx, "evaluated",
		"portfolio", rep.Index,
		"hit_rate", rep.HitRate,
		"hits", rep.Hits,
		"test_size", rep.TestSize,
	)
}

// Summary aggregates reports.
type Summary struct {
	Portfolios int `json:"portfolios"`
	Failed     int `json:"failed"`
	Hits       int `json:"hits"`
	TestSize   int `json:"test_size"`
	// MeanHitRate averages the hit rates of successful portfolios.
	MeanHitRate float64 `json:"mean_hit_rate"`
	// PooledHitRate is Hits / TestSize over successful portfolios.
	PooledHitRate float64 `json:"pooled_hit_rate"`
}

// Summarize aggregates reports, skipping failed ones in the rates.
func Summarize(reports []Report) Summary {
	s := Summary{Portfolios: len(reports)}
	var sum float64
	for _, r := range reports {
		if r.Err != nil {
			s.Failed++
			continue
		}
		s.Hits += r.Hits
		s.TestSize += r.TestSize
		sum += r.HitRate
	}
	if ok := s.Portfolios - s.Failed; ok > 0 {
		s.MeanHitRate = sum / float64(ok)
	}
	if s.TestSize > 0 {
		s.PooledHitRate = float64(s.Hits) / float64(s.TestSize)
	}
	return s
}
