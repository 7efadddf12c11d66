// Package ranker scores unseen market entries against a portfolio.
//
// A portfolio is resolved to model rows, each resolved row is compared with
// every corpus row by cosine similarity, and the score of a corpus entry is
// the mean similarity over the resolved rows. Entries of the portfolio itself
// are never recommended.
//
// Similarities are accumulated in float64 in a fixed order and summed into
// the totals in query order, so the result does not depend on the batch
// size, the number of workers or the memory limit.
package ranker

import (
	"cmp"
	"context"
	"log/slog"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/leadrec/distance"
	"github.com/hupe1980/leadrec/internal/bitmap"
	"github.com/hupe1980/leadrec/internal/sparse"
	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/resource"
	"github.com/hupe1980/leadrec/tfidf"
)

// Ranker answers Predict calls over one fitted model. It is safe for
// concurrent use.
type Ranker struct {
	model   *tfidf.Model
	rows    *sparse.CSR
	columns *sparse.CSR
	sqNorms []float64

	batchSize int
	workers   int
	rc        *resource.Controller
	buffers   bufferSource
	logger    *slog.Logger
}

// bufferSource hands out similarity buffers. get is called only while the
// buffer's bytes are reserved; put is called before they are released.
type bufferSource interface {
	get(size int) []float64
	put(buf []float64)
}

type heapBuffers struct{}

func (heapBuffers) get(size int) []float64 { return make([]float64, size) }

func (heapBuffers) put([]float64) {}

// New prepares a Ranker for m.
func New(m *tfidf.Model, opts ...Option) (*Ranker, error) {
	o := options{
		batchSize: DefaultBatchSize,
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, fn := range opts {
		fn(&o)
	}

	if o.batchSize < 1 {
		return nil, model.NewConfigError("batch size", o.batchSize, "must be at least 1")
	}
	if o.workers < 1 {
		return nil, model.NewConfigError("workers", o.workers, "must be at least 1")
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	rows := m.Matrix()
	sqNorms := make([]float64, rows.Rows())
	for r := range sqNorms {
		_, val := rows.Row(r)
		sqNorms[r] = distance.SquaredNorm(val)
	}

	return &Ranker{
		model:     m,
		rows:      rows,
		columns:   rows.Transpose(),
		sqNorms:   sqNorms,
		batchSize: o.batchSize,
		workers:   o.workers,
		rc:        o.rc,
		buffers:   heapBuffers{},
		logger:    logger.With("component", "ranker"),
	}, nil
}

// Model returns the model the ranker scores against.
func (rk *Ranker) Model() *tfidf.Model { return rk.model }

// Lookup returns the corpus row of id.
func (rk *Ranker) Lookup(id string) (int, bool) { return rk.model.Lookup(id) }

// Predict returns up to topn corpus entries not in portfolio, best first.
//
// Ids that are not in the model are skipped and only show up in the returned
// MatchStats. If none resolve, the error is a *model.EmptyProfileError and
// the stats are returned as well.
func (rk *Ranker) Predict(ctx context.Context, portfolio []string, topn int) ([]model.Recommendation, model.MatchStats, error) {
	if topn < 1 {
		return nil, model.MatchStats{}, model.NewConfigError("topn", topn, "must be at least 1")
	}

	stats := model.MatchStats{Total: len(portfolio)}
	query := make([]int, 0, len(portfolio))
	exclude := bitmap.New()
	for _, id := range portfolio {
		if row, ok := rk.model.Lookup(id); ok {
			query = append(query, row)
			exclude.Add(row)
		}
	}
	stats.Found = len(query)

	if stats.Found == 0 {
		return nil, stats, &model.EmptyProfileError{Stats: stats}
	}

	totals, err := rk.sum(ctx, query)
	if err != nil {
		return nil, stats, err
	}

	candidates := make([]int, 0, len(totals)-exclude.Len())
	for r := range totals {
		if !exclude.Contains(r) {
			candidates = append(candidates, r)
		}
	}

	n := float64(stats.Found)
	scores := make([]float64, len(totals))
	for _, r := range candidates {
		scores[r] = totals[r] / n
	}
	// Stable, so equal scores keep corpus order.
	slices.SortStableFunc(candidates, func(a, b int) int {
		return cmp.Compare(scores[b], scores[a])
	})

	k := min(topn, len(candidates))
	recs := make([]model.Recommendation, k)
	for i, r := range candidates[:k] {
		recs[i] = model.Recommendation{ID: rk.model.IDAt(r), Score: scores[r]}
	}

	rk.logger.DebugContext(ctx, "predicted",
		"found", stats.Found,
		"total", stats.Total,
		"pool", len(candidates),
		"returned", k,
	)

	return recs, stats, nil
}

// sum returns, per corpus row, the sum of its similarities to every query
// row, added in query order.
//
// Buffers are taken only after their bytes are reserved with the controller
// and handed back before the reservation is released. When a full wave
// cannot be reserved right away, a single batch is reserved instead. A batch
// that finds no free worker slot is scored on the calling goroutine.
func (rk *Ranker) sum(ctx context.Context, query []int) ([]float64, error) {
	n := rk.rows.Rows()
	totals := make([]float64, n)
	if n == 0 {
		return totals, nil
	}

	rowBytes := int64(n) * 8
	batch := min(rk.batchSize, len(query))
	wave := rk.workers
	if limit := rk.rc.MemoryLimit(); limit > 0 {
		batch = max(1, min(batch, int(limit/rowBytes)))
		wave = max(1, min(wave, int(limit/(rowBytes*int64(batch)))))
	}

	var batches [][]int
	for start := 0; start < len(query); start += batch {
		batches = append(batches, query[start:min(start+batch, len(query))])
	}

	waveBytes := func(current [][]int) int64 {
		var rows int
		for _, b := range current {
			rows += len(b)
		}
		return rowBytes * int64(rows)
	}

	for start := 0; start < len(batches); {
		current := batches[start:min(start+wave, len(batches))]
		reserve := waveBytes(current)
		if !rk.rc.TryAcquireMemory(reserve) {
			current = current[:1]
			reserve = waveBytes(current)
			if err := rk.rc.AcquireMemory(ctx, reserve); err != nil {
				return nil, err
			}
		}
		start += len(current)

		buffers := make([][]float64, len(current))
		for i, rows := range current {
			buffers[i] = rk.buffers.get(len(rows) * n)
		}
		err := rk.score(ctx, current, buffers, n)
		if err == nil {
			for i, rows := range current {
				for q := range rows {
					for r, v := range buffers[i][q*n : (q+1)*n] {
						totals[r] += v
					}
				}
			}
		}
		for _, buf := range buffers {
			rk.buffers.put(buf)
		}
		rk.rc.ReleaseMemory(reserve)
		if err != nil {
			return nil, err
		}
	}

	return totals, nil
}

// score fills one buffer per batch. Batches that get a worker slot run on
// their own goroutine; the first one that does not runs here.
func (rk *Ranker) score(ctx context.Context, current [][]int, buffers [][]float64, n int) error {
	g, gctx := errgroup.WithContext(ctx)
	inline := -1
	for i, rows := range current {
		buf := buffers[i]
		switch {
		case rk.rc.TryAcquireWorker():
			g.Go(func() error {
				defer rk.rc.ReleaseWorker()
				rk.similarities(rows, buf, n)
				return nil
			})
		case inline < 0:
			inline = i
		default:
			g.Go(func() error {
				if err := rk.rc.AcquireWorker(gctx); err != nil {
					return err
				}
				defer rk.rc.ReleaseWorker()
				rk.similarities(rows, buf, n)
				return nil
			})
		}
	}
	if inline >= 0 {
		rk.similarities(current[inline], buffers[inline], n)
	}
	return g.Wait()
}

// similarities writes the cosine similarity of every query row against
// every corpus row into buf, one stretch of n values per query row.
func (rk *Ranker) similarities(query []int, buf []float64, n int) {
	for q, row := range query {
		out := buf[q*n : (q+1)*n]
		clear(out)

		terms, weights := rk.rows.Row(row)
		for k, term := range terms {
			w := float64(weights[k])
			docs, vals := rk.columns.Row(int(term))
			for j, d := range docs {
				out[d] += w * float64(vals[j])
			}
		}

		nq := rk.sqNorms[row]
		for r, dot := range out {
			out[r] = distance.Cosine(dot, nq, rk.sqNorms[r])
		}
	}
}
