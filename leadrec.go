package leadrec

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/leadrec/blobstore"
	"github.com/hupe1980/leadrec/dataset"
	"github.com/hupe1980/leadrec/encoder"
	"github.com/hupe1980/leadrec/evaluate"
	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/persistence"
	"github.com/hupe1980/leadrec/ranker"
	"github.com/hupe1980/leadrec/schema"
	"github.com/hupe1980/leadrec/tfidf"
)

// Recommender is a fitted model ready to answer queries. It is immutable
// and safe for concurrent use.
type Recommender struct {
	model  *tfidf.Model
	ranker *ranker.Ranker
	report encoder.Report

	logger  *Logger
	metrics MetricsCollector
	opts    options
}

// Fit encodes t with the configured schema and builds the vector space
// index over it.
func Fit(ctx context.Context, t *dataset.Table, opts ...Option) (*Recommender, error) {
	o := applyOptions(opts)
	start := time.Now()

	rec, err := fit(ctx, t, o)
	if err != nil {
		o.logger.LogFit(ctx, tableLen(t), 0, nil, time.Since(start), err)
		o.metricsCollector.RecordFit(0, 0, time.Since(start), err)
		return nil, err
	}

	o.logger.LogFit(ctx, rec.model.Len(), len(rec.model.Terms()), rec.report.DroppedMissing, time.Since(start), nil)
	o.metricsCollector.RecordFit(rec.model.Len(), len(rec.model.Terms()), time.Since(start), nil)
	return rec, nil
}

func fit(ctx context.Context, t *dataset.Table, o options) (*Recommender, error) {
	s := o.schema
	if s == nil {
		var err error
		if s, err = schema.Default(); err != nil {
			return nil, err
		}
	}

	encOpts := []encoder.Option{encoder.WithLogger(o.logger.Logger)}
	if o.missingThreshold != nil {
		encOpts = append(encOpts, encoder.WithMissingThreshold(*o.missingThreshold))
	}
	enc, err := encoder.New(s, encOpts...)
	if err != nil {
		return nil, err
	}
	corpus, report, err := enc.EncodeReport(ctx, t)
	if err != nil {
		return nil, err
	}

	m, err := tfidf.Fit(ctx, corpus, o.params, o.fitOptions(s)...)
	if err != nil {
		return nil, err
	}
	rec, err := newRecommender(m, o)
	if err != nil {
		return nil, err
	}
	rec.report = report
	return rec, nil
}

// FitCorpus builds a Recommender over an already encoded corpus.
func FitCorpus(ctx context.Context, corpus model.Corpus, opts ...Option) (*Recommender, error) {
	o := applyOptions(opts)
	start := time.Now()

	m, err := tfidf.Fit(ctx, corpus, o.params, o.fitOptions(o.schema)...)
	var rec *Recommender
	if err == nil {
		rec, err = newRecommender(m, o)
	}
	if err != nil {
		o.logger.LogFit(ctx, corpus.Len(), 0, nil, time.Since(start), err)
		o.metricsCollector.RecordFit(0, 0, time.Since(start), err)
		return nil, err
	}

	o.logger.LogFit(ctx, m.Len(), len(m.Terms()), nil, time.Since(start), nil)
	o.metricsCollector.RecordFit(m.Len(), len(m.Terms()), time.Since(start), nil)
	return rec, nil
}

// New wraps a fitted or loaded model.
func New(m *tfidf.Model, opts ...Option) (*Recommender, error) {
	if m == nil {
		return nil, fmt.Errorf("leadrec: nil model")
	}
	return newRecommender(m, applyOptions(opts))
}

func newRecommender(m *tfidf.Model, o options) (*Recommender, error) {
	rk, err := ranker.New(m, o.rankerOptions()...)
	if err != nil {
		return nil, err
	}
	return &Recommender{
		model:   m,
		ranker:  rk,
		logger:  o.logger.WithModel(m.ID.String()),
		metrics: o.metricsCollector,
		opts:    o,
	}, nil
}

func tableLen(t *dataset.Table) int {
	if t == nil {
		return 0
	}
	return t.Len()
}

// Model returns the underlying TF-IDF model.
func (r *Recommender) Model() *tfidf.Model { return r.model }

// ID returns the model id.
func (r *Recommender) ID() uuid.UUID { return r.model.ID }

// Len returns the number of market entries in the model.
func (r *Recommender) Len() int { return r.model.Len() }

// Schema returns the schema the model was encoded with, or nil.
func (r *Recommender) Schema() *schema.Schema { return r.model.Schema }

// EncodeReport returns the column decisions of the fit. It is empty for
// recommenders built by FitCorpus, New or a Load helper.
func (r *Recommender) EncodeReport() encoder.Report { return r.report }

// Lookup returns the corpus row of id.
func (r *Recommender) Lookup(id string) (int, bool) { return r.model.Lookup(id) }

// Predict returns up to topn market entries that are not part of
// portfolio, most similar first. Unknown ids only show up in the returned
// MatchStats; if none resolve, the error is an *EmptyProfileError.
func (r *Recommender) Predict(ctx context.Context, portfolio []string, topn int) ([]model.Recommendation, model.MatchStats, error) {
	start := time.Now()
	recs, stats, err := r.ranker.Predict(ctx, portfolio, topn)
	elapsed := time.Since(start)

	r.logger.LogPredict(ctx, topn, len(recs), stats, elapsed, err)
	r.metrics.RecordPredict(stats, len(recs), elapsed, err)
	return recs, stats, err
}

// Evaluate runs a hold-out evaluation of every portfolio against this model.
func (r *Recommender) Evaluate(ctx context.Context, portfolios [][]string, opts ...evaluate.Option) ([]evaluate.Report, error) {
	start := time.Now()
	opts = append([]evaluate.Option{evaluate.WithLogger(r.logger.Logger)}, opts...)

	ev, err := evaluate.New(r.ranker, opts...)
	if err != nil {
		r.logger.LogEvaluate(ctx, len(portfolios), 0, 0, time.Since(start), err)
		return nil, err
	}
	reports, err := ev.Evaluate(ctx, portfolios)
	if err != nil {
		r.logger.LogEvaluate(ctx, len(portfolios), 0, 0, time.Since(start), err)
		return nil, err
	}

	sum := evaluate.Summarize(reports)
	r.logger.LogEvaluate(ctx, sum.Portfolios, sum.Failed, sum.MeanHitRate, time.Since(start), nil)
	r.metrics.RecordEvaluate(sum.Portfolios, sum.Failed, time.Since(start))
	return reports, nil
}

// Save writes the model artifact to w.
func (r *Recommender) Save(ctx context.Context, w io.Writer) (int64, error) {
	start := time.Now()
	n, err := persistence.Save(ctx, w, r.model, r.opts.persistenceOptions()...)
	r.logger.LogSave(ctx, "writer", n, err)
	r.metrics.RecordSave(n, time.Since(start), err)
	return n, err
}

// SaveFile atomically writes the model artifact to path.
func (r *Recommender) SaveFile(ctx context.Context, path string) error {
	start := time.Now()
	err := persistence.SaveFile(ctx, path, r.model, r.opts.persistenceOptions()...)
	var size int64
	if err == nil {
		size = fileSize(path)
	}
	r.logger.LogSave(ctx, path, size, err)
	r.metrics.RecordSave(size, time.Since(start), err)
	return err
}

// Publish uploads the model to reg and makes it the current model.
func (r *Recommender) Publish(ctx context.Context, reg *persistence.Registry) (string, error) {
	start := time.Now()
	name, err := reg.Publish(ctx, r.model)
	var size int64
	if err == nil {
		size = blobSize(ctx, reg.Store(), name)
	}
	r.logger.LogSave(ctx, name, size, err)
	r.metrics.RecordSave(size, time.Since(start), err)
	return name, translateError(err)
}

// NewRegistry creates a model registry over store that saves and loads
// with the codec, compression, controller and logger of opts.
func NewRegistry(store blobstore.BlobStore, opts ...Option) *persistence.Registry {
	o := applyOptions(opts)
	return persistence.NewRegistry(store, o.persistenceOptions()...)
}

// Load reads a model artifact from rd.
func Load(ctx context.Context, rd io.Reader, opts ...Option) (*Recommender, error) {
	o := applyOptions(opts)
	return load(ctx, o, "reader", func() (*tfidf.Model, error) {
		return persistence.Load(ctx, rd, o.persistenceOptions()...)
	})
}

// LoadFile reads the model artifact at path.
func LoadFile(ctx context.Context, path string, opts ...Option) (*Recommender, error) {
	o := applyOptions(opts)
	return load(ctx, o, path, func() (*tfidf.Model, error) {
		return persistence.LoadFile(ctx, path, o.persistenceOptions()...)
	})
}

// LoadCurrent loads the current model of reg.
func LoadCurrent(ctx context.Context, reg *persistence.Registry, opts ...Option) (*Recommender, error) {
	o := applyOptions(opts)
	return load(ctx, o, persistence.CurrentName, func() (*tfidf.Model, error) {
		return reg.LoadCurrent(ctx)
	})
}

func load(ctx context.Context, o options, source string, fn func() (*tfidf.Model, error)) (*Recommender, error) {
	start := time.Now()
	m, err := fn()
	var rec *Recommender
	if err == nil {
		rec, err = newRecommender(m, o)
	}
	err = translateError(err)

	rows := 0
	if rec != nil {
		rows = rec.Len()
	}
	o.logger.LogLoad(ctx, source, rows, err)
	o.metricsCollector.RecordLoad(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func blobSize(ctx context.Context, store blobstore.BlobStore, name string) int64 {
	b, err := store.Open(ctx, name)
	if err != nil {
		return 0
	}
	defer func() { _ = b.Close() }()
	return b.Size()
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}
