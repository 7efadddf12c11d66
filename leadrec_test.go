package leadrec

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/blobstore"
	"github.com/hupe1980/leadrec/codec"
	"github.com/hupe1980/leadrec/dataset"
	"github.com/hupe1980/leadrec/evaluate"
	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/persistence"
	"github.com/hupe1980/leadrec/schema"
	"github.com/hupe1980/leadrec/testutil"
)

func market(t *testing.T, seed int64) (*dataset.Table, []int) {
	t.Helper()
	return testutil.NewRNG(seed).Market(schema.MustDefault(), testutil.MarketConfig{
		Records:     150,
		Clusters:    3,
		MissingRate: 0.05,
	})
}

func fitMarket(t *testing.T, opts ...Option) (*Recommender, *dataset.Table, []int) {
	t.Helper()
	table, clusters := market(t, 42)
	rec, err := Fit(context.Background(), table, opts...)
	require.NoError(t, err)
	return rec, table, clusters
}

func TestFit(t *testing.T) {
	rec, table, _ := fitMarket(t)

	assert.Equal(t, table.Len(), rec.Len())
	assert.NotEmpty(t, rec.Model().Terms())
	assert.NotEmpty(t, rec.EncodeReport().Used)
	require.NotNil(t, rec.Schema())
	assert.Equal(t, schema.MustDefault().Version, rec.Schema().Version)

	row, ok := rec.Lookup(table.Records[7].ID)
	require.True(t, ok)
	assert.Equal(t, 7, row)
}

func TestFit_Errors(t *testing.T) {
	ctx := context.Background()
	table, _ := market(t, 1)

	_, err := Fit(ctx, nil)
	assert.ErrorIs(t, err, ErrSchema)

	_, err = Fit(ctx, table, WithMissingThreshold(1.5))
	assert.ErrorIs(t, err, ErrConfig)

	_, err = Fit(ctx, table, WithBatchSize(-1))
	assert.ErrorIs(t, err, ErrConfig)

	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "batch size", ce.Param)
}

func TestFitCorpus_IdenticalContents(t *testing.T) {
	rec, err := FitCorpus(context.Background(), model.Corpus{
		IDs:      []string{"1", "2", "3"},
		Contents: []string{"sg_uf_SP fl_rm_True", "sg_uf_SP fl_rm_True", "sg_uf_SP fl_rm_True"},
	})
	require.NoError(t, err)

	recs, stats, err := rec.Predict(context.Background(), []string{"1"}, 10)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStats{Found: 1, Total: 1}, stats)
	assert.Equal(t, []model.Recommendation{{ID: "2", Score: 1.0}, {ID: "3", Score: 1.0}}, recs)
}

func TestFit_ByteIdenticalArtifacts(t *testing.T) {
	ctx := context.Background()
	corpus := model.Corpus{
		IDs:      []string{"a", "b", "c"},
		Contents: []string{"sg_uf_SP de_ramo_AGRO", "sg_uf_RJ de_ramo_AGRO", "sg_uf_SP de_ramo_TI"},
	}
	table, _ := market(t, 8)

	tests := []struct {
		name string
		fit  func() (*Recommender, error)
	}{
		{"corpus", func() (*Recommender, error) { return FitCorpus(ctx, corpus) }},
		{"table", func() (*Recommender, error) { return Fit(ctx, table) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := tt.fit()
			require.NoError(t, err)
			b, err := tt.fit()
			require.NoError(t, err)
			assert.Equal(t, a.ID(), b.ID())

			var bufA, bufB bytes.Buffer
			_, err = a.Save(ctx, &bufA)
			require.NoError(t, err)
			_, err = b.Save(ctx, &bufB)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(bufA.Bytes(), bufB.Bytes()))
		})
	}

	ts := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	stamped, err := FitCorpus(ctx, corpus, WithClock(func() time.Time { return ts }))
	require.NoError(t, err)
	assert.Equal(t, ts, stamped.Model().CreatedAt)
}

func TestPredict(t *testing.T) {
	rec, table, clusters := fitMarket(t, WithBatchSize(8), WithWorkers(4))
	portfolio := testutil.NewRNG(9).Portfolio(table, clusters, 1, 12)
	portfolio = append(portfolio, "not-in-market")

	recs, stats, err := rec.Predict(context.Background(), portfolio, 20)
	require.NoError(t, err)
	assert.Equal(t, model.MatchStats{Found: len(portfolio) - 1, Total: len(portfolio)}, stats)
	assert.Equal(t, testutil.BruteForceTopN(rec.Model(), portfolio, 20), recs)

	inPortfolio := map[string]bool{}
	for _, id := range portfolio {
		inPortfolio[id] = true
	}
	for i, r := range recs {
		assert.False(t, inPortfolio[r.ID], r.ID)
		if i > 0 {
			assert.GreaterOrEqual(t, recs[i-1].Score, r.Score)
		}
	}
}

func TestPredict_EmptyProfile(t *testing.T) {
	rec, _, _ := fitMarket(t)

	recs, stats, err := rec.Predict(context.Background(), []string{"absent"}, 5)
	assert.Nil(t, recs)
	assert.ErrorIs(t, err, ErrEmptyProfile)
	assert.Equal(t, model.MatchStats{Found: 0, Total: 1}, stats)

	var epe *EmptyProfileError
	require.True(t, errors.As(err, &epe))
	assert.Equal(t, stats, epe.Stats)
}

func TestEvaluate(t *testing.T) {
	rec, table, clusters := fitMarket(t)
	rng := testutil.NewRNG(5)
	portfolios := [][]string{
		rng.Portfolio(table, clusters, 0, 10),
		rng.Portfolio(table, clusters, 2, 20),
	}

	a, err := rec.Evaluate(context.Background(), portfolios, evaluate.WithSeed(42))
	require.NoError(t, err)
	b, err := rec.Evaluate(context.Background(), portfolios, evaluate.WithSeed(42))
	require.NoError(t, err)
	require.Len(t, a, 2)

	assert.Len(t, a[0].Test, 3)
	for i := range a {
		require.NoError(t, a[i].Err)
		assert.Equal(t, a[i].Test, b[i].Test)
		assert.Equal(t, a[i].HitRate, b[i].HitRate)
		assert.GreaterOrEqual(t, a[i].HitRate, 0.0)
		assert.LessOrEqual(t, a[i].HitRate, 1.0)
	}

	_, err = rec.Evaluate(context.Background(), [][]string{{"only-one"}})
	assert.ErrorIs(t, err, ErrConfig)

	_, err = rec.Evaluate(context.Background(), portfolios, evaluate.WithTestFraction(1))
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSaveLoad_PredictEquivalence(t *testing.T) {
	ctx := context.Background()
	table, clusters := market(t, 3)
	portfolio := testutil.NewRNG(3).Portfolio(table, clusters, 0, 8)

	compressions := []persistence.Compression{
		persistence.CompressionNone,
		persistence.CompressionZSTD,
		persistence.CompressionLZ4,
	}
	for _, name := range codec.Names() {
		c, _ := codec.ByName(name)
		for _, comp := range compressions {
			t.Run(name+"/"+comp.String(), func(t *testing.T) {
				rec, err := Fit(ctx, table, WithCodec(c), WithCompression(comp))
				require.NoError(t, err)
				want, wantStats, err := rec.Predict(ctx, portfolio, 30)
				require.NoError(t, err)

				var buf bytes.Buffer
				n, err := rec.Save(ctx, &buf)
				require.NoError(t, err)
				assert.Equal(t, int64(buf.Len()), n)

				loaded, err := Load(ctx, &buf)
				require.NoError(t, err)
				assert.Equal(t, rec.ID(), loaded.ID())

				got, gotStats, err := loaded.Predict(ctx, portfolio, 30)
				require.NoError(t, err)
				assert.Equal(t, want, got)
				assert.Equal(t, wantStats, gotStats)
			})
		}
	}
}

func TestSaveFile_LoadFile(t *testing.T) {
	ctx := context.Background()
	rec, table, _ := fitMarket(t)
	path := filepath.Join(t.TempDir(), "model.lrm")

	require.NoError(t, rec.SaveFile(ctx, path))
	loaded, err := LoadFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, rec.Len(), loaded.Len())

	portfolio := []string{table.Records[0].ID, table.Records[1].ID}
	want, _, err := rec.Predict(ctx, portfolio, 10)
	require.NoError(t, err)
	got, _, err := loaded.Predict(ctx, portfolio, 10)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = LoadFile(ctx, filepath.Join(t.TempDir(), "missing.lrm"))
	assert.Error(t, err)
}

func TestLoad_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := Load(ctx, bytes.NewReader(bytes.Repeat([]byte{'X'}, 128)))
	assert.ErrorIs(t, err, ErrInvalidMagic)

	rec, _, _ := fitMarket(t, WithCompression(persistence.CompressionNone))
	var buf bytes.Buffer
	_, err = rec.Save(ctx, &buf)
	require.NoError(t, err)
	data := buf.Bytes()
	data[len(data)-1] ^= 0xFF

	_, err = Load(ctx, bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrChecksumMismatch)
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(blobstore.NewMemoryStore(), WithCompression(persistence.CompressionLZ4))

	_, err := LoadCurrent(ctx, reg)
	assert.ErrorIs(t, err, ErrModelNotFound)

	rec, _, _ := fitMarket(t)
	name, err := rec.Publish(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, persistence.ModelName(rec.ID()), name)

	loaded, err := LoadCurrent(ctx, reg)
	require.NoError(t, err)
	assert.Equal(t, rec.ID(), loaded.ID())

	entries, err := reg.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Current)
	require.NotNil(t, entries[0].Manifest)
	assert.Equal(t, rec.Len(), entries[0].Manifest.Rows)
}

func TestMetricsCollector(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	rec, table, _ := fitMarket(t, WithMetricsCollector(metrics))

	_, _, err := rec.Predict(ctx, []string{table.Records[0].ID, "missing"}, 5)
	require.NoError(t, err)
	_, _, err = rec.Predict(ctx, []string{"missing"}, 5)
	require.Error(t, err)

	var buf bytes.Buffer
	_, err = rec.Save(ctx, &buf)
	require.NoError(t, err)
	_, err = Load(ctx, &buf, WithMetricsCollector(metrics))
	require.NoError(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(1), stats.FitCount)
	assert.Equal(t, int64(2), stats.PredictCount)
	assert.Equal(t, int64(1), stats.PredictErrors)
	assert.Equal(t, int64(3), stats.PortfolioIDs)
	assert.Equal(t, int64(2), stats.UnresolvedIDs)
	assert.Equal(t, int64(5), stats.Recommendations)
	assert.Equal(t, int64(1), stats.SaveCount)
	assert.Positive(t, stats.SaveBytes)
	assert.Equal(t, int64(1), stats.LoadCount)
	assert.Zero(t, stats.LoadErrors)
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	rec, table, _ := fitMarket(t, WithLogger(logger))
	_, _, err := rec.Predict(ctx, []string{table.Records[0].ID, "missing"}, 5)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"fit completed"`)
	assert.Contains(t, out, `"msg":"predict completed with unresolved ids"`)
	assert.Contains(t, out, `"model_id":"`+rec.ID().String()+`"`)

	assert.NotNil(t, NewLogger(nil))
	assert.NotPanics(t, func() {
		NoopLogger().LogLoad(ctx, "x", 0, errors.New("boom"))
	})
}

func TestTranslateError(t *testing.T) {
	assert.Nil(t, translateError(nil))
	assert.ErrorIs(t, translateError(persistence.ErrNoCurrentModel), ErrModelNotFound)
	assert.ErrorIs(t, translateError(blobstore.ErrNotFound), ErrModelNotFound)

	other := errors.New("other")
	assert.Equal(t, other, translateError(other))
}
