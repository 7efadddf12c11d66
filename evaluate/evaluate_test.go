package evaluate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/ranker"
	"github.com/hupe1980/leadrec/tfidf"
)

type mockPredictor struct {
	mock.Mock
	rows map[string]int
}

func (m *mockPredictor) Predict(ctx context.Context, ids []string, topn int) ([]model.Recommendation, model.MatchStats, error) {
	args := m.Called(ctx, ids, topn)
	recs, _ := args.Get(0).([]model.Recommendation)
	return recs, args.Get(1).(model.MatchStats), args.Error(2)
}

func (m *mockPredictor) Lookup(id string) (int, bool) {
	row, ok := m.rows[id]
	return row, ok
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("c%02d", i)
	}
	return out
}

func TestSplit_Reproducible(t *testing.T) {
	all := ids(10)

	train, test, err := Split(all, 0.3, 42)
	require.NoError(t, err)
	assert.Len(t, test, 3)
	assert.Len(t, train, 7)

	for range 5 {
		train2, test2, err := Split(all, 0.3, 42)
		require.NoError(t, err)
		assert.Equal(t, test, test2)
		assert.Equal(t, train, train2)
	}

	union := append(slices.Clone(train), test...)
	slices.Sort(union)
	assert.Equal(t, all, union)
	for _, id := range test {
		assert.NotContains(t, train, id)
	}

	_, other, err := Split(all, 0.3, 7)
	require.NoError(t, err)
	assert.Len(t, other, 3)
}

func TestSplit_Sizes(t *testing.T) {
	tests := []struct {
		n        int
		fraction float64
		nTest    int
	}{
		{2, 0.3, 1},
		{3, 0.5, 2},
		{7, 0.3, 3},
		{100, 0.25, 25},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%g", tt.n, tt.fraction), func(t *testing.T) {
			train, test, err := Split(ids(tt.n), tt.fraction, 1)
			require.NoError(t, err)
			assert.Len(t, test, tt.nTest)
			assert.Len(t, train, tt.n-tt.nTest)
		})
	}
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		fraction float64
	}{
		{"TooSmall", 1, 0.3},
		{"Empty", 0, 0.3},
		{"ZeroFraction", 10, 0},
		{"OneFraction", 10, 1},
		{"NoTrain", 2, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Split(ids(tt.n), tt.fraction, 42)
			assert.ErrorIs(t, err, model.ErrConfig)
		})
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	p := &mockPredictor{}
	for _, f := range []float64{0, 1, -0.1, 1.5} {
		_, err := New(p, WithTestFraction(f))
		assert.ErrorIs(t, err, model.ErrConfig)
	}
	_, err := New(p, WithTopN(-1))
	assert.ErrorIs(t, err, model.ErrConfig)
}

func TestEvaluate_HitRate(t *testing.T) {
	all := ids(10)
	p := &mockPredictor{rows: map[string]int{}}
	for i, id := range append(slices.Clone(all), "m0", "m1") {
		p.rows[id] = i
	}

	train, test, err := Split(all, 0.3, 42)
	require.NoError(t, err)

	recs := []model.Recommendation{{ID: test[0], Score: 0.9}, {ID: "m0", Score: 0.8}, {ID: test[2], Score: 0.1}}
	p.On("Predict", mock.Anything, train, 30).Return(recs, model.MatchStats{Found: 7, Total: 7}, nil).Once()

	e, err := New(p)
	require.NoError(t, err)
	reports, err := e.Evaluate(context.Background(), [][]string{all})
	require.NoError(t, err)
	require.Len(t, reports, 1)

	r := reports[0]
	assert.NoError(t, r.Err)
	assert.Equal(t, 2, r.Hits)
	assert.Equal(t, 3, r.TestSize)
	assert.Equal(t, 3, r.Recommended)
	assert.InDelta(t, 2.0/3.0, r.HitRate, 1e-12)
	assert.Equal(t, model.MatchStats{Found: 7, Total: 7}, r.Match)
	assert.Equal(t, test, r.Test)
	p.AssertExpectations(t)
}

func TestEvaluate_FixedTopNAndFailures(t *testing.T) {
	p := &mockPredictor{rows: map[string]int{}}
	good := ids(4)
	bad := []string{"x1", "x2", "x3"}
	for i, id := range good {
		p.rows[id] = i
	}

	goodTrain, _, err := Split(good, 0.3, 42)
	require.NoError(t, err)
	badTrain, _, err := Split(bad, 0.3, 42)
	require.NoError(t, err)

	empty := &model.EmptyProfileError{Stats: model.MatchStats{Found: 0, Total: 2}}
	p.On("Predict", mock.Anything, badTrain, 5).Return(nil, empty.Stats, empty).Once()
	p.On("Predict", mock.Anything, goodTrain, 5).Return([]model.Recommendation{}, model.MatchStats{Found: 2, Total: 2}, nil).Once()

	e, err := New(p, WithTopN(5))
	require.NoError(t, err)
	reports, err := e.Evaluate(context.Background(), [][]string{bad, good})
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.ErrorIs(t, reports[0].Err, model.ErrEmptyProfile)
	assert.Equal(t, 0, reports[0].Index)
	assert.Equal(t, empty.Stats, reports[0].Match)
	assert.NoError(t, reports[1].Err)
	assert.Equal(t, 1, reports[1].Index)
	assert.Zero(t, reports[1].HitRate)

	s := Summarize(reports)
	assert.Equal(t, 2, s.Portfolios)
	assert.Equal(t, 1, s.Failed)
	assert.Zero(t, s.MeanHitRate)
	p.AssertExpectations(t)
}

func TestEvaluate_InvalidPortfolioFailsBeforeWork(t *testing.T) {
	p := &mockPredictor{}
	e, err := New(p)
	require.NoError(t, err)

	_, err = e.Evaluate(context.Background(), [][]string{ids(5), {"only"}})
	assert.ErrorIs(t, err, model.ErrConfig)
	p.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_Canceled(t *testing.T) {
	p := &mockPredictor{}
	e, err := New(p)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Evaluate(ctx, [][]string{ids(5)})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestEvaluate_WithRanker(t *testing.T) {
	// Two clusters; a portfolio drawn from one cluster should recover its
	// held-out members before anything from the other.
	c := model.Corpus{}
	for i := range 10 {
		c.IDs = append(c.IDs, fmt.Sprintf("a%d", i))
		c.Contents = append(c.Contents, fmt.Sprintf("sg_uf_SP de_ramo_AGRO idx_a%d", i))
	}
	for i := range 10 {
		c.IDs = append(c.IDs, fmt.Sprintf("b%d", i))
		c.Contents = append(c.Contents, fmt.Sprintf("sg_uf_RJ de_ramo_TI idx_b%d", i))
	}
	m, err := tfidf.Fit(context.Background(), c, tfidf.DefaultParams())
	require.NoError(t, err)
	rk, err := ranker.New(m)
	require.NoError(t, err)

	e, err := New(rk, WithTopN(3))
	require.NoError(t, err)
	reports, err := e.Evaluate(context.Background(), [][]string{c.IDs[:10]})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, 1.0, reports[0].HitRate)
	assert.Equal(t, 3, reports[0].Hits)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Report{
		{HitRate: 0.5, Hits: 1, TestSize: 2},
		{HitRate: 1, Hits: 4, TestSize: 4},
		{Err: errors.New("boom")},
	})
	assert.Equal(t, 3, s.Portfolios)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 5, s.Hits)
	assert.Equal(t, 6, s.TestSize)
	assert.InDelta(t, 0.75, s.MeanHitRate, 1e-12)
	assert.InDelta(t, 5.0/6.0, s.PooledHitRate, 1e-12)

	assert.Equal(t, Summary{}, Summarize(nil))
}
