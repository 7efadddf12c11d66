package testutil

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/hupe1980/leadrec/codec"
	"github.com/hupe1980/leadrec/dataset"
	"github.com/hupe1980/leadrec/distance"
	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/schema"
	"github.com/hupe1980/leadrec/tfidf"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Zipf returns a Zipfian-distributed value in [0, n).
// s=1.0 gives standard Zipf, larger s a heavier head.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

// zipfLocked is the internal implementation (caller must hold lock).
func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// MarketConfig shapes a synthetic market.
type MarketConfig struct {
	// Records is the number of rows. Default: 100.
	Records int
	// Clusters is the number of archetypes records are drawn around. Default: 4.
	Clusters int
	// Cohesion is the probability that an attribute copies its archetype.
	// Default: 0.8.
	Cohesion float64
	// MissingRate is the probability that an attribute is missing.
	MissingRate float64
	// Cardinality is the number of distinct categorical values. Default: 6.
	Cardinality int
}

func (c *MarketConfig) defaults() {
	if c.Records <= 0 {
		c.Records = 100
	}
	if c.Clusters <= 0 {
		c.Clusters = 4
	}
	if c.Cohesion == 0 {
		c.Cohesion = 0.8
	}
	if c.Cardinality <= 0 {
		c.Cardinality = 6
	}
}

// Market generates a table following s. It returns the table and the
// archetype of every record. Ids are "c<cluster>-<row>".
func (r *RNG) Market(s *schema.Schema, cfg MarketConfig) (*dataset.Table, []int) {
	cfg.defaults()
	r.mu.Lock()
	defer r.mu.Unlock()

	columns := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		columns[i] = c.Name
	}

	archetypes := make([]map[string]dataset.Value, cfg.Clusters)
	for k := range archetypes {
		archetypes[k] = make(map[string]dataset.Value, len(s.Columns))
		for _, c := range s.Columns {
			archetypes[k][c.Name] = r.valueLocked(s, c, cfg.Cardinality)
		}
	}

	t := dataset.NewTable(columns...)
	clusters := make([]int, cfg.Records)
	for i := range cfg.Records {
		k := r.zipfLocked(cfg.Clusters, 0.5)
		clusters[i] = k
		attrs := make(map[string]dataset.Value, len(s.Columns))
		for _, c := range s.Columns {
			switch {
			case r.rand.Float64() < cfg.MissingRate:
				attrs[c.Name] = dataset.Missing()
			case r.rand.Float64() < cfg.Cohesion:
				attrs[c.Name] = archetypes[k][c.Name]
			default:
				attrs[c.Name] = r.valueLocked(s, c, cfg.Cardinality)
			}
		}
		t.Append(fmt.Sprintf("c%d-%05d", k, i), attrs)
	}
	return t, clusters
}

func (r *RNG) valueLocked(s *schema.Schema, c schema.Column, cardinality int) dataset.Value {
	switch c.Kind {
	case schema.KindBoolean:
		markers := append(slices.Clone(s.TrueValues), s.FalseValues...)
		if len(markers) == 0 || r.rand.Intn(2) == 0 {
			return dataset.Bool(r.rand.Intn(2) == 0)
		}
		return dataset.String(markers[r.rand.Intn(len(markers))])
	case schema.KindNumeric:
		return dataset.Number(float64(r.rand.Intn(100)))
	case schema.KindBucketed:
		lo, hi := c.Edges[0], c.Edges[len(c.Edges)-1]
		return dataset.Number(lo + r.rand.Float64()*(hi-lo+1))
	default:
		return dataset.String(fmt.Sprintf("%s %d", strings.ToUpper(c.Name[:1]), r.rand.Intn(cardinality)))
	}
}

// Portfolio draws up to size distinct ids of records in cluster.
func (r *RNG) Portfolio(t *dataset.Table, clusters []int, cluster, size int) []string {
	var pool []string
	for i, k := range clusters {
		if k == cluster {
			pool = append(pool, t.Records[i].ID)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	return pool[:min(size, len(pool))]
}

// Corpus generates n already encoded entries over a handful of token
// columns. Ids are "id0000", "id0001", ...
func (r *RNG) Corpus(n int) model.Corpus {
	columns := []struct {
		name   string
		values int
	}{{"sg_uf", 5}, {"de_ramo", 8}, {"idade_emp", 4}, {"fl_rm", 2}, {"nm_segmento", 6}}

	r.mu.Lock()
	defer r.mu.Unlock()

	c := model.Corpus{IDs: make([]string, n), Contents: make([]string, n)}
	var sb strings.Builder
	for i := range n {
		sb.Reset()
		for j, col := range columns {
			if j > 0 {
				sb.WriteByte(' ')
			}
			fmt.Fprintf(&sb, "%s_v%d", col.name, r.zipfLocked(col.values, 1.0))
		}
		c.IDs[i] = fmt.Sprintf("id%04d", i)
		c.Contents[i] = sb.String()
	}
	return c
}

// BruteForceTopN ranks m's rows pairwise against portfolio without any
// batching. Every portfolio occurrence contributes; portfolio rows are
// excluded; ties keep corpus order.
func BruteForceTopN(m *tfidf.Model, portfolio []string, topn int) []model.Recommendation {
	mat := m.Matrix()
	var query []int
	excluded := make(map[int]bool)
	for _, id := range portfolio {
		if row, ok := m.Lookup(id); ok {
			query = append(query, row)
			excluded[row] = true
		}
	}
	if len(query) == 0 {
		return nil
	}

	totals := make([]float64, mat.Rows())
	for _, q := range query {
		qi, qv := mat.Row(q)
		sq := distance.SquaredNorm(qv)
		for row := range totals {
			ri, rv := mat.Row(row)
			totals[row] += distance.Cosine(distance.SparseDot(qi, qv, ri, rv), sq, distance.SquaredNorm(rv))
		}
	}

	var recs []model.Recommendation
	for row, total := range totals {
		if !excluded[row] {
			recs = append(recs, model.Recommendation{ID: m.IDAt(row), Score: total / float64(len(query))})
		}
	}
	slices.SortStableFunc(recs, func(a, b model.Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return recs[:min(topn, len(recs))]
}

// MustMarshal encodes v with the default codec and panics on failure.
func MustMarshal(v any) []byte {
	b, err := codec.Default.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s: %w", codec.Default.Name(), err))
	}
	return b
}
