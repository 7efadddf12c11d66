package tfidf

import (
	"bytes"
	"cmp"
	"context"
	"encoding/binary"
	"log/slog"
	"math"
	"slices"

	gojson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/hupe1980/leadrec/internal/sparse"
	"github.com/hupe1980/leadrec/model"
)

type termStat struct {
	term  string
	df    int
	count int
}

// Fit builds a Model over corpus. Parameters are validated before the corpus
// is read. The vocabulary, weights and matrix depend only on the corpus and
// params.
func Fit(ctx context.Context, corpus model.Corpus, params Params, opts ...Option) (*Model, error) {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "tfidf")

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := corpus.Validate(); err != nil {
		return nil, err
	}

	n := corpus.Len()
	docs := make([]map[string]int, n)
	stats := make(map[string]*termStat)
	for i, content := range corpus.Contents {
		counts := analyze(content, params)
		docs[i] = counts
		for term, c := range counts {
			st, ok := stats[term]
			if !ok {
				st = &termStat{term: term}
				stats[term] = st
			}
			st.df++
			st.count += c
		}
	}
	if len(stats) == 0 {
		return nil, model.NewConfigError("corpus", n, "empty vocabulary; documents contain no terms")
	}

	maxDocs := params.MaxDF.limit(n)
	minDocs := params.MinDF.limit(n)
	if maxDocs < minDocs {
		return nil, model.NewConfigError("max_df", params.MaxDF,
			"corresponds to fewer documents than min_df (%s)", params.MinDF)
	}

	kept := make([]*termStat, 0, len(stats))
	for _, st := range stats {
		df := float64(st.df)
		if df <= maxDocs && df >= minDocs {
			kept = append(kept, st)
		}
	}
	if len(kept) == 0 {
		return nil, model.NewConfigError("max_df/min_df", params.MaxDF.String()+"/"+params.MinDF.String(),
			"after pruning, no terms remain")
	}

	slices.SortFunc(kept, func(a, b *termStat) int { return cmp.Compare(a.term, b.term) })
	if params.MaxFeatures > 0 && len(kept) > params.MaxFeatures {
		// Stable on term order, so equal counts keep the smaller term.
		slices.SortStableFunc(kept, func(a, b *termStat) int { return cmp.Compare(b.count, a.count) })
		kept = kept[:params.MaxFeatures]
		slices.SortFunc(kept, func(a, b *termStat) int { return cmp.Compare(a.term, b.term) })
	}

	m := &Model{
		Params:    params,
		Schema:    o.schema,
		terms:     make([]string, len(kept)),
		idf:       make([]float32, len(kept)),
		vocab:     make(map[string]int32, len(kept)),
		ids:       slices.Clone(corpus.IDs),
		contents:  slices.Clone(corpus.Contents),
		rows:      make(map[string]int, n),
	}
	for i, st := range kept {
		m.terms[i] = st.term
		m.idf[i] = float32(computeIDF(n, st.df, params.SmoothIDF))
		m.vocab[st.term] = int32(i)
	}
	for i, id := range m.ids {
		m.rows[id] = i
	}

	b := sparse.NewBuilder(len(m.terms))
	for _, counts := range docs {
		if err := b.AddRow(m.vectorize(counts)); err != nil {
			return nil, err
		}
	}
	m.matrix = b.Build()

	id, err := contentID(m)
	if err != nil {
		return nil, err
	}
	m.ID = id
	if o.now != nil {
		m.CreatedAt = o.now().UTC()
	}

	logger.DebugContext(ctx, "fitted",
		"rows", n,
		"terms", len(m.terms),
		"pruned", len(stats)-len(m.terms),
		"nnz", m.matrix.NNZ(),
	)

	return m, nil
}

// modelNamespace scopes the name-based model ids.
var modelNamespace = uuid.MustParse("3d0f6a52-8c1e-4b7d-a9e4-5f20c81b6e97")

// contentID derives the model id from everything Save writes except
// CreatedAt, so identical fits share an id.
func contentID(m *Model) (uuid.UUID, error) {
	var buf bytes.Buffer
	params, err := gojson.Marshal(m.Params)
	if err != nil {
		return uuid.Nil, err
	}
	buf.Write(params)
	buf.WriteByte(0)
	if m.Schema != nil {
		s, err := gojson.Marshal(m.Schema)
		if err != nil {
			return uuid.Nil, err
		}
		buf.Write(s)
	}
	buf.WriteByte(0)

	writeStrings := func(ss []string) {
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(ss)))
		for _, v := range ss {
			buf.WriteString(v)
			buf.WriteByte(0)
		}
	}
	writeStrings(m.terms)
	for _, w := range m.idf {
		_ = binary.Write(&buf, binary.LittleEndian, math.Float32bits(w))
	}
	writeStrings(m.ids)
	writeStrings(m.contents)

	return uuid.NewSHA1(modelNamespace, buf.Bytes()), nil
}

func computeIDF(n, df int, smooth bool) float64 {
	if smooth {
		return math.Log(float64(1+n)/float64(1+df)) + 1
	}
	return math.Log(float64(n)/float64(df)) + 1
}
