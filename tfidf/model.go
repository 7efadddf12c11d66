package tfidf

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/leadrec/distance"
	"github.com/hupe1980/leadrec/internal/sparse"
	"github.com/hupe1980/leadrec/schema"
)

// ErrInvalidState is returned by Restore when the parts of a model do not
// fit together.
var ErrInvalidState = errors.New("tfidf: invalid model state")

// Model is a fitted TF-IDF index. It is immutable and safe for concurrent use.
type Model struct {
	// ID is derived from params, schema, vocabulary, weights and corpus, so
	// refitting identical input yields the same ID.
	ID uuid.UUID
	// CreatedAt is zero unless Fit was given WithClock.
	CreatedAt time.Time
	Params    Params
	// Schema is the encoding schema of the corpus, if known.
	Schema *schema.Schema

	terms    []string
	idf      []float32
	matrix   *sparse.CSR
	ids      []string
	contents []string

	vocab map[string]int32
	rows  map[string]int
}

// Len returns the number of corpus rows.
func (m *Model) Len() int { return len(m.ids) }

// Terms returns the vocabulary in column order (sorted). Callers must not modify it.
func (m *Model) Terms() []string { return m.terms }

// IDF returns the inverse document frequency per column. Callers must not modify it.
func (m *Model) IDF() []float32 { return m.idf }

// Matrix returns the row-normalized TF-IDF matrix, one row per corpus entry.
func (m *Model) Matrix() *sparse.CSR { return m.matrix }

// IDs returns the corpus ids in row order. Callers must not modify it.
func (m *Model) IDs() []string { return m.ids }

// Contents returns the corpus contents in row order. Callers must not modify it.
func (m *Model) Contents() []string { return m.contents }

// IDAt returns the id of row.
func (m *Model) IDAt(row int) string { return m.ids[row] }

// Lookup returns the row of id.
func (m *Model) Lookup(id string) (int, bool) {
	row, ok := m.rows[id]
	return row, ok
}

// TermIndex returns the column of term.
func (m *Model) TermIndex(term string) (int, bool) {
	c, ok := m.vocab[term]
	return int(c), ok
}

// Transform vectorizes doc against the fitted vocabulary. Terms outside the
// vocabulary are ignored. Transform of a corpus entry reproduces its row.
func (m *Model) Transform(doc string) ([]int32, []float32) {
	return m.vectorize(analyze(doc, m.Params))
}

func (m *Model) vectorize(counts map[string]int) ([]int32, []float32) {
	idx := make([]int32, 0, len(counts))
	for term := range counts {
		if c, ok := m.vocab[term]; ok {
			idx = append(idx, c)
		}
	}
	slices.Sort(idx)

	values := make([]float32, len(idx))
	for k, c := range idx {
		tf := float64(counts[m.terms[c]])
		if m.Params.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		values[k] = float32(tf * float64(m.idf[c]))
	}

	// Params were validated at fit or restore time.
	if normalize, _ := distance.Normalizer(m.Params.Norm); normalize != nil {
		normalize(values)
	}
	return idx, values
}

func (m *Model) String() string {
	return fmt.Sprintf("tfidf.Model{id=%s rows=%d terms=%d nnz=%d}", m.ID, m.Len(), len(m.terms), m.matrix.NNZ())
}

// State is the exported form of a Model used for persistence.
type State struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Params    Params
	Schema    *schema.Schema
	Terms     []string
	IDF       []float32
	Matrix    *sparse.CSR
	IDs       []string
	Contents  []string
}

// State returns the parts of m. The slices are shared with m.
func (m *Model) State() State {
	return State{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		Params:    m.Params,
		Schema:    m.Schema,
		Terms:     m.terms,
		IDF:       m.idf,
		Matrix:    m.matrix,
		IDs:       m.ids,
		Contents:  m.contents,
	}
}

// Restore rebuilds a Model from its parts, checking that they are
// consistent with each other.
func Restore(s State) (*Model, error) {
	if err := s.Params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	if s.Matrix == nil {
		return nil, fmt.Errorf("%w: no matrix", ErrInvalidState)
	}
	if len(s.Terms) != s.Matrix.Cols() || len(s.IDF) != len(s.Terms) {
		return nil, fmt.Errorf("%w: %d terms, %d idf weights, %d columns",
			ErrInvalidState, len(s.Terms), len(s.IDF), s.Matrix.Cols())
	}
	if len(s.IDs) != s.Matrix.Rows() || len(s.Contents) != len(s.IDs) {
		return nil, fmt.Errorf("%w: %d ids, %d contents, %d rows",
			ErrInvalidState, len(s.IDs), len(s.Contents), s.Matrix.Rows())
	}

	vocab := make(map[string]int32, len(s.Terms))
	for i, t := range s.Terms {
		if i > 0 && s.Terms[i-1] >= t {
			return nil, fmt.Errorf("%w: terms not strictly sorted at %d", ErrInvalidState, i)
		}
		vocab[t] = int32(i)
	}
	rows := make(map[string]int, len(s.IDs))
	for i, id := range s.IDs {
		if _, dup := rows[id]; dup {
			return nil, fmt.Errorf("%w: duplicate id %q", ErrInvalidState, id)
		}
		rows[id] = i
	}

	return &Model{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Params:    s.Params,
		Schema:    s.Schema,
		terms:     s.Terms,
		idf:       s.IDF,
		matrix:    s.Matrix,
		ids:       s.IDs,
		contents:  s.Contents,
		vocab:     vocab,
		rows:      rows,
	}, nil
}
