// Package sparse implements the compressed sparse row matrix used for
// TF-IDF weights.
package sparse

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrInvalidMatrix is returned when CSR arrays are inconsistent.
var ErrInvalidMatrix = errors.New("sparse: invalid matrix")

// CSR is an immutable compressed sparse row matrix of float32 values.
// Column indices within a row are strictly increasing.
type CSR struct {
	rows    int
	cols    int
	indptr  []int64
	indices []int32
	data    []float32
}

// New validates and wraps raw CSR arrays. The slices are retained.
func New(rows, cols int, indptr []int64, indices []int32, data []float32) (*CSR, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("%w: negative shape %dx%d", ErrInvalidMatrix, rows, cols)
	}
	if cols > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d columns exceed int32", ErrInvalidMatrix, cols)
	}
	if len(indptr) != rows+1 {
		return nil, fmt.Errorf("%w: indptr has %d entries, want %d", ErrInvalidMatrix, len(indptr), rows+1)
	}
	if len(indices) != len(data) {
		return nil, fmt.Errorf("%w: %d indices, %d values", ErrInvalidMatrix, len(indices), len(data))
	}
	if indptr[0] != 0 || indptr[rows] != int64(len(indices)) {
		return nil, fmt.Errorf("%w: indptr bounds [%d, %d] do not cover %d values",
			ErrInvalidMatrix, indptr[0], indptr[rows], len(indices))
	}
	for r := 0; r < rows; r++ {
		start, end := indptr[r], indptr[r+1]
		if end < start {
			return nil, fmt.Errorf("%w: indptr decreases at row %d", ErrInvalidMatrix, r)
		}
		prev := int32(-1)
		for _, c := range indices[start:end] {
			if c <= prev || int(c) >= cols {
				return nil, fmt.Errorf("%w: row %d has column %d out of order or range", ErrInvalidMatrix, r, c)
			}
			prev = c
		}
	}
	for i, v := range data {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("%w: value %d is not finite", ErrInvalidMatrix, i)
		}
	}
	return &CSR{rows: rows, cols: cols, indptr: indptr, indices: indices, data: data}, nil
}

// Rows returns the number of rows.
func (m *CSR) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *CSR) Cols() int { return m.cols }

// NNZ returns the number of stored values.
func (m *CSR) NNZ() int { return len(m.data) }

// Row returns views of row i's column indices and values.
func (m *CSR) Row(i int) ([]int32, []float32) {
	start, end := m.indptr[i], m.indptr[i+1]
	return m.indices[start:end], m.data[start:end]
}

// Indptr returns the row pointer array. Callers must not modify it.
func (m *CSR) Indptr() []int64 { return m.indptr }

// Indices returns the column index array. Callers must not modify it.
func (m *CSR) Indices() []int32 { return m.indices }

// Data returns the value array. Callers must not modify it.
func (m *CSR) Data() []float32 { return m.data }

// Dense returns row i as a dense vector.
func (m *CSR) Dense(i int) []float32 {
	out := make([]float32, m.cols)
	idx, val := m.Row(i)
	for k, c := range idx {
		out[c] = val[k]
	}
	return out
}

// Transpose returns m^T. Row indices inside each output row are ascending,
// so the result doubles as a column-major view of m.
func (m *CSR) Transpose() *CSR {
	counts := make([]int64, m.cols+1)
	for _, c := range m.indices {
		counts[c+1]++
	}
	for c := 0; c < m.cols; c++ {
		counts[c+1] += counts[c]
	}
	indptr := slices.Clone(counts)
	next := slices.Clone(counts[:m.cols])
	indices := make([]int32, len(m.indices))
	data := make([]float32, len(m.data))
	for r := 0; r < m.rows; r++ {
		idx, val := m.Row(r)
		for k, c := range idx {
			pos := next[c]
			indices[pos] = int32(r)
			data[pos] = val[k]
			next[c]++
		}
	}
	return &CSR{rows: m.cols, cols: m.rows, indptr: indptr, indices: indices, data: data}
}

// Equal reports whether both matrices have the same shape and values.
func (m *CSR) Equal(other *CSR) bool {
	if m == nil || other == nil {
		return m == other
	}
	return m.rows == other.rows && m.cols == other.cols &&
		slices.Equal(m.indptr, other.indptr) &&
		slices.Equal(m.indices, other.indices) &&
		slices.Equal(m.data, other.data)
}

// Builder assembles a CSR matrix row by row.
type Builder struct {
	cols    int
	indptr  []int64
	indices []int32
	data    []float32
}

// NewBuilder creates a Builder for a matrix with cols columns.
func NewBuilder(cols int) *Builder {
	return &Builder{cols: cols, indptr: []int64{0}}
}

// AddRow appends a row. indices must be strictly increasing and in range.
func (b *Builder) AddRow(indices []int32, values []float32) error {
	if len(indices) != len(values) {
		return fmt.Errorf("%w: %d indices, %d values", ErrInvalidMatrix, len(indices), len(values))
	}
	prev := int32(-1)
	for _, c := range indices {
		if c <= prev || int(c) >= b.cols {
			return fmt.Errorf("%w: column %d out of order or range", ErrInvalidMatrix, c)
		}
		prev = c
	}
	b.indices = append(b.indices, indices...)
	b.data = append(b.data, values...)
	b.indptr = append(b.indptr, int64(len(b.indices)))
	return nil
}

// Build returns the matrix. The Builder must not be used afterwards.
func (b *Builder) Build() *CSR {
	return &CSR{
		rows:    len(b.indptr) - 1,
		cols:    b.cols,
		indptr:  b.indptr,
		indices: b.indices,
		data:    b.data,
	}
}
