// Package bitmap provides a compressed set of corpus row indices.
package bitmap

import (
	"iter"

	"github.com/RoaringBitmap/roaring/v2"
)

// RowSet is a set of corpus rows backed by a 32-bit Roaring Bitmap.
type RowSet struct {
	rb *roaring.Bitmap
}

// New creates a RowSet holding rows.
func New(rows ...int) *RowSet {
	s := &RowSet{rb: roaring.New()}
	for _, r := range rows {
		s.Add(r)
	}
	return s
}

// Add adds a row.
func (s *RowSet) Add(row int) {
	s.rb.Add(uint32(row))
}

// Contains checks if a row is in the set.
func (s *RowSet) Contains(row int) bool {
	return s.rb.Contains(uint32(row))
}

// Len returns the number of rows in the set.
func (s *RowSet) Len() int {
	return int(s.rb.GetCardinality())
}

// IsEmpty returns true if the set is empty.
func (s *RowSet) IsEmpty() bool {
	return s.rb.IsEmpty()
}

// IntersectionLen returns |s ∩ other| without materializing it.
func (s *RowSet) IntersectionLen(other *RowSet) int {
	return int(s.rb.AndCardinality(other.rb))
}

// Rows iterates the rows in ascending order.
func (s *RowSet) Rows() iter.Seq[int] {
	return func(yield func(int) bool) {
		it := s.rb.Iterator()
		for it.HasNext() {
			if !yield(int(it.Next())) {
				return
			}
		}
	}
}

// SizeInBytes returns the serialized size of the set.
func (s *RowSet) SizeInBytes() uint64 {
	return s.rb.GetSizeInBytes()
}
