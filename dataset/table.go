// Package dataset holds tabular market data: records of typed attribute
// values keyed by column name, plus readers for CSV files and portfolios.
package dataset

import (
	"slices"
)

// Record is one market entity.
type Record struct {
	ID    string
	Attrs map[string]Value
}

// Get returns the value of column, or Missing when absent.
func (r Record) Get(column string) Value {
	v, ok := r.Attrs[column]
	if !ok {
		return Missing()
	}
	return v
}

// Table is an ordered set of columns and the records that fill them.
// Columns never includes the id column.
type Table struct {
	Columns []string
	Records []Record
}

// NewTable creates a table with the given attribute columns.
func NewTable(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Append adds a record. Attributes of columns the table does not list are
// kept on the record but ignored by consumers that iterate Columns.
func (t *Table) Append(id string, attrs map[string]Value) {
	t.Records = append(t.Records, Record{ID: id, Attrs: attrs})
}

// Len returns the number of records.
func (t *Table) Len() int {
	return len(t.Records)
}

// HasColumn reports whether the table lists column.
func (t *Table) HasColumn(column string) bool {
	return slices.Contains(t.Columns, column)
}

// MissingFraction returns the share of records whose value for column is
// missing. An empty table reports 0.
func (t *Table) MissingFraction(column string) float64 {
	if len(t.Records) == 0 {
		return 0
	}
	missing := 0
	for _, r := range t.Records {
		if r.Get(column).IsMissing() {
			missing++
		}
	}
	return float64(missing) / float64(len(t.Records))
}

// IDs returns the record ids in order.
func (t *Table) IDs() []string {
	ids := make([]string, len(t.Records))
	for i, r := range t.Records {
		ids[i] = r.ID
	}
	return ids
}
