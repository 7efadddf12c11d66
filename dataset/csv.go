package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/hupe1980/leadrec/model"
)

// DefaultMissingMarkers are the cell values read as missing.
var DefaultMissingMarkers = []string{"", "NA", "N/A", "n/a", "NaN", "nan", "null", "NULL", "None", "#N/A", "<NA>"}

type csvOptions struct {
	comma   rune
	missing []string
	columns []string
}

// CSVOption configures ReadCSV.
type CSVOption func(*csvOptions)

// WithComma sets the field delimiter (default ',').
func WithComma(r rune) CSVOption {
	return func(o *csvOptions) {
		o.comma = r
	}
}

// WithMissingMarkers replaces the set of cell values treated as missing.
func WithMissingMarkers(markers ...string) CSVOption {
	return func(o *csvOptions) {
		o.missing = slices.Clone(markers)
	}
}

// WithColumns keeps only the listed attribute columns. Listed columns absent
// from the header are simply not present in the table.
func WithColumns(columns ...string) CSVOption {
	return func(o *csvOptions) {
		o.columns = append([]string{}, columns...)
	}
}

// ReadCSV reads a headered CSV document. idColumn must be present in the
// header; every other column becomes an attribute. Cells matching a missing
// marker become Missing, everything else a String value: typing is left to
// the encoder, which knows each column's declared kind.
func ReadCSV(r io.Reader, idColumn string, opts ...CSVOption) (*Table, error) {
	o := csvOptions{comma: ',', missing: DefaultMissingMarkers}
	for _, fn := range opts {
		fn(&o)
	}

	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = o.comma
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.NewSchemaError("", "csv has no header")
		}
		return nil, fmt.Errorf("dataset: read header: %w", err)
	}
	header = slices.Clone(header)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idIdx := -1
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if _, dup := seen[h]; dup && h != "" {
			return nil, model.NewSchemaError(h, "header column appears twice")
		}
		seen[h] = struct{}{}
		if h == idColumn {
			idIdx = i
		}
	}
	if idIdx < 0 {
		return nil, model.NewSchemaError(idColumn, "id column missing from header")
	}

	missing := make(map[string]struct{}, len(o.missing))
	for _, m := range o.missing {
		missing[m] = struct{}{}
	}

	type field struct {
		idx  int
		name string
	}
	var fields []field
	for i, h := range header {
		if i == idIdx {
			continue
		}
		if o.columns != nil && !slices.Contains(o.columns, h) {
			continue
		}
		fields = append(fields, field{idx: i, name: h})
	}

	t := &Table{Columns: make([]string, len(fields))}
	for i, f := range fields {
		t.Columns[i] = f.name
	}

	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("dataset: line %d: %w", line, err)
		}

		attrs := make(map[string]Value, len(fields))
		for _, f := range fields {
			cell := rec[f.idx]
			if _, ok := missing[cell]; ok {
				attrs[f.name] = Missing()
				continue
			}
			attrs[f.name] = String(cell)
		}
		t.Append(rec[idIdx], attrs)
	}

	return t, nil
}

// ReadCSVFile opens path (see Open) and reads it with ReadCSV.
func ReadCSVFile(path, idColumn string, opts ...CSVOption) (*Table, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := ReadCSV(rc, idColumn, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
