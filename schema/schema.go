// Package schema describes the columns of a market dataset and how each one
// is turned into content tokens.
//
// A Schema is declarative: column kinds, bucket edges, the denylist, the
// boolean markers and the flag groups are all data, loaded from YAML, so a new
// dataset version needs a new schema file rather than a code change. The
// schema a model was fitted with is persisted inside the model artifact.
package schema

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Kind enumerates how a column is normalized.
type Kind string

const (
	// KindCategorical keeps the value as text; missing becomes NO_INFORMATION.
	KindCategorical Kind = "categorical"
	// KindNumeric fills missing with -1 and truncates to an integer.
	KindNumeric Kind = "numeric"
	// KindBucketed is numeric, then discretized into right-closed ranges.
	KindBucketed Kind = "bucketed"
	// KindBoolean maps the configured true/false markers, then behaves as categorical.
	KindBoolean Kind = "boolean"
)

// String returns the kind name.
func (k Kind) String() string { return string(k) }

// Column declares one attribute column.
type Column struct {
	Name  string    `koanf:"name" json:"name" validate:"required"`
	Kind  Kind      `koanf:"kind" json:"kind" validate:"required,oneof=categorical numeric bucketed boolean"`
	Edges []float64 `koanf:"edges" json:"edges,omitempty"`
}

// FlagGroup collapses mutually exclusive boolean flags into one categorical
// column named Name whose value is the first flag (in declared order) that is
// true.
type FlagGroup struct {
	Name  string   `koanf:"name" json:"name" validate:"required"`
	Flags []string `koanf:"flags" json:"flags" validate:"required,min=1,dive,required"`
}

// Schema is the full dataset description.
type Schema struct {
	Version  string `koanf:"version" json:"version" validate:"required"`
	IDColumn string `koanf:"id_column" json:"id_column" validate:"required"`

	// MissingThreshold overrides the encoder default when set.
	MissingThreshold *float64 `koanf:"missing_threshold" json:"missing_threshold,omitempty"`

	// IgnoreUndeclared skips table columns the schema does not declare
	// instead of rejecting them.
	IgnoreUndeclared bool `koanf:"ignore_undeclared" json:"ignore_undeclared"`

	TrueValues  []string    `koanf:"true_values" json:"true_values,omitempty"`
	FalseValues []string    `koanf:"false_values" json:"false_values,omitempty"`
	Columns     []Column    `koanf:"columns" json:"columns" validate:"required,min=1,dive"`
	Denylist    []string    `koanf:"denylist" json:"denylist,omitempty" validate:"dive,required"`
	FlagGroups  []FlagGroup `koanf:"flag_groups" json:"flag_groups,omitempty" validate:"dive"`
}

// Column returns the declared column with the given name.
func (s *Schema) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Declared reports whether name is the id column or a declared column.
func (s *Schema) Declared(name string) bool {
	if name == s.IDColumn {
		return true
	}
	_, ok := s.Column(name)
	return ok
}

// Denied reports whether name is on the denylist.
func (s *Schema) Denied(name string) bool {
	return slices.Contains(s.Denylist, name)
}

// FlagGroupOf returns the group a column belongs to, if any.
func (s *Schema) FlagGroupOf(name string) (FlagGroup, bool) {
	for _, g := range s.FlagGroups {
		if slices.Contains(g.Flags, name) {
			return g, true
		}
	}
	return FlagGroup{}, false
}

// ParseMarker maps a configured boolean marker. ok is false when raw is not
// a marker.
func (s *Schema) ParseMarker(raw string) (value, ok bool) {
	if slices.Contains(s.TrueValues, raw) {
		return true, true
	}
	if slices.Contains(s.FalseValues, raw) {
		return false, true
	}
	return false, false
}

// Clone returns a deep copy.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	if s.MissingThreshold != nil {
		v := *s.MissingThreshold
		out.MissingThreshold = &v
	}
	out.TrueValues = slices.Clone(s.TrueValues)
	out.FalseValues = slices.Clone(s.FalseValues)
	out.Denylist = slices.Clone(s.Denylist)
	out.Columns = make([]Column, len(s.Columns))
	for i, c := range s.Columns {
		c.Edges = slices.Clone(c.Edges)
		out.Columns[i] = c
	}
	out.FlagGroups = make([]FlagGroup, len(s.FlagGroups))
	for i, g := range s.FlagGroups {
		g.Flags = slices.Clone(g.Flags)
		out.FlagGroups[i] = g
	}
	return &out
}

// String returns a short description.
func (s *Schema) String() string {
	return fmt.Sprintf("schema %s (%d columns, %d denied, %d flag groups)",
		s.Version, len(s.Columns), len(s.Denylist), len(s.FlagGroups))
}

// IsWordRune reports whether r is a word character: a letter, a number or
// an underscore. Everything else is replaced in content tokens.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// IsWord reports whether s is a non-empty run of word characters.
func IsWord(s string) bool {
	if s == "" {
		return false
	}
	return strings.IndexFunc(s, func(r rune) bool { return !IsWordRune(r) }) < 0
}
