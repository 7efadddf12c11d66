// Package encoder turns market records into (id, content) pairs.
//
// Each record becomes one line of "<column>_<value>" tokens. Columns that
// are mostly missing or denylisted are dropped, every remaining column is
// normalized according to its declared kind, flag groups collapse into a
// single categorical column, and values are made token-safe.
package encoder

import (
	"context"
	"log/slog"
	"strings"

	"github.com/hupe1980/leadrec/dataset"
	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/schema"
)

// DefaultMissingThreshold is used when neither an option nor the schema
// sets one.
const DefaultMissingThreshold = 0.5

// Report describes the column decisions of one Encode call.
type Report struct {
	// Used lists the content columns in token order, flag groups last.
	Used []string
	// DroppedMissing lists columns whose missing fraction exceeded the threshold.
	DroppedMissing []string
	// Denied lists denylisted columns that were still present after the missing drop.
	Denied []string
	// Ignored lists undeclared table columns skipped under ignore_undeclared.
	Ignored []string
}

// Encoder encodes tables that follow one schema.
type Encoder struct {
	schema    *schema.Schema
	threshold float64
	logger    *slog.Logger
}

// New creates an Encoder. The threshold is validated here, before any
// record is touched.
func New(s *schema.Schema, opts ...Option) (*Encoder, error) {
	o := options{}
	for _, fn := range opts {
		fn(&o)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	threshold := DefaultMissingThreshold
	if s.MissingThreshold != nil {
		threshold = *s.MissingThreshold
	}
	if o.threshold != nil {
		threshold = *o.threshold
	}
	// Written so that NaN fails too.
	if !(threshold >= 0 && threshold <= 1) {
		return nil, model.NewConfigError("missing threshold", threshold, "must be within [0, 1]")
	}

	logger := o.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Encoder{
		schema:    s,
		threshold: threshold,
		logger:    logger.With("component", "encoder"),
	}, nil
}

// Schema returns the schema the encoder was built with.
func (e *Encoder) Schema() *schema.Schema { return e.schema }

// Threshold returns the effective missing threshold.
func (e *Encoder) Threshold() float64 { return e.threshold }

// Encode encodes t into a corpus aligned with t's record order.
func (e *Encoder) Encode(ctx context.Context, t *dataset.Table) (model.Corpus, error) {
	c, _, err := e.EncodeReport(ctx, t)
	return c, err
}

// EncodeReport is Encode plus the column decisions it made.
func (e *Encoder) EncodeReport(ctx context.Context, t *dataset.Table) (model.Corpus, Report, error) {
	var rep Report
	s := e.schema

	if t == nil || t.Len() == 0 {
		return model.Corpus{}, rep, model.NewSchemaError("", "dataset is empty")
	}

	for _, name := range t.Columns {
		if s.Declared(name) {
			continue
		}
		if !s.IgnoreUndeclared {
			return model.Corpus{}, rep, model.NewSchemaError(name, "column is not declared in schema %s", s.Version)
		}
		rep.Ignored = append(rep.Ignored, name)
	}
	for _, col := range s.Columns {
		if !t.HasColumn(col.Name) {
			return model.Corpus{}, rep, model.NewSchemaError(col.Name, "expected column is missing")
		}
	}

	seen := make(map[string]struct{}, t.Len())
	for i, r := range t.Records {
		if r.ID == "" {
			return model.Corpus{}, rep, model.NewSchemaError(s.IDColumn, "record %d has an empty id", i)
		}
		if _, dup := seen[r.ID]; dup {
			return model.Corpus{}, rep, model.NewSchemaError(s.IDColumn, "duplicate id %q", r.ID)
		}
		seen[r.ID] = struct{}{}
	}

	active := make(map[string]bool, len(s.Columns))
	for _, col := range s.Columns {
		frac := t.MissingFraction(col.Name)
		switch {
		case frac > e.threshold:
			rep.DroppedMissing = append(rep.DroppedMissing, col.Name)
			e.logger.DebugContext(ctx, "column dropped", "column", col.Name, "missing_fraction", frac)
		case s.Denied(col.Name):
			rep.Denied = append(rep.Denied, col.Name)
		default:
			active[col.Name] = true
		}
	}

	type plain struct {
		name string
		norm normalizer
	}
	var plains []plain
	for _, col := range s.Columns {
		if !active[col.Name] {
			continue
		}
		if _, grouped := s.FlagGroupOf(col.Name); grouped {
			continue
		}
		plains = append(plains, plain{name: col.Name, norm: newNormalizer(s, col)})
		rep.Used = append(rep.Used, col.Name)
	}

	type group struct {
		name  string
		flags []string
	}
	var groups []group
	for _, g := range s.FlagGroups {
		var flags []string
		for _, f := range g.Flags {
			if active[f] {
				flags = append(flags, f)
			}
		}
		if len(flags) == 0 {
			e.logger.DebugContext(ctx, "flag group dropped", "group", g.Name)
			continue
		}
		groups = append(groups, group{name: g.Name, flags: flags})
		rep.Used = append(rep.Used, g.Name)
	}

	corpus := model.Corpus{
		IDs:      make([]string, t.Len()),
		Contents: make([]string, t.Len()),
	}

	var sb strings.Builder
	for i, r := range t.Records {
		sb.Reset()
		for _, p := range plains {
			val, err := p.norm(r.Get(p.name))
			if err != nil {
				return model.Corpus{}, rep, err
			}
			writeToken(&sb, p.name, val)
		}
		for _, g := range groups {
			writeToken(&sb, g.name, collapse(s, r, g.flags))
		}
		corpus.IDs[i] = r.ID
		corpus.Contents[i] = sb.String()
	}

	e.logger.DebugContext(ctx, "encoded",
		"records", t.Len(),
		"columns", len(rep.Used),
		"dropped_missing", len(rep.DroppedMissing),
		"denied", len(rep.Denied),
		"ignored", len(rep.Ignored),
	)

	return corpus, rep, nil
}

// collapse returns the first true flag; failing that the first present
// flag; failing that MissingLabel.
func collapse(s *schema.Schema, r dataset.Record, flags []string) string {
	firstPresent := ""
	for _, f := range flags {
		present, truth := flagState(s, r.Get(f))
		if truth {
			return f
		}
		if present && firstPresent == "" {
			firstPresent = f
		}
	}
	if firstPresent != "" {
		return firstPresent
	}
	return MissingLabel
}

func writeToken(sb *strings.Builder, column, value string) {
	if sb.Len() > 0 {
		sb.WriteByte(' ')
	}
	sb.WriteString(column)
	sb.WriteByte('_')
	sb.WriteString(Token(value))
}

// Encode is a convenience wrapper around New and Encode.
func Encode(ctx context.Context, t *dataset.Table, s *schema.Schema, opts ...Option) (model.Corpus, error) {
	e, err := New(s, opts...)
	if err != nil {
		return model.Corpus{}, err
	}
	return e.Encode(ctx, t)
}
