package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hupe1980/leadrec/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and cross-field rules. Every failure is
// a *model.SchemaError.
func (s *Schema) Validate() error {
	if s == nil {
		return model.NewSchemaError("", "schema is nil")
	}
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return model.WrapSchemaError("", err, "field %s failed %q", fe.Namespace(), fe.Tag())
		}
		return model.WrapSchemaError("", err, "invalid schema")
	}

	if !IsWord(s.IDColumn) {
		return model.NewSchemaError(s.IDColumn, "id column name must consist of word characters")
	}

	names := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		if c.Name == s.IDColumn {
			return model.NewSchemaError(c.Name, "id column must not be declared as an attribute")
		}
		if !IsWord(c.Name) {
			return model.NewSchemaError(c.Name, "column name must consist of word characters")
		}
		if _, dup := names[c.Name]; dup {
			return model.NewSchemaError(c.Name, "declared twice")
		}
		names[c.Name] = struct{}{}

		if err := validateEdges(c); err != nil {
			return err
		}
	}

	for _, name := range s.Denylist {
		if _, ok := names[name]; !ok {
			return model.NewSchemaError(name, "denylisted column is not declared")
		}
	}

	grouped := make(map[string]string)
	for _, g := range s.FlagGroups {
		if !IsWord(g.Name) {
			return model.NewSchemaError(g.Name, "flag group name must consist of word characters")
		}
		if _, clash := names[g.Name]; clash || g.Name == s.IDColumn {
			return model.NewSchemaError(g.Name, "flag group name collides with a column")
		}
		names[g.Name] = struct{}{}
		for _, f := range g.Flags {
			col, ok := s.Column(f)
			if !ok {
				return model.NewSchemaError(f, "flag of group %q is not declared", g.Name)
			}
			if col.Kind == KindBucketed {
				return model.NewSchemaError(f, "flag of group %q must not be bucketed", g.Name)
			}
			if s.Denied(f) {
				return model.NewSchemaError(f, "flag of group %q is denylisted", g.Name)
			}
			if other, dup := grouped[f]; dup {
				return model.NewSchemaError(f, "flag belongs to groups %q and %q", other, g.Name)
			}
			grouped[f] = g.Name
		}
	}

	for _, v := range s.TrueValues {
		if slices.Contains(s.FalseValues, v) {
			return model.NewSchemaError("", "marker %q is both true and false", v)
		}
	}

	return nil
}

func validateEdges(c Column) error {
	if c.Kind != KindBucketed {
		if len(c.Edges) > 0 {
			return model.NewSchemaError(c.Name, "edges are only allowed on bucketed columns")
		}
		return nil
	}
	if len(c.Edges) == 0 {
		return model.NewSchemaError(c.Name, "bucketed column needs at least one edge")
	}
	for i, e := range c.Edges {
		if math.IsNaN(e) || math.IsInf(e, 0) {
			return model.NewSchemaError(c.Name, "edge %d is not finite", i)
		}
		if i > 0 && e <= c.Edges[i-1] {
			return model.NewSchemaError(c.Name, "edges must be strictly increasing (%s)", formatEdges(c.Edges))
		}
	}
	return nil
}

func formatEdges(edges []float64) string {
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = fmt.Sprint(e)
	}
	return strings.Join(parts, ", ")
}
