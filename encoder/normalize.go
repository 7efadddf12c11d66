package encoder

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/hupe1980/leadrec/dataset"
	"github.com/hupe1980/leadrec/model"
	"github.com/hupe1980/leadrec/schema"
)

const (
	// MissingLabel replaces missing categorical values.
	MissingLabel = "NO_INFORMATION"

	// NumericFill replaces missing numeric values.
	NumericFill int64 = -1
)

// maxExactInt bounds the float values that truncate to an int64 safely.
const maxExactInt = 1 << 63

// normalizer renders one cell of a column as its (not yet token-safe) value.
type normalizer func(v dataset.Value) (string, error)

func newNormalizer(s *schema.Schema, col schema.Column) normalizer {
	switch col.Kind {
	case schema.KindNumeric:
		return func(v dataset.Value) (string, error) {
			n, err := toInt(col.Name, v)
			if err != nil {
				return "", err
			}
			return strconv.FormatInt(n, 10), nil
		}
	case schema.KindBucketed:
		b := newBuckets(col.Edges)
		return func(v dataset.Value) (string, error) {
			n, err := toInt(col.Name, v)
			if err != nil {
				return "", err
			}
			return b.label(float64(n)), nil
		}
	case schema.KindBoolean:
		return func(v dataset.Value) (string, error) {
			return categorical(toBoolean(s, v)), nil
		}
	default:
		return func(v dataset.Value) (string, error) {
			return categorical(v), nil
		}
	}
}

func categorical(v dataset.Value) string {
	if v.IsMissing() {
		return MissingLabel
	}
	return v.Text()
}

// toBoolean maps configured markers and literal true/false strings to Bool.
// Other strings are kept as they are.
func toBoolean(s *schema.Schema, v dataset.Value) dataset.Value {
	if v.Kind != dataset.KindString {
		return v
	}
	if b, ok := s.ParseMarker(v.S); ok {
		return dataset.Bool(b)
	}
	switch strings.ToLower(v.S) {
	case "true":
		return dataset.Bool(true)
	case "false":
		return dataset.Bool(false)
	}
	return v
}

// toInt fills missing with NumericFill and truncates toward zero.
func toInt(column string, v dataset.Value) (int64, error) {
	var f float64
	switch v.Kind {
	case dataset.KindMissing:
		return NumericFill, nil
	case dataset.KindNumber:
		f = v.F
	case dataset.KindBool:
		if v.B {
			return 1, nil
		}
		return 0, nil
	case dataset.KindString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.S), 64)
		if err != nil {
			return 0, model.WrapSchemaError(column, err, "value %q is not numeric", v.S)
		}
		f = parsed
	default:
		return 0, model.NewSchemaError(column, "unsupported value kind %s", v.Kind)
	}
	if math.IsNaN(f) {
		return NumericFill, nil
	}
	if math.IsInf(f, 0) || math.Abs(f) >= maxExactInt {
		return 0, model.NewSchemaError(column, "value %v does not fit an integer", f)
	}
	return int64(f), nil
}

// flagState reports whether a flag cell is present and whether it is true.
func flagState(s *schema.Schema, v dataset.Value) (present, truth bool) {
	v = toBoolean(s, v)
	switch v.Kind {
	case dataset.KindMissing:
		return false, false
	case dataset.KindBool:
		return true, v.B
	case dataset.KindNumber:
		return true, v.F != 0
	default:
		return true, false
	}
}

// buckets discretizes values into right-closed ranges over sorted edges:
// (-inf, e0], (e0, e1], ..., (eN, inf).
type buckets struct {
	edges  []float64
	labels []string
}

func newBuckets(edges []float64) buckets {
	labels := make([]string, len(edges)+1)
	for i := range labels {
		lo, hi := "-inf", "inf"
		closing := ")"
		if i > 0 {
			lo = formatEdge(edges[i-1])
		}
		if i < len(edges) {
			hi = formatEdge(edges[i])
			closing = "]"
		}
		labels[i] = "(" + lo + ", " + hi + closing
	}
	return buckets{edges: edges, labels: labels}
}

func (b buckets) label(v float64) string {
	return b.labels[sort.SearchFloat64s(b.edges, v)]
}

func formatEdge(e float64) string {
	return strconv.FormatFloat(e, 'f', -1, 64)
}

// Token replaces every rune that is not a letter, a number or an
// underscore with an underscore.
func Token(s string) string {
	return strings.Map(func(r rune) rune {
		if schema.IsWordRune(r) {
			return r
		}
		return '_'
	}, s)
}
