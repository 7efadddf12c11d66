package dataset

import (
	"math"
	"strconv"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindMissing represents an absent cell.
	KindMissing Kind = iota
	// KindString represents a text value.
	KindString
	// KindNumber represents a numeric value.
	KindNumber
	// KindBool represents a boolean value.
	KindBool
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "Missing"
	case KindString:
		return "String"
	case KindNumber:
		return "Number"
	case KindBool:
		return "Bool"
	default:
		return "Unknown"
	}
}

// Value is a single attribute cell.
type Value struct {
	Kind Kind
	S    string
	F    float64
	B    bool
}

// Missing returns the missing value.
func Missing() Value { return Value{Kind: KindMissing} }

// String returns a text value.
func String(s string) Value { return Value{Kind: KindString, S: s} }

// Number returns a numeric value. NaN is treated as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Missing()
	}
	return Value{Kind: KindNumber, F: f}
}

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, B: b} }

// IsMissing reports whether the value is absent.
func (v Value) IsMissing() bool { return v.Kind == KindMissing }

// Text renders the value the way it appears in content tokens before
// normalization: booleans as True/False and numbers in their shortest form.
func (v Value) Text() string {
	switch v.Kind {
	case KindString:
		return v.S
	case KindNumber:
		return strconv.FormatFloat(v.F, 'f', -1, 64)
	case KindBool:
		if v.B {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}
