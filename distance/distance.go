package distance

import (
	"fmt"
	"math"
)

// SparseDot computes the dot product of two sparse vectors given as
// strictly increasing column indices and their values.
func SparseDot(ai []int32, av []float32, bi []int32, bv []float32) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(ai) && j < len(bi) {
		switch {
		case ai[i] == bi[j]:
			sum += float64(av[i]) * float64(bv[j])
			i++
			j++
		case ai[i] < bi[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// SquaredNorm returns the squared L2 norm of v.
func SquaredNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return sum
}

// Cosine turns a dot product and the squared norms of both operands into a
// cosine similarity. A zero vector has similarity 0 with everything.
func Cosine(dot, sqA, sqB float64) float64 {
	if sqA == 0 || sqB == 0 {
		return 0
	}
	return dot / math.Sqrt(sqA*sqB)
}

// NormalizeL2InPlace L2-normalizes v in place.
// Returns false if v has zero L2 norm.
func NormalizeL2InPlace(v []float32) bool {
	norm2 := SquaredNorm(v)
	if norm2 == 0 {
		return false
	}
	scaleInPlace(v, math.Sqrt(norm2))
	return true
}

// NormalizeL1InPlace L1-normalizes v in place.
// Returns false if v has zero L1 norm.
func NormalizeL1InPlace(v []float32) bool {
	var norm float64
	for _, x := range v {
		norm += math.Abs(float64(x))
	}
	if norm == 0 {
		return false
	}
	scaleInPlace(v, norm)
	return true
}

func scaleInPlace(v []float32, div float64) {
	for i, x := range v {
		v[i] = float32(float64(x) / div)
	}
}

// Norm selects the row normalization applied after TF-IDF weighting.
type Norm string

const (
	NormL2   Norm = "l2"
	NormL1   Norm = "l1"
	NormNone Norm = "none"
)

func (n Norm) String() string {
	return string(n)
}

// Normalizer returns the in-place normalization function for n, or nil for
// NormNone.
func Normalizer(n Norm) (func([]float32) bool, error) {
	switch n {
	case NormL2:
		return NormalizeL2InPlace, nil
	case NormL1:
		return NormalizeL1InPlace, nil
	case NormNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("distance: unsupported norm %q", string(n))
	}
}
