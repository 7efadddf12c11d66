package evaluate

import (
	"math"
	"math/rand"

	"github.com/hupe1980/leadrec/model"
)

// Split partitions ids into a training and a held-out part with a seeded
// shuffle. The held-out part has ceil(fraction*len(ids)) entries; the same
// inputs always produce the same split.
func Split(ids []string, fraction float64, seed int64) (train, test []string, err error) {
	if !(fraction > 0 && fraction < 1) {
		return nil, nil, model.NewConfigError("test fraction", fraction, "must be within (0, 1)")
	}
	n := len(ids)
	if n < 2 {
		return nil, nil, model.NewConfigError("portfolio size", n, "need at least 2 ids to split")
	}
	nTest := int(math.Ceil(fraction * float64(n)))
	if nTest >= n {
		return nil, nil, model.NewConfigError("test fraction", fraction, "leaves no training ids out of %d", n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	test = make([]string, nTest)
	for i, p := range perm[:nTest] {
		test[i] = ids[p]
	}
	train = make([]string, n-nTest)
	for i, p := range perm[nTest:] {
		train[i] = ids[p]
	}
	return train, test, nil
}
