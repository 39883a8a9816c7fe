package cohort

import (
	"math"
	"math/rand/v2"
	"sort"
)

// weightedChoice picks an index from a fixed set, uniformly when no weights are given.
type weightedChoice struct {
	n   int
	cdf []float64 // nil for uniform
}

func newWeightedChoice(name string, n int, weights []float64) (*weightedChoice, error) {
	if len(weights) == 0 {
		return &weightedChoice{n: n}, nil
	}
	if len(weights) != n {
		return nil, invalid("%s has %d entries for %d values", name, len(weights), n)
	}
	total := 0.0
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return nil, invalid("%s[%d] must be a finite non-negative number, got %g", name, i, w)
		}
		total += w
	}
	if total <= 0 {
		return nil, invalid("%s must contain at least one positive weight", name)
	}
	cdf := make([]float64, n)
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w / total
		cdf[i] = cumulative
	}
	cdf[n-1] = 1.0
	return &weightedChoice{n: n, cdf: cdf}, nil
}

func (c *weightedChoice) pick(rng *rand.Rand) int {
	if c.cdf == nil {
		return rng.IntN(c.n)
	}
	u := rng.Float64()
	// Strictly-greater search so zero-weight entries (flat CDF steps) are never chosen.
	idx := sort.Search(c.n, func(i int) bool { return c.cdf[i] > u })
	if idx >= c.n {
		idx = c.n - 1
	}
	return idx
}
