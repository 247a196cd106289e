package stats

import (
	"fmt"
	"math"
	"sort"
)

// Correction holds Benjamini-Hochberg adjusted p-values and reject
// decisions, in the order of the input p-values.
type Correction struct {
	Adjusted []float64
	Reject   []bool
	Alpha    float64
}

// BenjaminiHochberg applies the Benjamini-Hochberg step-up procedure to a
// single pool of p-values. The adjusted value for the hypothesis at
// ascending rank i is min over j >= i of p(j)*n/j, capped at 1. A
// hypothesis is rejected when its adjusted value is <= alpha.
func BenjaminiHochberg(pvals []float64, alpha float64) (*Correction, error) {
	n := len(pvals)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty p-value vector", ErrInvalidInput)
	}
	if !(alpha > 0 && alpha < 1) {
		return nil, fmt.Errorf("%w: alpha %g outside (0,1)", ErrInvalidInput, alpha)
	}
	for i, p := range pvals {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("%w: p-value %g at index %d outside [0,1]", ErrInvalidInput, p, i)
		}
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return pvals[idx[i]] < pvals[idx[j]]
	})

	c := &Correction{
		Adjusted: make([]float64, n),
		Reject:   make([]bool, n),
		Alpha:    alpha,
	}
	minP := 1.0
	for i := n - 1; i >= 0; i-- {
		orig := idx[i]
		rank := i + 1
		adjusted := pvals[orig] * float64(n) / float64(rank)
		if adjusted < minP {
			minP = adjusted
		}
		c.Adjusted[orig] = minP
		c.Reject[orig] = minP <= alpha
	}

	return c, nil
}
