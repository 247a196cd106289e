package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Pearson returns the Pearson correlation coefficient of x and y and its
// two-sided p-value under the null hypothesis of no correlation, using
// Student's t with len(x)-2 degrees of freedom.
func Pearson(x, y []float64) (r, p float64, err error) {
	if len(x) != len(y) {
		return 0, 0, fmt.Errorf("%w: vector lengths differ (%d vs %d)", ErrInvalidInput, len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return 0, 0, fmt.Errorf("%w: need at least 3 observations, got %d", ErrInvalidInput, n)
	}
	if isConstant(x) || isConstant(y) {
		return 0, 0, ErrConstantInput
	}

	r = stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0, 0, ErrConstantInput
	}
	r = math.Max(-1, math.Min(1, r))

	return r, pearsonPValue(r, n), nil
}

func pearsonPValue(r float64, n int) float64 {
	if math.Abs(r) == 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * dist.Survival(math.Abs(t))
	return math.Max(0, math.Min(1, p))
}

func isConstant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}
