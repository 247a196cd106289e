package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/combin"
)

// HypergeomSF returns P(X >= k) where X counts successes in draws taken
// without replacement from a population of total items containing
// successes items. It is the one-sided over-representation p-value of a
// study set of size draws with k annotated members.
func HypergeomSF(k, total, successes, draws int) (float64, error) {
	if total < 0 || successes < 0 || draws < 0 || successes > total || draws > total {
		return 0, fmt.Errorf("%w: hypergeometric parameters total=%d successes=%d draws=%d",
			ErrInvalidInput, total, successes, draws)
	}
	if k < 0 || k > draws || k > successes {
		return 0, fmt.Errorf("%w: hypergeometric observation k=%d (draws=%d successes=%d)",
			ErrInvalidInput, k, draws, successes)
	}

	lo := max(0, draws-(total-successes))
	hi := min(draws, successes)
	if k <= lo {
		return 1, nil
	}

	logDenom := combin.LogGeneralizedBinomial(float64(total), float64(draws))
	var p float64
	for i := k; i <= hi; i++ {
		p += math.Exp(combin.LogGeneralizedBinomial(float64(successes), float64(i)) +
			combin.LogGeneralizedBinomial(float64(total-successes), float64(draws-i)) -
			logDenom)
	}
	return math.Min(1, p), nil
}
