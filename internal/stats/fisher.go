package stats

import (
	"math"

	fet "github.com/glycerine/golang-fisher-exact"
	"gonum.org/v1/gonum/stat/combin"
)

// maxGammaTable is the largest table total for which fet's lgamma, built
// on math.Gamma, stays finite.
const maxGammaTable = 170

// relTolerance treats tables whose probability is within this relative
// distance of the observed one as equally extreme.
const relTolerance = 1e-7

// FisherTwoSided returns the two-sided Fisher exact p-value of the 2x2
// table
//
//	n11  n12
//	n21  n22
//
// It is the summed probability of every table with the same margins that
// is no more likely than the observed one.
func FisherTwoSided(n11, n12, n21, n22 int) float64 {
	if n11 < 0 || n12 < 0 || n21 < 0 || n22 < 0 {
		return 1
	}
	if n11+n12+n21+n22 <= maxGammaTable {
		_, _, _, twop := fet.FisherExactTest(n11, n12, n21, n22)
		if math.IsNaN(twop) {
			return 1
		}
		return math.Max(0, math.Min(1, twop))
	}
	return hypergeomTwoSided(n11, n11+n21, n11+n12, n11+n12+n21+n22)
}

// hypergeomTwoSided sums the hypergeometric probabilities of every
// k' in the support with pmf(k') <= pmf(k), in log space so large
// universes do not overflow.
func hypergeomTwoSided(k, successes, draws, total int) float64 {
	lo := max(0, draws-(total-successes))
	hi := min(draws, successes)
	if lo == hi {
		return 1
	}

	logDenom := combin.LogGeneralizedBinomial(float64(total), float64(draws))
	logPMF := func(x int) float64 {
		return combin.LogGeneralizedBinomial(float64(successes), float64(x)) +
			combin.LogGeneralizedBinomial(float64(total-successes), float64(draws-x)) -
			logDenom
	}

	cut := logPMF(k) + math.Log1p(relTolerance)
	var p float64
	for x := lo; x <= hi; x++ {
		if lp := logPMF(x); lp <= cut {
			p += math.Exp(lp)
		}
	}
	return math.Max(0, math.Min(1, p))
}
