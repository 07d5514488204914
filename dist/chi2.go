// Package dist implements distribution functions used by the
// composition tests.
package dist

import (
	"math"

	"github.com/gonum/mathext"
)

/*

IncompleteGamma returns the incomplete gamma ratio I(x,alpha) where x
is the upper limit of the integration and alpha is the shape
parameter.

*/
func IncompleteGamma(x, alpha float64) float64 {
	return mathext.GammaInc(alpha, x)
}

// CDFChi2 returns Prob{X<x} for a Chi2 distributed X with df degrees
// of freedom.
func CDFChi2(x, df float64) float64 {
	if x <= 0 {
		return 0
	}
	return IncompleteGamma(x/2, df/2)
}

// Chi2PValue returns the upper tail probability Prob{X>=x}. Without
// degrees of freedom nothing can be rejected, so 1 is returned.
func Chi2PValue(x, df float64) float64 {
	if df <= 0 || math.IsNaN(x) {
		return 1
	}
	return 1 - CDFChi2(x, df)
}

// QuantileChi2 returns z so that Prob{x<z}=prob where x is Chi2
// distributed with df degrees of freedom. Returns -1 if in error.
func QuantileChi2(prob, df float64) float64 {
	if df <= 0 || prob < 0 || prob >= 1 {
		return -1
	}
	if prob == 0 {
		return 0
	}
	lo, hi := 0.0, math.Max(1, df)
	for CDFChi2(hi, df) < prob {
		hi *= 2
	}
	for i := 0; i < 200 && hi-lo > 1e-12*hi; i++ {
		mid := (lo + hi) / 2
		if CDFChi2(mid, df) < prob {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// LnFactorial returns log(n!).
func LnFactorial(n int) float64 {
	v, _ := math.Lgamma(float64(n) + 1)
	return v
}
