package dist

import (
	"math"
	"testing"
)

const smallDiff = 1e-6

/*** Tests if a and b are approximately equal ***/
func appreq(a, b float64) bool {
	return math.Abs(a-b) <= smallDiff
}

func TestChi2PValue(tst *testing.T) {
	// df=2 is the exponential distribution with mean 2
	for _, x := range []float64{0.1, 1, 3.5, 10} {
		if p := Chi2PValue(x, 2); !appreq(p, math.Exp(-x/2)) {
			tst.Errorf("x=%v: expected %v, got %v", x, math.Exp(-x/2), p)
		}
	}
	if p := Chi2PValue(3.841459, 1); !appreq(p, 0.05) {
		tst.Error("Expected p=0.05, got", p)
	}
	if Chi2PValue(5, 0) != 1 {
		tst.Error("No degrees of freedom must give p=1")
	}
}

func TestQuantileChi2(tst *testing.T) {
	if q := QuantileChi2(0.95, 1); !appreq(q, 3.841459) {
		tst.Error("Expected 3.841459, got", q)
	}
	if q := QuantileChi2(0.95, 3); !appreq(q, 7.814728) {
		tst.Error("Expected 7.814728, got", q)
	}
	if QuantileChi2(1, 3) != -1 {
		tst.Error("Expected error for prob=1")
	}
}

func TestLnFactorial(tst *testing.T) {
	if !appreq(LnFactorial(5), math.Log(120)) || LnFactorial(0) != 0 {
		tst.Error("Wrong factorial")
	}
}

func BenchmarkChi2PValue(b *testing.B) {
	for i := 0; i < b.N; i++ {
		Chi2PValue(float64(i%100)/10, 19)
	}
}
