package significance

import (
	"math"

	"myEventReco/domain"
)

// Alpha is the two-sided significance threshold.
const Alpha = 0.05

// Abramowitz & Stegun 7.1.26 coefficients.
const (
	asP  = 0.47047
	asA1 = 0.3480242
	asA2 = -0.0958798
	asA3 = 0.7478556
)

// Compare runs a two-proportion z-test of c1/n1 against c2/n2 using the
// pooled proportion; z is positive when the first rate is higher. An empty
// sample has rate 0 and yields z=0, p=1.
func Compare(n1, c1, n2, c2 int64) domain.Significance {
	p1 := rate(c1, n1)
	p2 := rate(c2, n2)
	out := domain.Significance{
		P1:     p1,
		P2:     p2,
		Diff:   p1 - p2,
		PValue: 1,
	}
	if n1 <= 0 || n2 <= 0 {
		return out
	}

	pooled := float64(c1+c2) / float64(n1+n2)
	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(n1) + 1/float64(n2)))
	if se == 0 || math.IsNaN(se) {
		return out
	}

	out.Z = (p1 - p2) / se
	out.PValue = TwoSidedPValue(out.Z)
	out.Significant = out.PValue < Alpha
	return out
}

func rate(c, n int64) float64 {
	if n <= 0 {
		return 0
	}
	return float64(c) / float64(n)
}

// TwoSidedPValue approximates 2*(1-Phi(|z|)) with the A&S erf polynomial,
// max absolute error around 2.5e-5.
func TwoSidedPValue(z float64) float64 {
	x := math.Abs(z) / math.Sqrt2
	t := 1 / (1 + asP*x)
	erfc := (asA1*t + asA2*t*t + asA3*t*t*t) * math.Exp(-x*x)
	return math.Min(1, math.Max(0, erfc))
}
