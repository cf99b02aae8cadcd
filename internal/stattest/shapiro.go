package stattest

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/salescope-cli/internal/stats"
)

// ShapiroMaxReliableN is the sample size above which the Shapiro-Wilk
// p-value approximation is no longer accurate.
const ShapiroMaxReliableN = 5000

// Royston (1995) polynomial coefficients, algorithm AS R94.
var (
	swC1 = []float64{0, 0.221157, -0.147981, -2.071190, 4.434685, -2.706056}
	swC2 = []float64{0, 0.042981, -0.293762, -1.752461, 5.682633, -3.582633}
	swC3 = []float64{0.5440, -0.39978, 0.025054, -6.714e-4}
	swC4 = []float64{1.3822, -0.77857, 0.062767, -0.0020322}
	swC5 = []float64{-1.5861, -0.31082, -0.083751, 0.0038915}
	swC6 = []float64{-0.4803, -0.082676, 0.0030302}
	swG  = []float64{-2.273, 0.459}
)

// ShapiroWilk returns the W statistic and p-value for the null hypothesis
// that x was drawn from a normal distribution. It needs at least 3 values.
func ShapiroWilk(x []float64) (w, p float64, err error) {
	n := len(x)
	if n < 3 {
		return 0, 0, errors.Wrapf(ErrTooFewSamples, "shapiro-wilk: n=%d", n)
	}
	xs := stats.Sorted(x)
	if xs[n-1]-xs[0] == 0 {
		return 0, 0, errors.Wrap(ErrZeroVariance, "shapiro-wilk")
	}

	a := swCoefficients(n)
	var num float64
	for i, ai := range a {
		num += ai * (xs[n-1-i] - xs[i])
	}
	var mean, ss float64
	for _, v := range xs {
		mean += v
	}
	mean /= float64(n)
	for _, v := range xs {
		ss += (v - mean) * (v - mean)
	}
	w = math.Min(1, num*num/ss)
	return w, swPValue(w, n), nil
}

// swCoefficients returns the first n/2 coefficients; the rest are their
// negatives in reverse order.
func swCoefficients(n int) []float64 {
	half := n / 2
	a := make([]float64, half)
	if n == 3 {
		a[0] = math.Sqrt(0.5)
		return a
	}
	an := float64(n)
	m := make([]float64, half)
	var summ2 float64
	for i := range m {
		m[i] = distuv.UnitNormal.Quantile((float64(i+1) - 0.375) / (an + 0.25))
		summ2 += m[i] * m[i]
	}
	summ2 *= 2
	ssumm2 := math.Sqrt(summ2)
	rsn := 1 / math.Sqrt(an)
	a1 := poly(swC1, rsn) - m[0]/ssumm2

	first := 1
	var fac float64
	if n > 5 {
		first = 2
		a2 := -m[1]/ssumm2 + poly(swC2, rsn)
		fac = math.Sqrt((summ2 - 2*m[0]*m[0] - 2*m[1]*m[1]) / (1 - 2*a1*a1 - 2*a2*a2))
		a[1] = a2
	} else {
		fac = math.Sqrt((summ2 - 2*m[0]*m[0]) / (1 - 2*a1*a1))
	}
	a[0] = a1
	for i := first; i < half; i++ {
		a[i] = -m[i] / fac
	}
	return a
}

func swPValue(w float64, n int) float64 {
	if n == 3 {
		const pi6, stqr = 6 / math.Pi, math.Pi / 3
		return math.Max(0, pi6*(math.Asin(math.Sqrt(w))-stqr))
	}
	y := math.Log(1 - w)
	an := float64(n)
	var m, s float64
	if n <= 11 {
		gamma := poly(swG, an)
		if y >= gamma {
			return 1e-99
		}
		y = -math.Log(gamma - y)
		m = poly(swC3, an)
		s = math.Exp(poly(swC4, an))
	} else {
		xx := math.Log(an)
		m = poly(swC5, xx)
		s = math.Exp(poly(swC6, xx))
	}
	return distuv.UnitNormal.Survival((y - m) / s)
}

// poly evaluates c[0] + c[1]*x + c[2]*x^2 + ...
func poly(c []float64, x float64) float64 {
	var r float64
	for i := len(c) - 1; i >= 0; i-- {
		r = r*x + c[i]
	}
	return r
}
