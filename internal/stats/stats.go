// Package stats holds the small descriptive helpers shared by the inspector,
// the cleaner and the statistical tests.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Quantile returns the q-th quantile of sorted values using linear
// interpolation between closest ranks (position q*(n-1)).
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	below := int(math.Floor(pos))
	above := int(math.Ceil(pos))
	if below == above {
		return sorted[below]
	}
	w := pos - float64(below)
	return sorted[below]*(1-w) + sorted[above]*w
}

// Sorted returns a sorted copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Median of unsorted values.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}

// Quartiles returns Q1, median and Q3 of unsorted values.
func Quartiles(vals []float64) (q1, q2, q3 float64) {
	s := Sorted(vals)
	return Quantile(s, 0.25), Quantile(s, 0.5), Quantile(s, 0.75)
}

// IQRBounds returns the Tukey fences [Q1-k*IQR, Q3+k*IQR].
func IQRBounds(q1, q3, k float64) (lower, upper float64) {
	iqr := q3 - q1
	return q1 - k*iqr, q3 + k*iqr
}

// MeanStd returns the mean and the sample (n-1) standard deviation.
func MeanStd(vals []float64) (mean, std float64) {
	switch len(vals) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return vals[0], math.NaN()
	}
	mean, variance := stat.MeanVariance(vals, nil)
	return mean, math.Sqrt(variance)
}

// DropNaN returns the values that are not NaN.
func DropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}
