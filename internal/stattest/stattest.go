// Package stattest implements the hypothesis tests run against the target:
// Pearson correlation, pooled t-test, one-way ANOVA, chi-square
// independence, Shapiro-Wilk normality and Levene equal variance.
package stattest

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/KaramelBytes/salescope-cli/internal/stats"
)

var (
	// ErrTooFewSamples is returned when a test has too little data.
	ErrTooFewSamples = errors.New("too few samples")
	// ErrZeroVariance is returned when an input has no spread.
	ErrZeroVariance = errors.New("zero variance")
	// ErrNotBinary is returned when an indicator does not have exactly two values.
	ErrNotBinary = errors.New("indicator is not binary")
	// ErrTooFewGroups is returned when fewer than two groups are present.
	ErrTooFewGroups = errors.New("fewer than two groups")
	// ErrZeroExpected is returned when a contingency cell has zero expected frequency.
	ErrZeroExpected = errors.New("zero expected frequency")
)

// Pearson returns the correlation coefficient of x and y and the two-sided
// p-value from a Student t distribution with n-2 degrees of freedom.
func Pearson(x, y []float64) (r, p float64, err error) {
	if len(x) != len(y) {
		return 0, 0, errors.Errorf("pearson: length mismatch %d vs %d", len(x), len(y))
	}
	n := len(x)
	if n < 3 {
		return 0, 0, errors.Wrapf(ErrTooFewSamples, "pearson: n=%d", n)
	}
	if constant(x) || constant(y) {
		return 0, 0, errors.Wrap(ErrZeroVariance, "pearson")
	}
	r = stat.Correlation(x, y, nil)
	r = math.Max(-1, math.Min(1, r))
	if math.Abs(r) == 1 {
		return r, 0, nil
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return r, twoSidedT(t, df), nil
}

// TTest is the two-sample Student t-test with pooled variance.
func TTest(a, b []float64) (t, p, df float64, err error) {
	n1, n2 := float64(len(a)), float64(len(b))
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0, errors.Wrapf(ErrTooFewSamples, "t-test: group sizes %d and %d", len(a), len(b))
	}
	df = n1 + n2 - 2
	if df < 1 {
		return 0, 0, 0, errors.Wrapf(ErrTooFewSamples, "t-test: %v degrees of freedom", df)
	}
	m1, v1 := meanVar(a)
	m2, v2 := meanVar(b)
	pooled := ((n1-1)*v1 + (n2-1)*v2) / df
	if pooled == 0 {
		return 0, 0, df, errors.Wrap(ErrZeroVariance, "t-test")
	}
	t = (m1 - m2) / math.Sqrt(pooled*(1/n1+1/n2))
	return t, twoSidedT(t, df), df, nil
}

// ANOVA is the one-way analysis of variance across groups.
func ANOVA(groups ...[]float64) (f, p float64, err error) {
	k := len(groups)
	if k < 2 {
		return 0, 0, errors.Wrapf(ErrTooFewGroups, "anova: %d group(s)", k)
	}
	var total, n float64
	for i, g := range groups {
		if len(g) == 0 {
			return 0, 0, errors.Wrapf(ErrTooFewSamples, "anova: group %d is empty", i)
		}
		total += floats.Sum(g)
		n += float64(len(g))
	}
	if n-float64(k) < 1 {
		return 0, 0, errors.Wrapf(ErrTooFewSamples, "anova: %v observations for %d groups", n, k)
	}
	grand := total / n
	var ssb, ssw float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		ssb += float64(len(g)) * (m - grand) * (m - grand)
		for _, v := range g {
			ssw += (v - m) * (v - m)
		}
	}
	if ssw == 0 {
		return 0, 0, errors.Wrap(ErrZeroVariance, "anova: within-group variance")
	}
	d1, d2 := float64(k-1), n-float64(k)
	f = (ssb / d1) / (ssw / d2)
	return f, distuv.F{D1: d1, D2: d2}.Survival(f), nil
}

// Levene tests equality of variances, centring each group on its median
// (the Brown-Forsythe variant).
func Levene(groups ...[]float64) (w, p float64, err error) {
	centred := make([][]float64, len(groups))
	for i, g := range groups {
		if len(g) == 0 {
			return 0, 0, errors.Wrapf(ErrTooFewSamples, "levene: group %d is empty", i)
		}
		med := stats.Median(g)
		z := make([]float64, len(g))
		for j, v := range g {
			z[j] = math.Abs(v - med)
		}
		centred[i] = z
	}
	w, p, err = ANOVA(centred...)
	return w, p, errors.Wrap(err, "levene")
}

func twoSidedT(t, df float64) float64 {
	p := 2 * distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Survival(math.Abs(t))
	return math.Min(1, p)
}

func meanVar(x []float64) (mean, variance float64) {
	if len(x) == 1 {
		return x[0], 0
	}
	return stat.MeanVariance(x, nil)
}

func constant(x []float64) bool {
	for _, v := range x[1:] {
		if v != x[0] {
			return false
		}
	}
	return true
}
