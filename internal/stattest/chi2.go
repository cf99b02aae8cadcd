package stattest

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat/distuv"
)

// Crosstab is a contingency table of observed counts.
type Crosstab struct {
	Rows, Cols []string
	Counts     [][]float64
}

// ChiSquare runs the chi-square test of independence on a contingency
// table. With one degree of freedom Yates' continuity correction is applied.
func ChiSquare(counts [][]float64) (chi2, p float64, dof int, err error) {
	r := len(counts)
	if r == 0 || len(counts[0]) == 0 {
		return 0, 0, 0, errors.Wrap(ErrTooFewSamples, "chi-square: empty table")
	}
	c := len(counts[0])
	rowSum := make([]float64, r)
	colSum := make([]float64, c)
	var total float64
	for i, row := range counts {
		if len(row) != c {
			return 0, 0, 0, errors.Errorf("chi-square: row %d has %d cells, want %d", i, len(row), c)
		}
		for j, v := range row {
			rowSum[i] += v
			colSum[j] += v
			total += v
		}
	}
	if total == 0 {
		return 0, 0, 0, errors.Wrap(ErrTooFewSamples, "chi-square: no observations")
	}
	expected := make([][]float64, r)
	for i := range expected {
		expected[i] = make([]float64, c)
		for j := range expected[i] {
			e := rowSum[i] * colSum[j] / total
			if e == 0 {
				return 0, 0, 0, errors.Wrapf(ErrZeroExpected, "chi-square: cell (%d,%d)", i, j)
			}
			expected[i][j] = e
		}
	}
	dof = (r - 1) * (c - 1)
	if dof == 0 {
		return 0, 1, 0, nil
	}
	for i := range counts {
		for j, o := range counts[i] {
			e := expected[i][j]
			if dof == 1 {
				diff := e - o
				o += math.Copysign(math.Min(0.5, math.Abs(diff)), diff)
			}
			chi2 += (o - e) * (o - e) / e
		}
	}
	p = distuv.ChiSquared{K: float64(dof)}.Survival(chi2)
	return chi2, p, dof, nil
}
