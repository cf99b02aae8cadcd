package stattest

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// Two degrees of freedom keep the reference p-values in closed form:
// t: p = 1 - |t|/sqrt(t^2+2); F(2,2): p = 1/(1+F); chi2(2): p = exp(-x/2).

func TestPearson(t *testing.T) {
	r, p, err := Pearson([]float64{1, 2, 3, 4}, []float64{1, 3, 2, 4})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, r, 1e-12)
	assert.InDelta(t, 0.2, p, 1e-9)

	r, p, err = Pearson([]float64{1, 2, 3}, []float64{6, 4, 2})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, r, 1e-12)
	assert.InDelta(t, 0.0, p, 1e-9)

	_, _, err = Pearson([]float64{1, 1, 1}, []float64{1, 2, 3})
	assert.True(t, errors.Is(err, ErrZeroVariance))
	_, _, err = Pearson([]float64{1, 2}, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrTooFewSamples))
}

func TestTTestPooled(t *testing.T) {
	stat, p, df, err := TTest([]float64{1, 3}, []float64{5, 7})
	require.NoError(t, err)
	assert.Equal(t, 2.0, df)
	assert.InDelta(t, -2*math.Sqrt2, stat, 1e-12)
	assert.InDelta(t, 1-2*math.Sqrt2/math.Sqrt(10), p, 1e-9)

	_, _, _, err = TTest(nil, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrTooFewSamples))
	_, _, _, err = TTest([]float64{2, 2}, []float64{5, 5})
	assert.True(t, errors.Is(err, ErrZeroVariance))
}

func TestANOVA(t *testing.T) {
	f, p, err := ANOVA([]float64{1, 3}, []float64{5, 7}, []float64{9})
	require.NoError(t, err)
	assert.InDelta(t, 9.0, f, 1e-12)
	assert.InDelta(t, 0.1, p, 1e-9)

	_, _, err = ANOVA([]float64{1, 2, 3})
	assert.True(t, errors.Is(err, ErrTooFewGroups))
	_, _, err = ANOVA([]float64{1, 1}, []float64{2, 2})
	assert.True(t, errors.Is(err, ErrZeroVariance))
}

func TestChiSquareYates(t *testing.T) {
	chi2, p, dof, err := ChiSquare([][]float64{{10, 20}, {30, 40}})
	require.NoError(t, err)
	assert.Equal(t, 1, dof)
	assert.InDelta(t, 0.4464285714285714, chi2, 1e-12)
	assert.InDelta(t, 0.5040358664525048, p, 1e-9)
}

func TestChiSquareNoCorrection(t *testing.T) {
	chi2, p, dof, err := ChiSquare([][]float64{{10, 20, 30}, {20, 20, 20}})
	require.NoError(t, err)
	assert.Equal(t, 2, dof)
	assert.InDelta(t, 16.0/3, chi2, 1e-12)
	assert.InDelta(t, math.Exp(-8.0/3), p, 1e-9)

	_, _, _, err = ChiSquare([][]float64{{0, 5}, {0, 7}})
	assert.True(t, errors.Is(err, ErrZeroExpected))
}

func TestShapiroWilk(t *testing.T) {
	w, p, err := ShapiroWilk([]float64{3, 1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, w, 1e-12)
	assert.InDelta(t, 1.0, p, 1e-9)

	w, p, err = ShapiroWilk([]float64{148, 154, 158, 160, 161, 162, 166, 170, 182, 195, 236})
	require.NoError(t, err)
	assert.InDelta(t, 0.7888, w, 1e-4)
	assert.InDelta(t, 0.0067, p, 1e-4)

	evenly := make([]float64, 20)
	for i := range evenly {
		evenly[i] = float64(i + 1)
	}
	w, p, err = ShapiroWilk(evenly)
	require.NoError(t, err)
	assert.InDelta(t, 0.9604, w, 1e-4)
	assert.InDelta(t, 0.5514, p, 1e-4)

	_, _, err = ShapiroWilk([]float64{1, 2})
	assert.True(t, errors.Is(err, ErrTooFewSamples))
	_, _, err = ShapiroWilk([]float64{4, 4, 4, 4})
	assert.True(t, errors.Is(err, ErrZeroVariance))
}

func TestLeveneMedianCentred(t *testing.T) {
	w, p, err := Levene([]float64{1, 2, 6}, []float64{3})
	require.NoError(t, err)
	assert.InDelta(t, 0.4807692307692308, w, 1e-12)
	assert.InDelta(t, 0.5597745468371881, p, 1e-9)
}

func testTable(t *testing.T) (*dataset.Table, []float64) {
	t.Helper()
	X, err := dataset.NewTable("X",
		&dataset.Column{Name: "Temperature", Kind: dataset.Numeric, Num: []float64{1, 2, 3, 4, 5, 6, 7, 8}},
		&dataset.Column{Name: "IsHoliday", Kind: dataset.Boolean, Num: []float64{0, 1, 0, 1, 0, 1, 0, 0}},
		&dataset.Column{Name: "Type", Kind: dataset.Encoded, Num: []float64{0, 1, 2, 0, 1, 2, 0, 1}, Levels: []string{"A", "B", "C"}},
	)
	require.NoError(t, err)
	return X, []float64{1.5, 2.1, 2.9, 4.2, 5.1, 5.8, 7.3, 8.1}
}

func TestRunAllTests(t *testing.T) {
	X, y := testTable(t)
	results := Run(X, y, DefaultConfig())
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
		assert.True(t, r.OK(), "%s: %v", r.Name, r.Err)
	}
	assert.Equal(t, []string{
		"Pearson Temperature",
		"Pearson Type",
		"T-test IsHoliday",
		"ANOVA Type",
		"Chi-square IsHoliday x Type",
		"Shapiro-Wilk target",
		"Levene IsHoliday",
	}, names)
	assert.Greater(t, results[0].Statistic, 0.99)
	assert.Equal(t, 6, results[2].DoF)
	assert.Equal(t, 2, results[4].DoF)
	assert.Contains(t, results[4].String(), "dof=2")
}

func TestRunLabelsFailuresAndContinues(t *testing.T) {
	X, y := testTable(t)
	results := Run(X.Drop("Type"), y, Config{BinaryColumn: "IsHoliday", GroupColumn: "Type"})
	byName := map[string]Result{}
	for _, r := range results {
		byName[r.Name] = r
	}
	assert.True(t, errors.Is(byName["ANOVA Type"].Err, dataset.ErrMissingColumn))
	assert.True(t, errors.Is(byName["Chi-square IsHoliday x Type"].Err, dataset.ErrMissingColumn))
	assert.Contains(t, byName["ANOVA Type"].String(), "failed")
	assert.True(t, byName["T-test IsHoliday"].OK())
	assert.True(t, byName["Shapiro-Wilk target"].OK())

	results = Run(X, y, Config{BinaryColumn: "Temperature", GroupColumn: "Type"})
	for _, r := range results {
		if r.Name == "T-test Temperature" || r.Name == "Levene Temperature" {
			assert.True(t, errors.Is(r.Err, ErrNotBinary), r.Name)
		}
	}
}

func TestCrosstabSortedLabels(t *testing.T) {
	X, _ := testTable(t)
	ct, err := NewCrosstab(X, "IsHoliday", "Type")
	require.NoError(t, err)
	assert.Equal(t, []string{"false", "true"}, ct.Rows)
	assert.Equal(t, []string{"A", "B", "C"}, ct.Cols)
	assert.Equal(t, [][]float64{{2, 2, 1}, {1, 1, 1}}, ct.Counts)
}
