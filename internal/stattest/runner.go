package stattest

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// Result is the outcome of one test. When Err is set the numeric fields are
// meaningless.
type Result struct {
	Name      string
	Statistic float64
	PValue    float64
	DoF       int
	HasDoF    bool
	Note      string
	Err       error
}

// OK reports whether the test produced a statistic.
func (r Result) OK() bool { return r.Err == nil }

func (r Result) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: failed: %v", r.Name, r.Err)
	}
	s := fmt.Sprintf("%s: statistic=%.4f, p-value=%.4f", r.Name, r.Statistic, r.PValue)
	if r.HasDoF {
		s += fmt.Sprintf(", dof=%d", r.DoF)
	}
	if r.Note != "" {
		s += " (" + r.Note + ")"
	}
	return s
}

// Config names the columns the group tests use.
type Config struct {
	BinaryColumn string
	GroupColumn  string
}

// DefaultConfig matches the retail sales layout.
func DefaultConfig() Config {
	return Config{BinaryColumn: "IsHoliday", GroupColumn: "Type"}
}

// Run executes every test of X's columns against y. A failing test yields a
// Result with Err set and never stops the others.
func Run(X *dataset.Table, y []float64, cfg Config) []Result {
	if len(y) != X.NumRows() {
		return []Result{{Name: "all tests", Err: errors.Errorf("%d feature rows but %d targets", X.NumRows(), len(y))}}
	}
	var out []Result
	for _, c := range X.Columns {
		if c.Kind != dataset.Numeric && c.Kind != dataset.Encoded {
			continue
		}
		res := Result{Name: "Pearson " + c.Name}
		res.Statistic, res.PValue, res.Err = Pearson(c.Num, y)
		out = append(out, res)
	}
	out = append(out,
		runTTest(X, y, cfg.BinaryColumn),
		runANOVA(X, y, cfg.GroupColumn),
		runChiSquare(X, cfg.BinaryColumn, cfg.GroupColumn),
		runShapiro(y),
		runLevene(X, y, cfg.BinaryColumn),
	)
	return out
}

func runTTest(X *dataset.Table, y []float64, binary string) Result {
	res := Result{Name: "T-test " + binary}
	lowGrp, highGrp, err := binaryGroups(X, y, binary)
	if err != nil {
		res.Err = err
		return res
	}
	var df float64
	res.Statistic, res.PValue, df, res.Err = TTest(lowGrp, highGrp)
	res.DoF, res.HasDoF = int(df), res.Err == nil
	return res
}

func runLevene(X *dataset.Table, y []float64, binary string) Result {
	res := Result{Name: "Levene " + binary}
	lowGrp, highGrp, err := binaryGroups(X, y, binary)
	if err != nil {
		res.Err = err
		return res
	}
	res.Statistic, res.PValue, res.Err = Levene(lowGrp, highGrp)
	return res
}

func runANOVA(X *dataset.Table, y []float64, group string) Result {
	res := Result{Name: "ANOVA " + group}
	c, ok := X.Column(group)
	if !ok {
		res.Err = errors.Wrapf(dataset.ErrMissingColumn, "%q", group)
		return res
	}
	var groups [][]float64
	idx := map[string]int{}
	for i := 0; i < c.Len(); i++ {
		key := c.Value(i)
		j, seen := idx[key]
		if !seen {
			j = len(groups)
			idx[key] = j
			groups = append(groups, nil)
		}
		groups[j] = append(groups[j], y[i])
	}
	res.Statistic, res.PValue, res.Err = ANOVA(groups...)
	res.Note = fmt.Sprintf("%d groups", len(groups))
	return res
}

func runChiSquare(X *dataset.Table, rowCol, colCol string) Result {
	res := Result{Name: fmt.Sprintf("Chi-square %s x %s", rowCol, colCol)}
	ct, err := NewCrosstab(X, rowCol, colCol)
	if err != nil {
		res.Err = err
		return res
	}
	res.Statistic, res.PValue, res.DoF, res.Err = ChiSquare(ct.Counts)
	res.HasDoF = res.Err == nil
	return res
}

func runShapiro(y []float64) Result {
	res := Result{Name: "Shapiro-Wilk target"}
	res.Statistic, res.PValue, res.Err = ShapiroWilk(y)
	if len(y) > ShapiroMaxReliableN {
		res.Note = fmt.Sprintf("p-value may be inaccurate for n=%d > %d", len(y), ShapiroMaxReliableN)
	}
	return res
}

// binaryGroups splits y by the two distinct values of column. The first
// group holds the rows with the lower value.
func binaryGroups(X *dataset.Table, y []float64, column string) (lowGrp, highGrp []float64, err error) {
	c, ok := X.Column(column)
	if !ok {
		return nil, nil, errors.Wrapf(dataset.ErrMissingColumn, "%q", column)
	}
	keys, rowKey := sortedKeys(c)
	if len(keys) != 2 {
		return nil, nil, errors.Wrapf(ErrNotBinary, "%q has %d distinct values", column, len(keys))
	}
	for i, k := range rowKey {
		if k == 0 {
			lowGrp = append(lowGrp, y[i])
		} else {
			highGrp = append(highGrp, y[i])
		}
	}
	return lowGrp, highGrp, nil
}

// NewCrosstab counts rows of X by the values of two columns. Row and column
// labels are sorted, numerically for numeric-like columns.
func NewCrosstab(X *dataset.Table, rowCol, colCol string) (*Crosstab, error) {
	if err := X.Require(rowCol, colCol); err != nil {
		return nil, err
	}
	rc, _ := X.Column(rowCol)
	cc, _ := X.Column(colCol)
	rowLabels, rowKey := sortedKeys(rc)
	colLabels, colKey := sortedKeys(cc)
	ct := &Crosstab{Rows: rowLabels, Cols: colLabels, Counts: make([][]float64, len(rowLabels))}
	for i := range ct.Counts {
		ct.Counts[i] = make([]float64, len(colLabels))
	}
	for i := range rowKey {
		ct.Counts[rowKey[i]][colKey[i]]++
	}
	return ct, nil
}

// sortedKeys returns the sorted distinct labels of c and, per row, the index
// of its label.
func sortedKeys(c *dataset.Column) (labels []string, rowKey []int) {
	rowKey = make([]int, c.Len())
	if c.Kind == dataset.Categorical {
		labels = lo.Uniq(c.Str)
		sort.Strings(labels)
		idx := make(map[string]int, len(labels))
		for i, l := range labels {
			idx[l] = i
		}
		for i, v := range c.Str {
			rowKey[i] = idx[v]
		}
		return labels, rowKey
	}
	vals := lo.Uniq(c.Num)
	sort.Float64s(vals)
	idx := make(map[float64]int, len(vals))
	labels = make([]string, len(vals))
	for i, v := range vals {
		idx[v] = i
		labels[i] = formatKey(c, v)
	}
	for i, v := range c.Num {
		rowKey[i] = idx[v]
	}
	return labels, rowKey
}

func formatKey(c *dataset.Column, v float64) string {
	switch {
	case c.Kind == dataset.Boolean:
		return strconv.FormatBool(v != 0)
	case c.Kind == dataset.Encoded && v == math.Trunc(v) && int(v) >= 0 && int(v) < len(c.Levels):
		return c.Levels[int(v)]
	default:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
}
