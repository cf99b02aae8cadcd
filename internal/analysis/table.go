package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/stats"
)

// Options controls what Summarize computes.
type Options struct {
	// SampleRows determines how many head rows to include in the report; 0 disables them.
	SampleRows int
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// IQRMultiplier sets the fence width used for outlier counts.
	IQRMultiplier float64
	// TopValues caps the categorical value counts kept per column.
	TopValues int
	// GroupBy summarises GroupTarget per distinct value of this column.
	GroupBy     string
	GroupTarget string
}

// DefaultOptions returns reasonable defaults for dataset inspection.
func DefaultOptions() Options {
	return Options{
		SampleRows:    5,
		Correlations:  true,
		IQRMultiplier: 1.5,
		TopValues:     5,
	}
}

// Report is a markdown-friendly summary of a table.
type Report struct {
	Name     string
	Rows     int
	Cols     []ColumnSummary
	Samples  [][]string
	Warnings []string
	Groups   []GroupResult
	Corr     *CorrMatrix
}

// ColumnSummary captures inferred type and statistics per column.
type ColumnSummary struct {
	Name    string
	Kind    dataset.Kind
	NonNull int
	Missing int
	Unique  int
	// Describe statistics, numeric columns only.
	Mean, Std       float64
	Min, Q1, Median float64
	Q3, Max         float64
	// Values outside [LowerFence, UpperFence].
	OutliersCount          int
	LowerFence, UpperFence float64
	// Categorical and boolean value counts.
	TopValues []CategoryCount
}

// IsNumeric reports whether describe statistics are populated.
func (c ColumnSummary) IsNumeric() bool { return c.Kind == dataset.Numeric }

type CategoryCount struct {
	Value string
	Count int
}

// GroupResult is the per-group view of one numeric column.
type GroupResult struct {
	Key    string
	Size   int
	Mean   float64
	Min    float64
	Max    float64
	Column string
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs returns up to n off-diagonal pairs ordered by |r|.
func (m *CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			r := m.Values[i][j]
			if math.IsNaN(r) {
				continue
			}
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: r})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if n > 0 && len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

// Summarize inspects t without modifying it.
func Summarize(t *dataset.Table, opt Options) *Report {
	rep := &Report{Name: t.Name, Rows: t.NumRows()}
	if opt.IQRMultiplier <= 0 {
		opt.IQRMultiplier = 1.5
	}
	if opt.TopValues <= 0 {
		opt.TopValues = 5
	}
	for _, c := range t.Columns {
		s := summarizeColumn(c, opt)
		if s.NonNull == 0 && s.Missing > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q has no values", c.Name))
		} else if s.Missing*2 > s.Missing+s.NonNull {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q is %.0f%% missing", c.Name, 100*float64(s.Missing)/float64(s.Missing+s.NonNull)))
		}
		if s.IsNumeric() && s.NonNull > 1 && s.Std == 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("column %q is constant", c.Name))
		}
		rep.Cols = append(rep.Cols, s)
	}

	for i := 0; i < t.NumRows() && i < opt.SampleRows; i++ {
		rep.Samples = append(rep.Samples, t.Row(i))
	}

	if opt.Correlations {
		rep.Corr = Correlations(t)
	}
	if opt.GroupBy != "" && opt.GroupTarget != "" {
		rep.Groups = groupSummary(t, opt.GroupBy, opt.GroupTarget)
	}
	return rep
}

func summarizeColumn(c *dataset.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name, Kind: c.Kind}
	s.Missing = c.MissingCount()
	s.NonNull = c.Len() - s.Missing

	if c.Kind != dataset.Numeric {
		counts := map[string]int{}
		for i := 0; i < c.Len(); i++ {
			if !c.IsMissing(i) {
				counts[c.Value(i)]++
			}
		}
		s.Unique = len(counts)
		tops := lo.MapToSlice(counts, func(v string, n int) CategoryCount {
			return CategoryCount{Value: v, Count: n}
		})
		sort.Slice(tops, func(i, j int) bool {
			if tops[i].Count == tops[j].Count {
				return tops[i].Value < tops[j].Value
			}
			return tops[i].Count > tops[j].Count
		})
		if len(tops) > opt.TopValues {
			tops = tops[:opt.TopValues]
		}
		s.TopValues = tops
		return s
	}

	vals := stats.DropNaN(c.Num)
	s.Unique = len(lo.Uniq(vals))
	if len(vals) == 0 {
		s.Mean, s.Std = math.NaN(), math.NaN()
		s.Min, s.Q1, s.Median, s.Q3, s.Max = math.NaN(), math.NaN(), math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Mean, s.Std = stats.MeanStd(vals)
	sorted := stats.Sorted(vals)
	s.Min, s.Max = sorted[0], sorted[len(sorted)-1]
	s.Q1 = stats.Quantile(sorted, 0.25)
	s.Median = stats.Quantile(sorted, 0.5)
	s.Q3 = stats.Quantile(sorted, 0.75)
	s.LowerFence, s.UpperFence = stats.IQRBounds(s.Q1, s.Q3, opt.IQRMultiplier)
	for _, v := range vals {
		if v < s.LowerFence || v > s.UpperFence {
			s.OutliersCount++
		}
	}
	return s
}

// Correlations computes pairwise-complete Pearson correlations over the
// numeric columns of t. Pairs with fewer than two complete rows or zero
// variance are NaN.
func Correlations(t *dataset.Table) *CorrMatrix {
	var cols []*dataset.Column
	for _, c := range t.Columns {
		if c.Kind == dataset.Numeric {
			cols = append(cols, c)
		}
	}
	m := &CorrMatrix{Columns: make([]string, len(cols)), Values: make([][]float64, len(cols))}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, len(cols))
	}
	for a := range cols {
		for b := a; b < len(cols); b++ {
			r := pairwisePearson(cols[a].Num, cols[b].Num)
			if a == b && !math.IsNaN(r) {
				r = 1
			}
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

func pairwisePearson(x, y []float64) float64 {
	xs := make([]float64, 0, len(x))
	ys := make([]float64, 0, len(y))
	for i := range x {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsInf(r, 0) {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, r))
}

func groupSummary(t *dataset.Table, by, target string) []GroupResult {
	g, ok := t.Column(by)
	if !ok {
		return nil
	}
	y, ok := t.Column(target)
	if !ok || y.Kind != dataset.Numeric {
		return nil
	}
	idx := map[string]int{}
	var out []GroupResult
	for i := 0; i < t.NumRows(); i++ {
		if g.IsMissing(i) || math.IsNaN(y.Num[i]) {
			continue
		}
		key := g.Value(i)
		j, seen := idx[key]
		if !seen {
			j = len(out)
			idx[key] = j
			out = append(out, GroupResult{Key: key, Column: target, Min: math.Inf(1), Max: math.Inf(-1)})
		}
		r := &out[j]
		r.Size++
		r.Mean += (y.Num[i] - r.Mean) / float64(r.Size)
		r.Min = math.Min(r.Min, y.Num[i])
		r.Max = math.Max(r.Max, y.Num[i])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
