// Package prep turns a raw table into model-ready features: imputation,
// outlier filtering, label encoding, standardization and the train/test split.
package prep

import (
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/stats"
)

// Fill records the value used to impute one column.
type Fill struct {
	Column  string
	Value   string
	Count   int
	Numeric bool
}

// Impute returns a copy of t with no missing values. Numeric columns take the
// mean of their present values; categorical columns take the most frequent
// value, ties broken by the lexicographically smallest. Columns without any
// missing entry are left untouched and not reported.
func Impute(t *dataset.Table) (*dataset.Table, []Fill, error) {
	out := t.Clone()
	var fills []Fill
	for _, c := range out.Columns {
		missing := c.MissingCount()
		if missing == 0 {
			continue
		}
		switch c.Kind {
		case dataset.Categorical:
			mode, ok := Mode(c.Str)
			if !ok {
				return nil, nil, errors.Errorf("impute %q: no values to take a mode of", c.Name)
			}
			for i, v := range c.Str {
				if v == "" {
					c.Str[i] = mode
				}
			}
			fills = append(fills, Fill{Column: c.Name, Value: mode, Count: missing})
		default:
			present := stats.DropNaN(c.Num)
			if len(present) == 0 {
				return nil, nil, errors.Errorf("impute %q: no values to take a mean of", c.Name)
			}
			mean := stat.Mean(present, nil)
			for i, v := range c.Num {
				if math.IsNaN(v) {
					c.Num[i] = mean
				}
			}
			fills = append(fills, Fill{Column: c.Name, Value: strconv.FormatFloat(mean, 'g', 6, 64), Count: missing, Numeric: true})
		}
	}
	return out, fills, nil
}

// Mode returns the most frequent non-empty value. Ties go to the
// lexicographically smallest value.
func Mode(values []string) (string, bool) {
	counts := map[string]int{}
	for _, v := range values {
		if v != "" {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return "", false
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best, true
}
