package prep

import (
	"github.com/pkg/errors"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/stats"
)

// DefaultIQRMultiplier is the conventional Tukey fence width.
const DefaultIQRMultiplier = 1.5

// OutlierStep records one column's pass of the IQR filter.
type OutlierStep struct {
	Column       string
	Q1, Q3       float64
	Lower, Upper float64
	Dropped      int
	Remaining    int
}

// FilterOutliers drops rows outside [Q1-k*IQR, Q3+k*IQR] for each numeric
// column in table order. Bounds are inclusive. Each column's quartiles are
// computed on the rows that survived the previous columns. It returns
// dataset.ErrEmptyTable when no rows are left.
func FilterOutliers(t *dataset.Table, k float64) (*dataset.Table, []OutlierStep, error) {
	if k <= 0 {
		k = DefaultIQRMultiplier
	}
	if t.NumRows() == 0 {
		return nil, nil, errors.Wrap(dataset.ErrEmptyTable, "outlier filter")
	}
	var steps []OutlierStep
	cur := t
	for _, name := range t.Names() {
		c, _ := cur.Column(name)
		if c.Kind != dataset.Numeric {
			continue
		}
		q1, _, q3 := stats.Quartiles(c.Num)
		lower, upper := stats.IQRBounds(q1, q3, k)
		before := cur.NumRows()
		col := c
		cur = cur.Filter(func(i int) bool {
			v := col.Num[i]
			return v >= lower && v <= upper
		})
		steps = append(steps, OutlierStep{
			Column: name, Q1: q1, Q3: q3, Lower: lower, Upper: upper,
			Dropped: before - cur.NumRows(), Remaining: cur.NumRows(),
		})
		if cur.NumRows() == 0 {
			return nil, steps, errors.Wrapf(dataset.ErrEmptyTable, "outlier filter on %q", name)
		}
	}
	return cur, steps, nil
}
