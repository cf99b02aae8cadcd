package prep

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// Scaler standardizes columns to zero mean and unit population variance.
type Scaler struct {
	Columns []string
	Mean    []float64
	Std     []float64
}

// FitScaler learns the population mean and standard deviation of each named
// column. A zero standard deviation is stored as 1 so the column maps to 0.
func FitScaler(t *dataset.Table, columns []string) (*Scaler, error) {
	s := &Scaler{Columns: append([]string(nil), columns...)}
	for _, name := range columns {
		c, ok := t.Column(name)
		if !ok {
			return nil, errors.Wrapf(dataset.ErrMissingColumn, "scale %q", name)
		}
		if !c.IsNumericLike() {
			return nil, errors.Wrapf(dataset.ErrNotNumeric, "scale %q", name)
		}
		if len(c.Num) == 0 {
			return nil, errors.Wrapf(dataset.ErrEmptyTable, "scale %q", name)
		}
		mean, std := stat.PopMeanStdDev(c.Num, nil)
		if std == 0 {
			std = 1
		}
		s.Mean = append(s.Mean, mean)
		s.Std = append(s.Std, std)
	}
	return s, nil
}

// Transform returns a copy of t with the fitted columns standardized.
// Standardized columns become Numeric.
func (s *Scaler) Transform(t *dataset.Table) (*dataset.Table, error) {
	out := &dataset.Table{Name: t.Name, Columns: append([]*dataset.Column(nil), t.Columns...)}
	for j, name := range s.Columns {
		idx := -1
		for i, c := range out.Columns {
			if c.Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, errors.Wrapf(dataset.ErrMissingColumn, "scale %q", name)
		}
		src := out.Columns[idx]
		scaled := make([]float64, len(src.Num))
		for i, v := range src.Num {
			scaled[i] = (v - s.Mean[j]) / s.Std[j]
		}
		out.Columns[idx] = &dataset.Column{Name: name, Kind: dataset.Numeric, Num: scaled}
	}
	return out, nil
}

// Inverse maps a standardized value of column back to its original units.
func (s *Scaler) Inverse(column string, v float64) (float64, bool) {
	for j, name := range s.Columns {
		if name == column {
			return v*s.Std[j] + s.Mean[j], true
		}
	}
	return 0, false
}
