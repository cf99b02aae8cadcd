package prep

import (
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// ErrUnknownLabel is returned when an encoder meets a label it was not fitted on.
var ErrUnknownLabel = errors.New("unknown label")

// Encoder maps the sorted distinct labels of one column to codes 0..k-1.
type Encoder struct {
	Column string
	Levels []string
	index  map[string]int
}

// FitEncoder learns the levels of values. Empty strings are ignored.
func FitEncoder(column string, values []string) *Encoder {
	levels := lo.Uniq(lo.Filter(values, func(v string, _ int) bool { return v != "" }))
	sort.Strings(levels)
	e := &Encoder{Column: column, Levels: levels, index: make(map[string]int, len(levels))}
	for i, l := range levels {
		e.index[l] = i
	}
	return e
}

// Transform encodes labels to codes.
func (e *Encoder) Transform(values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		code, ok := e.index[v]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownLabel, "%q in column %q", v, e.Column)
		}
		out[i] = float64(code)
	}
	return out, nil
}

// Inverse decodes codes back to labels.
func (e *Encoder) Inverse(codes []float64) ([]string, error) {
	out := make([]string, len(codes))
	for i, c := range codes {
		if !isCode(c, len(e.Levels)) {
			return nil, errors.Errorf("code %v out of range for column %q", c, e.Column)
		}
		out[i] = e.Levels[int(c)]
	}
	return out, nil
}

// Recode re-applies the encoder to codes it produced. The result equals the
// input for every valid code.
func (e *Encoder) Recode(codes []float64) ([]float64, error) {
	labels, err := e.Inverse(codes)
	if err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// EncodeColumn fits an encoder on a categorical column and returns the
// encoded column.
func EncodeColumn(c *dataset.Column) (*dataset.Column, *Encoder, error) {
	if c.Kind != dataset.Categorical {
		return nil, nil, errors.Errorf("column %q is %s, not categorical", c.Name, c.Kind)
	}
	if c.MissingCount() > 0 {
		return nil, nil, errors.Errorf("column %q has missing values", c.Name)
	}
	enc := FitEncoder(c.Name, c.Str)
	codes, err := enc.Transform(c.Str)
	if err != nil {
		return nil, nil, err
	}
	return &dataset.Column{
		Name:   c.Name,
		Kind:   dataset.Encoded,
		Num:    codes,
		Levels: append([]string(nil), enc.Levels...),
	}, enc, nil
}

// EncodeAll replaces every categorical column of t with its encoded form.
// Encoders are returned in column order.
func EncodeAll(t *dataset.Table) (*dataset.Table, []*Encoder, error) {
	out := &dataset.Table{Name: t.Name, Columns: make([]*dataset.Column, len(t.Columns))}
	var encoders []*Encoder
	for i, c := range t.Columns {
		if c.Kind != dataset.Categorical {
			out.Columns[i] = c
			continue
		}
		ec, enc, err := EncodeColumn(c)
		if err != nil {
			return nil, nil, errors.Wrap(err, "encode")
		}
		out.Columns[i] = ec
		encoders = append(encoders, enc)
	}
	return out, encoders, nil
}

// isCode reports whether v is a valid code for k levels.
func isCode(v float64, k int) bool {
	return v == math.Trunc(v) && v >= 0 && int(v) < k
}
