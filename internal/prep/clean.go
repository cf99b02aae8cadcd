package prep

import (
	"github.com/pkg/errors"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// Options controls the cleaning pipeline.
type Options struct {
	// IQRMultiplier is the fence width k; 0 means DefaultIQRMultiplier.
	IQRMultiplier float64
	// ScaleEncoded also standardizes label-encoded columns.
	ScaleEncoded bool
}

// CleanReport describes what Clean did to the table.
type CleanReport struct {
	RowsIn        int
	RowsOut       int
	MissingBefore []ColumnCount
	Fills         []Fill
	Outliers      []OutlierStep
	Encoders      []*Encoder
	Scaler        *Scaler
}

// ColumnCount pairs a column name with a count.
type ColumnCount struct {
	Column string
	Count  int
}

// Encoder returns the encoder fitted for column, if any.
func (r *CleanReport) Encoder(column string) (*Encoder, bool) {
	for _, e := range r.Encoders {
		if e.Column == column {
			return e, true
		}
	}
	return nil, false
}

// Clean imputes, filters outliers, encodes and scales t, in that order.
// The input table is not modified.
func Clean(t *dataset.Table, opt Options) (*dataset.Table, *CleanReport, error) {
	rep := &CleanReport{RowsIn: t.NumRows()}
	for _, c := range t.Columns {
		rep.MissingBefore = append(rep.MissingBefore, ColumnCount{Column: c.Name, Count: c.MissingCount()})
	}

	imputed, fills, err := Impute(t)
	if err != nil {
		return nil, rep, err
	}
	rep.Fills = fills

	filtered, steps, err := FilterOutliers(imputed, opt.IQRMultiplier)
	rep.Outliers = steps
	if err != nil {
		return nil, rep, err
	}

	encoded, encoders, err := EncodeAll(filtered)
	if err != nil {
		return nil, rep, err
	}
	rep.Encoders = encoders

	var scaleCols []string
	for _, c := range encoded.Columns {
		if c.Kind == dataset.Numeric || (opt.ScaleEncoded && c.Kind == dataset.Encoded) {
			scaleCols = append(scaleCols, c.Name)
		}
	}
	scaler, err := FitScaler(encoded, scaleCols)
	if err != nil {
		return nil, rep, errors.Wrap(err, "fit scaler")
	}
	rep.Scaler = scaler
	scaled, err := scaler.Transform(encoded)
	if err != nil {
		return nil, rep, err
	}
	rep.RowsOut = scaled.NumRows()
	return scaled, rep, nil
}
