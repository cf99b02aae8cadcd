// Package model holds the estimators compared by the pipeline and the
// metrics used to score them.
package model

import (
	"github.com/pkg/errors"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

var (
	// ErrNotFitted is returned by Predict before Fit succeeded.
	ErrNotFitted = errors.New("model is not fitted")
	// ErrSchemaMismatch is returned when Predict sees different feature columns than Fit.
	ErrSchemaMismatch = errors.New("feature schema mismatch")
)

// Regressor is a supervised model with a continuous target.
type Regressor interface {
	Name() string
	Fit(X *dataset.Table, y []float64) error
	Predict(X *dataset.Table) ([]float64, error)
}

// Classifier is a supervised binary model with 0/1 labels.
type Classifier interface {
	Name() string
	Fit(X *dataset.Table, labels []int) error
	Predict(X *dataset.Table) ([]int, error)
	// PredictProba returns p(label=1) per row.
	PredictProba(X *dataset.Table) ([]float64, error)
}

// FeatureImporter is implemented by models that score their inputs.
type FeatureImporter interface {
	FeatureImportances() ([]Importance, error)
}

var (
	_ Regressor       = (*LinearRegression)(nil)
	_ Regressor       = (*DecisionTreeRegressor)(nil)
	_ Regressor       = (*GradientBoostingRegressor)(nil)
	_ FeatureImporter = (*DecisionTreeRegressor)(nil)
	_ FeatureImporter = (*GradientBoostingRegressor)(nil)
	_ Classifier      = (*LogisticRegression)(nil)
)

// schema is the ordered feature list a model was fitted on.
type schema []string

func (s schema) fitted() bool { return s != nil }

// bind records the feature names of X and returns its matrix.
func bind(X *dataset.Table, n int) (schema, [][]float64, error) {
	if X.NumRows() != n {
		return nil, nil, errors.Errorf("%d feature rows but %d targets", X.NumRows(), n)
	}
	if n == 0 {
		return nil, nil, errors.Wrap(dataset.ErrEmptyTable, "fit")
	}
	m, err := X.Matrix()
	if err != nil {
		return nil, nil, err
	}
	return schema(append([]string{}, X.Names()...)), m, nil
}

// matrix checks X against the fitted schema and returns its matrix.
func (s schema) matrix(X *dataset.Table) ([][]float64, error) {
	if !s.fitted() {
		return nil, ErrNotFitted
	}
	names := X.Names()
	if len(names) != len(s) {
		return nil, errors.Wrapf(ErrSchemaMismatch, "got %d features, fitted on %d", len(names), len(s))
	}
	for i := range s {
		if names[i] != s[i] {
			return nil, errors.Wrapf(ErrSchemaMismatch, "feature %d is %q, fitted on %q", i, names[i], s[i])
		}
	}
	return X.Matrix()
}
