package model

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// LinearRegression is ordinary least squares with an intercept. The
// coefficients are the minimum-norm solution, so collinear features do not
// make the fit fail.
type LinearRegression struct {
	Coef      []float64
	Intercept float64
	features  schema
}

// NewLinearRegression returns an unfitted model.
func NewLinearRegression() *LinearRegression { return &LinearRegression{} }

func (m *LinearRegression) Name() string { return "Linear Regression" }

// Fit centres X and y and solves the least-squares problem by SVD.
func (m *LinearRegression) Fit(X *dataset.Table, y []float64) error {
	features, rows, err := bind(X, len(y))
	if err != nil {
		return errors.Wrap(err, "linear regression")
	}
	n, p := len(rows), len(features)
	yMean := floats.Sum(y) / float64(n)
	xMean := make([]float64, p)
	for _, r := range rows {
		floats.Add(xMean, r)
	}
	floats.Scale(1/float64(n), xMean)

	coef := make([]float64, p)
	if p > 0 {
		xc := mat.NewDense(n, p, nil)
		yc := mat.NewVecDense(n, nil)
		for i, r := range rows {
			for j, v := range r {
				xc.Set(i, j, v-xMean[j])
			}
			yc.SetVec(i, y[i]-yMean)
		}
		var svd mat.SVD
		if !svd.Factorize(xc, mat.SVDThin) {
			return errors.New("linear regression: SVD did not converge")
		}
		if rank := svd.Rank(1e-12); rank > 0 {
			var beta mat.VecDense
			svd.SolveVecTo(&beta, yc, rank)
			for j := range coef {
				coef[j] = beta.AtVec(j)
			}
		}
	}
	m.Coef = coef
	m.Intercept = yMean - floats.Dot(xMean, coef)
	m.features = features
	return nil
}

// Predict returns X·coef + intercept.
func (m *LinearRegression) Predict(X *dataset.Table) ([]float64, error) {
	rows, err := m.features.matrix(X)
	if err != nil {
		return nil, errors.Wrap(err, "linear regression")
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = floats.Dot(r, m.Coef) + m.Intercept
	}
	return out, nil
}
