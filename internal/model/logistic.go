package model

import (
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

const (
	DefaultC       = 1.0
	DefaultMaxIter = 100
)

// LogisticRegression is a binary classifier with an L2 penalty of strength
// 1/C on the coefficients. The intercept is not penalized.
type LogisticRegression struct {
	C       float64
	MaxIter int

	Coef      []float64
	Intercept float64
	// Converged is false when the optimizer stopped on the iteration limit.
	Converged bool
	features  schema
}

func NewLogisticRegression(c float64, maxIter int) *LogisticRegression {
	if c <= 0 {
		c = DefaultC
	}
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	return &LogisticRegression{C: c, MaxIter: maxIter}
}

func (m *LogisticRegression) Name() string { return "Logistic Regression" }

// Fit minimizes the mean log-loss plus ||w||²/(2Cn) with L-BFGS.
func (m *LogisticRegression) Fit(X *dataset.Table, labels []int) error {
	features, rows, err := bind(X, len(labels))
	if err != nil {
		return errors.Wrap(err, "logistic regression")
	}
	y := make([]float64, len(labels))
	for i, l := range labels {
		if l != 0 && l != 1 {
			return errors.Errorf("logistic regression: label %d at row %d is not 0 or 1", l, i)
		}
		y[i] = float64(l)
	}
	if classes := lo.Uniq(labels); len(classes) < 2 {
		return errors.Errorf("logistic regression: needs samples of both classes, got only %v", classes)
	}
	n, p := float64(len(rows)), len(features)
	penalty := 1 / (m.C * n)

	// params[:p] are the coefficients, params[p] the intercept.
	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			w, b := params[:p], params[p]
			var loss float64
			for i, r := range rows {
				z := floats.Dot(w, r) + b
				loss += softplus(z) - y[i]*z
			}
			return loss/n + 0.5*penalty*floats.Dot(w, w)
		},
		Grad: func(grad, params []float64) {
			w, b := params[:p], params[p]
			for j := range grad {
				grad[j] = 0
			}
			for i, r := range rows {
				d := sigmoid(floats.Dot(w, r)+b) - y[i]
				floats.AddScaled(grad[:p], d, r)
				grad[p] += d
			}
			floats.Scale(1/n, grad)
			floats.AddScaled(grad[:p], penalty, w)
		},
	}
	settings := &optimize.Settings{MajorIterations: m.MaxIter, GradientThreshold: 1e-6}
	res, err := optimize.Minimize(problem, make([]float64, p+1), settings, &optimize.LBFGS{})
	if res == nil {
		return errors.Wrap(err, "logistic regression")
	}
	// A line search failure near the optimum still leaves a usable point.
	m.Coef = append([]float64(nil), res.X[:p]...)
	m.Intercept = res.X[p]
	m.Converged = err == nil && res.Status != optimize.IterationLimit
	m.features = features
	return nil
}

// PredictProba returns p(label=1) per row.
func (m *LogisticRegression) PredictProba(X *dataset.Table) ([]float64, error) {
	rows, err := m.features.matrix(X)
	if err != nil {
		return nil, errors.Wrap(err, "logistic regression")
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = sigmoid(floats.Dot(m.Coef, r) + m.Intercept)
	}
	return out, nil
}

// Predict labels rows with p > 0.5 as 1.
func (m *LogisticRegression) Predict(X *dataset.Table) ([]int, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(proba))
	for i, v := range proba {
		if v > 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// softplus is log(1+e^z) without overflow.
func softplus(z float64) float64 {
	return math.Max(z, 0) + math.Log1p(math.Exp(-math.Abs(z)))
}
