package model

import (
	"io"

	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

const (
	DefaultEstimators   = 100
	DefaultLearningRate = 0.1
	DefaultBoostDepth   = 3
)

// BoostOption configures a GradientBoostingRegressor.
type BoostOption func(*GradientBoostingRegressor)

// WithEstimators sets the number of boosting stages.
func WithEstimators(n int) BoostOption {
	return func(g *GradientBoostingRegressor) { g.Estimators = n }
}

// WithLearningRate sets the shrinkage applied to each stage.
func WithLearningRate(lr float64) BoostOption {
	return func(g *GradientBoostingRegressor) { g.LearningRate = lr }
}

// WithBoostDepth sets the depth of each stage's tree.
func WithBoostDepth(d int) BoostOption {
	return func(g *GradientBoostingRegressor) { g.MaxDepth = d }
}

// WithProgress draws a progress bar on w while fitting.
func WithProgress(w io.Writer) BoostOption {
	return func(g *GradientBoostingRegressor) { g.progress = w }
}

// GradientBoostingRegressor fits shallow trees to the residuals of the
// running prediction under squared loss, starting from the target mean.
type GradientBoostingRegressor struct {
	Estimators   int
	LearningRate float64
	MaxDepth     int

	init     float64
	stages   []*DecisionTreeRegressor
	features schema
	progress io.Writer
}

func NewGradientBoostingRegressor(opts ...BoostOption) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		Estimators:   DefaultEstimators,
		LearningRate: DefaultLearningRate,
		MaxDepth:     DefaultBoostDepth,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GradientBoostingRegressor) Name() string { return "Gradient Boosting" }

func (g *GradientBoostingRegressor) Fit(X *dataset.Table, y []float64) error {
	if g.Estimators < 1 {
		return errors.Errorf("gradient boosting: estimators must be positive, got %d", g.Estimators)
	}
	if g.LearningRate <= 0 {
		return errors.Errorf("gradient boosting: learning rate must be positive, got %g", g.LearningRate)
	}
	features, rows, err := bind(X, len(y))
	if err != nil {
		return errors.Wrap(err, "gradient boosting")
	}

	var bar *progressbar.ProgressBar
	if g.progress != nil {
		bar = progressbar.NewOptions(g.Estimators,
			progressbar.OptionSetWriter(g.progress),
			progressbar.OptionSetDescription("boosting"),
			progressbar.OptionClearOnFinish(),
		)
	}

	var sum float64
	for _, v := range y {
		sum += v
	}
	g.init = sum / float64(len(y))
	pred := make([]float64, len(y))
	for i := range pred {
		pred[i] = g.init
	}
	order := presort(rows, len(features))
	residual := make([]float64, len(y))
	g.stages = make([]*DecisionTreeRegressor, 0, g.Estimators)
	for m := 0; m < g.Estimators; m++ {
		for i := range y {
			residual[i] = y[i] - pred[i]
		}
		tree := NewDecisionTreeRegressor(WithMaxDepth(g.MaxDepth))
		tree.fitMatrix(rows, residual, len(features), order)
		for i, r := range rows {
			pred[i] += g.LearningRate * tree.predictRow(r)
		}
		g.stages = append(g.stages, tree)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	g.features = features
	return nil
}

func (g *GradientBoostingRegressor) Predict(X *dataset.Table) ([]float64, error) {
	rows, err := g.features.matrix(X)
	if err != nil {
		return nil, errors.Wrap(err, "gradient boosting")
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		v := g.init
		for _, t := range g.stages {
			v += g.LearningRate * t.predictRow(r)
		}
		out[i] = v
	}
	return out, nil
}

// FeatureImportances averages each stage's raw impurity decrease, skipping
// stages that never split, and normalizes the mean to sum to 1.
func (g *GradientBoostingRegressor) FeatureImportances() ([]Importance, error) {
	if !g.features.fitted() {
		return nil, ErrNotFitted
	}
	mean := make([]float64, len(g.features))
	used := 0
	for _, t := range g.stages {
		if t.root.leaf {
			continue
		}
		used++
		for j, d := range t.decrease {
			mean[j] += d
		}
	}
	if used > 0 {
		for j := range mean {
			mean[j] /= float64(used)
		}
	}
	return newImportances(g.features, normalize(mean)), nil
}
