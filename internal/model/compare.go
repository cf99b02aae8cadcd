package model

import (
	"sort"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/log"
)

// Score is one regressor's result on the test set.
type Score struct {
	Name  string
	MSE   float64
	R2    float64
	Pred  []float64
	Model Regressor
}

// Evaluate fits every model on the training data and scores it on the test
// data. The first failure aborts.
func Evaluate(models []Regressor, xTrain *dataset.Table, yTrain []float64, xTest *dataset.Table, yTest []float64) ([]Score, error) {
	scores := make([]Score, 0, len(models))
	for _, m := range models {
		log.Logger().Debug("fitting model", zap.String("model", m.Name()), zap.Int("rows", len(yTrain)))
		if err := m.Fit(xTrain, yTrain); err != nil {
			return nil, err
		}
		pred, err := m.Predict(xTest)
		if err != nil {
			return nil, err
		}
		s := Score{Name: m.Name(), Pred: pred, Model: m}
		if s.MSE, err = MSE(yTest, pred); err != nil {
			return nil, errors.Wrap(err, m.Name())
		}
		if s.R2, err = R2(yTest, pred); err != nil {
			return nil, errors.Wrap(err, m.Name())
		}
		log.Logger().Debug("model scored", zap.String("model", s.Name), zap.Float64("mse", s.MSE), zap.Float64("r2", s.R2))
		scores = append(scores, s)
	}
	return scores, nil
}

// Rank orders scores by R² descending, then MSE ascending.
func Rank(scores []Score) []Score {
	out := append([]Score(nil), scores...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].R2 != out[j].R2 {
			return out[i].R2 > out[j].R2
		}
		return out[i].MSE < out[j].MSE
	})
	return out
}
