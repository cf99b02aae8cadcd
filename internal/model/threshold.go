package model

import (
	"github.com/pkg/errors"

	"github.com/KaramelBytes/salescope-cli/internal/stats"
)

// MedianThreshold is the cut used to turn the regression target into a
// binary label. Only training targets may feed it.
func MedianThreshold(yTrain []float64) (float64, error) {
	if len(yTrain) == 0 {
		return 0, errors.New("threshold: no training targets")
	}
	return stats.Median(yTrain), nil
}

// Binarize labels values at or above thr as 1.
func Binarize(y []float64, thr float64) []int {
	out := make([]int, len(y))
	for i, v := range y {
		if v >= thr {
			out[i] = 1
		}
	}
	return out
}
