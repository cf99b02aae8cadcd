package model

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Importance is one feature's share of a model's total impurity decrease.
type Importance struct {
	Feature string
	Score   float64
}

// newImportances pairs scores with feature names and sorts them descending.
// Equal scores keep column order.
func newImportances(features schema, scores []float64) []Importance {
	out := make([]Importance, len(features))
	for i, f := range features {
		out[i] = Importance{Feature: f, Score: scores[i]}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out
}

// normalize scales v in place to sum to 1. An all-zero vector is left as is.
func normalize(v []float64) []float64 {
	if s := floats.Sum(v); s > 0 {
		floats.Scale(1/s, v)
	}
	return v
}
