package model

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

func checkLen(a, b int) error {
	if a != b {
		return errors.Errorf("length mismatch: %d vs %d", a, b)
	}
	if a == 0 {
		return errors.New("no samples")
	}
	return nil
}

// MSE is the mean squared error.
func MSE(yTrue, yPred []float64) (float64, error) {
	if err := checkLen(len(yTrue), len(yPred)); err != nil {
		return 0, errors.Wrap(err, "mse")
	}
	var s float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		s += d * d
	}
	return s / float64(len(yTrue)), nil
}

// R2 is the coefficient of determination. A constant yTrue scores 1 when
// predicted exactly and 0 otherwise.
func R2(yTrue, yPred []float64) (float64, error) {
	if err := checkLen(len(yTrue), len(yPred)); err != nil {
		return 0, errors.Wrap(err, "r2")
	}
	mean := stat.Mean(yTrue, nil)
	var ssRes, ssTot float64
	for i := range yTrue {
		d := yTrue[i] - yPred[i]
		ssRes += d * d
		t := yTrue[i] - mean
		ssTot += t * t
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1, nil
		}
		return 0, nil
	}
	return 1 - ssRes/ssTot, nil
}

// Accuracy is the share of matching labels.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if err := checkLen(len(yTrue), len(yPred)); err != nil {
		return 0, errors.Wrap(err, "accuracy")
	}
	hit := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(yTrue)), nil
}

// ConfusionMatrix counts [true][predicted] for labels 0 and 1.
type ConfusionMatrix [2][2]int

func NewConfusionMatrix(yTrue, yPred []int) (ConfusionMatrix, error) {
	var cm ConfusionMatrix
	if err := checkLen(len(yTrue), len(yPred)); err != nil {
		return cm, errors.Wrap(err, "confusion matrix")
	}
	for i := range yTrue {
		t, p := yTrue[i], yPred[i]
		if t < 0 || t > 1 || p < 0 || p > 1 {
			return cm, errors.Errorf("confusion matrix: labels must be 0 or 1, got %d/%d at row %d", t, p, i)
		}
		cm[t][p]++
	}
	return cm, nil
}

func (cm ConfusionMatrix) String() string {
	return fmt.Sprintf("[[%d %d]\n [%d %d]]", cm[0][0], cm[0][1], cm[1][0], cm[1][1])
}

// ClassMetrics holds per-class or averaged scores.
type ClassMetrics struct {
	Label     string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// ClassificationReport mirrors the usual precision/recall/F1 table.
type ClassificationReport struct {
	Classes  [2]ClassMetrics
	Accuracy float64
	Macro    ClassMetrics
	Weighted ClassMetrics
	Total    int
}

// NewClassificationReport derives the report from a confusion matrix.
// Undefined ratios (zero denominators) are reported as 0.
func NewClassificationReport(cm ConfusionMatrix) ClassificationReport {
	var r ClassificationReport
	for c := 0; c < 2; c++ {
		tp := cm[c][c]
		predicted := cm[0][c] + cm[1][c]
		support := cm[c][0] + cm[c][1]
		m := ClassMetrics{Label: fmt.Sprint(c), Support: support}
		m.Precision = ratio(tp, predicted)
		m.Recall = ratio(tp, support)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[c] = m
		r.Total += support
	}
	r.Accuracy = ratio(cm[0][0]+cm[1][1], r.Total)
	r.Macro = ClassMetrics{Label: "macro avg", Support: r.Total}
	r.Weighted = ClassMetrics{Label: "weighted avg", Support: r.Total}
	for _, m := range r.Classes {
		r.Macro.Precision += m.Precision / 2
		r.Macro.Recall += m.Recall / 2
		r.Macro.F1 += m.F1 / 2
		if r.Total > 0 {
			w := float64(m.Support) / float64(r.Total)
			r.Weighted.Precision += w * m.Precision
			r.Weighted.Recall += w * m.Recall
			r.Weighted.F1 += w * m.F1
		}
	}
	return r
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func (r ClassificationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%12s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, m := range r.Classes {
		writeMetricsLine(&b, m)
	}
	fmt.Fprintf(&b, "%12s %9s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.Total)
	writeMetricsLine(&b, r.Macro)
	writeMetricsLine(&b, r.Weighted)
	return b.String()
}

func writeMetricsLine(b *strings.Builder, m ClassMetrics) {
	fmt.Fprintf(b, "%12s %9.2f %9.2f %9.2f %9d\n", m.Label, m.Precision, m.Recall, m.F1, m.Support)
}
