package pipeline

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// Render writes the human-readable report.
func (r *Result) Render(w io.Writer) error {
	var b strings.Builder
	sections := []func(*strings.Builder) error{
		r.renderInspection,
		r.renderMissing,
		r.renderCleaning,
		r.renderPreview,
		r.renderSplit,
		r.renderTests,
		r.renderModels,
		r.renderClassification,
		r.renderImportance,
		r.renderNotes,
	}
	for _, s := range sections {
		if err := s(&b); err != nil {
			return errors.Wrap(err, "render report")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func renderTable(w io.Writer, header []string, rows [][]string) error {
	t := tablewriter.NewWriter(w)
	t.Header(lo.ToAnySlice(header)...)
	for _, row := range rows {
		if err := t.Append(row); err != nil {
			return err
		}
	}
	return t.Render()
}

func f4(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func (r *Result) renderInspection(b *strings.Builder) error {
	fmt.Fprintf(b, "Run: %s\n\n", r.RunID)
	b.WriteString(r.Inspection.Markdown())
	b.WriteString("\n")
	return nil
}

func (r *Result) renderMissing(b *strings.Builder) error {
	b.WriteString("[MISSING VALUES BEFORE CLEANING]\n")
	rows := make([][]string, len(r.Clean.MissingBefore))
	for i, c := range r.Clean.MissingBefore {
		rows[i] = []string{c.Column, strconv.Itoa(c.Count)}
	}
	if err := renderTable(b, []string{"Column", "Missing"}, rows); err != nil {
		return err
	}
	for _, f := range r.Clean.Fills {
		fmt.Fprintf(b, "- filled %d missing in %s with %s\n", f.Count, f.Column, f.Value)
	}
	b.WriteString("\n")
	return nil
}

func (r *Result) renderCleaning(b *strings.Builder) error {
	c := r.Clean
	b.WriteString("[CLEANING]\n")
	fmt.Fprintf(b, "Rows: %d -> %d after IQR filtering\n", c.RowsIn, c.RowsOut)
	rows := make([][]string, 0, len(c.Outliers))
	for _, s := range c.Outliers {
		rows = append(rows, []string{s.Column, f4(s.Lower), f4(s.Upper), strconv.Itoa(s.Dropped), strconv.Itoa(s.Remaining)})
	}
	if err := renderTable(b, []string{"Column", "Lower", "Upper", "Dropped", "Remaining"}, rows); err != nil {
		return err
	}
	for _, e := range c.Encoders {
		fmt.Fprintf(b, "- encoded %s: %s\n", e.Column, strings.Join(e.Levels, ", "))
	}
	if c.Scaler != nil {
		fmt.Fprintf(b, "- standardized: %s\n", strings.Join(c.Scaler.Columns, ", "))
	}
	b.WriteString("\n")
	return nil
}

func (r *Result) renderPreview(b *strings.Builder) error {
	b.WriteString("[PROCESSED DATA PREVIEW]\n")
	n := min(r.SampleRows, r.Cleaned.NumRows())
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = r.Cleaned.Row(i)
	}
	if err := renderTable(b, r.Cleaned.Names(), rows); err != nil {
		return err
	}
	b.WriteString("\n")
	return nil
}

func (r *Result) renderSplit(b *strings.Builder) error {
	s := r.Split
	b.WriteString("[SPLIT]\n")
	fmt.Fprintf(b, "Training set shape: (%d, %d)\n", s.XTrain.NumRows(), s.XTrain.NumCols())
	fmt.Fprintf(b, "Testing set shape: (%d, %d)\n\n", s.XTest.NumRows(), s.XTest.NumCols())
	return nil
}

func (r *Result) renderTests(b *strings.Builder) error {
	b.WriteString("[STATISTICAL TESTS]\n")
	for _, t := range r.Tests {
		b.WriteString(t.String())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return nil
}

func (r *Result) renderModels(b *strings.Builder) error {
	b.WriteString("[REGRESSION MODELS]\n")
	for _, s := range r.Fitted {
		fmt.Fprintf(b, "%s: MSE=%s, R²=%s\n", s.Name, f4(s.MSE), f4(s.R2))
	}
	b.WriteString("\n[MODEL COMPARISON]\n")
	rows := make([][]string, len(r.Scores))
	for i, s := range r.Scores {
		rows[i] = []string{strconv.Itoa(i + 1), s.Name, f4(s.MSE), f4(s.R2)}
	}
	if err := renderTable(b, []string{"Rank", "Model", "MSE", "R²"}, rows); err != nil {
		return err
	}
	if best, ok := r.Best(); ok {
		fmt.Fprintf(b, "Best model: %s (R²=%s)\n", best.Name, f4(best.R2))
	}
	b.WriteString("\n")
	return nil
}

func (r *Result) renderClassification(b *strings.Builder) error {
	c := r.Class
	b.WriteString("[CLASSIFICATION]\n")
	fmt.Fprintf(b, "Threshold (median of training target): %s", f4(c.Threshold))
	if !math.IsNaN(c.TargetThreshold) {
		fmt.Fprintf(b, " (%s in original units)", f4(c.TargetThreshold))
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "Classes in training set: %v\n", c.TrainClasses)
	fmt.Fprintf(b, "Classes in test set: %v\n", c.TestClasses)
	fmt.Fprintf(b, "Logistic Regression accuracy: %s\n", f4(c.Accuracy))
	fmt.Fprintf(b, "Confusion matrix:\n%s\n\n", c.Matrix)
	b.WriteString("Classification report:\n")
	b.WriteString(c.Report.String())
	b.WriteString("\n")
	return nil
}

func (r *Result) renderImportance(b *strings.Builder) error {
	b.WriteString("[FEATURE IMPORTANCE]\n")
	rows := make([][]string, len(r.Importances))
	for i, imp := range r.Importances {
		rows[i] = []string{strconv.Itoa(i + 1), imp.Feature, f4(imp.Score)}
	}
	if err := renderTable(b, []string{"Rank", "Feature", "Importance"}, rows); err != nil {
		return err
	}
	b.WriteString("\n")
	return nil
}

func (r *Result) renderNotes(b *strings.Builder) error {
	b.WriteString("[NOTES]\n")
	for _, n := range r.Notes {
		fmt.Fprintf(b, "- %s\n", n)
	}
	for _, p := range r.Plots {
		fmt.Fprintf(b, "- plot: %s\n", p)
	}
	return nil
}
