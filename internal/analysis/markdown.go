package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// Markdown renders a compact report for the console or a standalone doc.
func (r *Report) Markdown() string {
	var b strings.Builder
	fmt.Fprintln(&b, "[DATASET SUMMARY]")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	fmt.Fprintf(&b, "Rows: %d\nColumns: %d\n", r.Rows, len(r.Cols))

	for _, section := range []func(*strings.Builder) bool{
		r.writeSchema, r.writeDescribe, r.writeMissing, r.writeGroups,
		r.writeCorrelations, r.writeSamples, r.writeNotes,
	} {
		var sb strings.Builder
		if section(&sb) {
			b.WriteString("\n")
			b.WriteString(sb.String())
		}
	}
	return b.String()
}

func (r *Report) writeSchema(b *strings.Builder) bool {
	fmt.Fprintln(b, "[SCHEMA]")
	for _, c := range r.Cols {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = 100 * float64(c.Missing) / float64(total)
		}
		fmt.Fprintf(b, "- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique)
		if c.IsNumeric() && c.NonNull > 0 {
			fmt.Fprintf(b, "; outliers: %d outside [%.4g, %.4g]", c.OutliersCount, c.LowerFence, c.UpperFence)
		} else if len(c.TopValues) > 0 {
			top := make([]string, len(c.TopValues))
			for i, kv := range c.TopValues {
				top[i] = fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count)
			}
			fmt.Fprintf(b, "; top: %s", strings.Join(top, ", "))
		}
		b.WriteString("\n")
	}
	return true
}

var describeRows = []struct {
	label string
	get   func(ColumnSummary) float64
}{
	{"count", func(c ColumnSummary) float64 { return float64(c.NonNull) }},
	{"mean", func(c ColumnSummary) float64 { return c.Mean }},
	{"std", func(c ColumnSummary) float64 { return c.Std }},
	{"min", func(c ColumnSummary) float64 { return c.Min }},
	{"25%", func(c ColumnSummary) float64 { return c.Q1 }},
	{"50%", func(c ColumnSummary) float64 { return c.Median }},
	{"75%", func(c ColumnSummary) float64 { return c.Q3 }},
	{"max", func(c ColumnSummary) float64 { return c.Max }},
}

func (r *Report) writeDescribe(b *strings.Builder) bool {
	var numeric []ColumnSummary
	for _, c := range r.Cols {
		if c.IsNumeric() {
			numeric = append(numeric, c)
		}
	}
	if len(numeric) == 0 {
		return false
	}
	header := []string{"stat"}
	for _, c := range numeric {
		header = append(header, safeName(c.Name))
	}
	rows := make([][]string, len(describeRows))
	for i, dr := range describeRows {
		rows[i] = []string{dr.label}
		for _, c := range numeric {
			rows[i] = append(rows[i], formatNum(dr.get(c)))
		}
	}
	fmt.Fprintln(b, "[DESCRIBE]")
	writeMarkdownTable(b, header, rows)
	return true
}

func (r *Report) writeMissing(b *strings.Builder) bool {
	fmt.Fprintln(b, "[MISSING VALUES]")
	for _, c := range r.Cols {
		fmt.Fprintf(b, "- %s: %d\n", safeName(c.Name), c.Missing)
	}
	return true
}

func (r *Report) writeGroups(b *strings.Builder) bool {
	if len(r.Groups) == 0 {
		return false
	}
	fmt.Fprintln(b, "[GROUP-BY SUMMARY]")
	for _, g := range r.Groups {
		fmt.Fprintf(b, "- %s (n=%d): %s mean %.4g (min %.4g, max %.4g)\n", safeVal(g.Key), g.Size, g.Column, g.Mean, g.Min, g.Max)
	}
	return true
}

func (r *Report) writeCorrelations(b *strings.Builder) bool {
	if r.Corr == nil || len(r.Corr.Columns) < 2 {
		return false
	}
	pairs := r.Corr.TopPairs(10)
	if len(pairs) == 0 {
		return false
	}
	fmt.Fprintln(b, "[CORRELATIONS]")
	for _, p := range pairs {
		fmt.Fprintf(b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
	}
	return true
}

func (r *Report) writeSamples(b *strings.Builder) bool {
	if len(r.Samples) == 0 {
		return false
	}
	header := make([]string, len(r.Cols))
	for i, c := range r.Cols {
		header[i] = safeName(c.Name)
	}
	rows := make([][]string, len(r.Samples))
	for k, sample := range r.Samples {
		rows[k] = make([]string, len(r.Cols))
		for i := range r.Cols {
			if i < len(sample) {
				rows[k][i] = truncate(safeVal(sample[i]), 80)
			}
		}
	}
	fmt.Fprintln(b, "[HEAD AND SAMPLE ROWS]")
	writeMarkdownTable(b, header, rows)
	return true
}

func (r *Report) writeNotes(b *strings.Builder) bool {
	if len(r.Warnings) == 0 {
		return false
	}
	fmt.Fprintln(b, "[NOTES]")
	for _, w := range r.Warnings {
		fmt.Fprintf(b, "- %s\n", w)
	}
	return true
}

func writeMarkdownTable(b *strings.Builder, header []string, rows [][]string) {
	line := func(cells []string) {
		fmt.Fprintf(b, "| %s |\n", strings.Join(cells, " | "))
	}
	line(header)
	fmt.Fprintf(b, "|%s\n", strings.Repeat("---|", len(header)))
	for _, row := range rows {
		line(row)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// MissingCounts returns the missing-value count per column, in column order.
func (r *Report) MissingCounts() map[string]int {
	out := make(map[string]int, len(r.Cols))
	for _, c := range r.Cols {
		out[c.Name] = c.Missing
	}
	return out
}

// NumericColumns lists the columns that carry describe statistics.
func (r *Report) NumericColumns() []string {
	var out []string
	for _, c := range r.Cols {
		if c.Kind == dataset.Numeric {
			out = append(out, c.Name)
		}
	}
	return out
}

func formatNum(v float64) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	return fmt.Sprintf("%.4g", v)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

var cellEscaper = strings.NewReplacer("\n", " ", "|", "/")

func safeVal(s string) string { return cellEscaper.Replace(s) }
