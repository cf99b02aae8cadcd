// Package plots renders the pipeline's PNG charts.
package plots

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"regexp"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/salescope-cli/internal/analysis"
	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/model"
	"github.com/KaramelBytes/salescope-cli/internal/stats"
)

// HistogramBins is the bin count of every histogram.
const HistogramBins = 30

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Plotter writes charts into Dir.
type Plotter struct {
	Dir    string
	Width  vg.Length
	Height vg.Length
}

func New(dir string) *Plotter {
	return &Plotter{Dir: dir, Width: 6 * vg.Inch, Height: 4 * vg.Inch}
}

func (p *Plotter) save(pl *plot.Plot, name string) (string, error) {
	return p.saveSized(pl, name, p.Height)
}

func (p *Plotter) saveSized(pl *plot.Plot, name string, height vg.Length) (string, error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", errors.Wrap(err, "create plots dir")
	}
	path := filepath.Join(p.Dir, name)
	if err := pl.Save(p.Width, height, path); err != nil {
		return "", errors.Wrapf(err, "save %s", name)
	}
	return path, nil
}

// FileName maps a column name onto a safe file name.
func FileName(prefix, col string) string {
	return prefix + "_" + unsafeName.ReplaceAllString(col, "_") + ".png"
}

// Histogram plots the non-missing values of a numeric column.
func (p *Plotter) Histogram(c *dataset.Column) (string, error) {
	vals := plotter.Values(stats.DropNaN(c.Num))
	if len(vals) == 0 {
		return "", errors.Errorf("histogram %q: no values", c.Name)
	}
	pl := plot.New()
	pl.Title.Text = "Distribution of " + c.Name
	pl.X.Label.Text = c.Name
	pl.Y.Label.Text = "count"
	h, err := plotter.NewHist(vals, HistogramBins)
	if err != nil {
		return "", errors.Wrapf(err, "histogram %q", c.Name)
	}
	h.FillColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	pl.Add(h)
	return p.save(pl, FileName("hist", c.Name))
}

// BoxPlot draws the quartiles and outliers of a numeric column.
func (p *Plotter) BoxPlot(c *dataset.Column) (string, error) {
	vals := plotter.Values(stats.DropNaN(c.Num))
	if len(vals) == 0 {
		return "", errors.Errorf("box plot %q: no values", c.Name)
	}
	pl := plot.New()
	pl.Title.Text = "Box plot of " + c.Name
	pl.Y.Label.Text = c.Name
	b, err := plotter.NewBoxPlot(vg.Points(40), 0, vals)
	if err != nil {
		return "", errors.Wrapf(err, "box plot %q", c.Name)
	}
	pl.Add(b)
	pl.NominalX(c.Name)
	return p.save(pl, FileName("box", c.Name))
}

type corrGrid struct{ v [][]float64 }

func (g corrGrid) Dims() (c, r int)   { return len(g.v), len(g.v) }
func (g corrGrid) Z(c, r int) float64 { return g.v[r][c] }
func (g corrGrid) X(c int) float64    { return float64(c) }
func (g corrGrid) Y(r int) float64    { return float64(r) }

// Heatmap draws a correlation matrix on a fixed [-1, 1] scale.
func (p *Plotter) Heatmap(cm *analysis.CorrMatrix) (string, error) {
	if cm == nil || len(cm.Columns) < 2 {
		return "", errors.New("heatmap: need at least two numeric columns")
	}
	pl := plot.New()
	pl.Title.Text = "Correlation heatmap"
	h := plotter.NewHeatMap(corrGrid{v: cm.Values}, palette.Heat(16, 1))
	h.Min, h.Max = -1, 1
	h.NaN = color.Gray{Y: 200}
	pl.Add(h)
	pl.NominalX(cm.Columns...)
	pl.NominalY(cm.Columns...)
	return p.save(pl, "correlation_heatmap.png")
}

// ActualVsPredicted scatters predictions against the truth with a y = x
// reference line.
func (p *Plotter) ActualVsPredicted(title string, actual, pred []float64) (string, error) {
	if len(actual) == 0 || len(actual) != len(pred) {
		return "", errors.Errorf("actual vs predicted: %d actual, %d predicted", len(actual), len(pred))
	}
	pts := make(plotter.XYs, len(actual))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range actual {
		pts[i] = plotter.XY{X: actual[i], Y: pred[i]}
		lo = math.Min(lo, math.Min(actual[i], pred[i]))
		hi = math.Max(hi, math.Max(actual[i], pred[i]))
	}
	pl := plot.New()
	pl.Title.Text = "Actual vs predicted: " + title
	pl.X.Label.Text = "actual"
	pl.Y.Label.Text = "predicted"
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return "", errors.Wrap(err, "actual vs predicted")
	}
	s.GlyphStyle.Radius = vg.Points(2)
	l, err := plotter.NewLine(plotter.XYs{{X: lo, Y: lo}, {X: hi, Y: hi}})
	if err != nil {
		return "", errors.Wrap(err, "actual vs predicted")
	}
	l.LineStyle.Color = color.RGBA{R: 200, A: 255}
	l.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	pl.Add(s, l)
	return p.save(pl, "actual_vs_predicted.png")
}

// FeatureImportance draws a horizontal bar per feature, largest on top.
func (p *Plotter) FeatureImportance(imp []model.Importance) (string, error) {
	if len(imp) == 0 {
		return "", errors.New("feature importance: no features")
	}
	n := len(imp)
	vals := make(plotter.Values, n)
	names := make([]string, n)
	for i, v := range imp {
		vals[n-1-i] = v.Score
		names[n-1-i] = v.Feature
	}
	pl := plot.New()
	pl.Title.Text = "Feature importance"
	pl.X.Label.Text = "importance"
	bars, err := plotter.NewBarChart(vals, vg.Points(12))
	if err != nil {
		return "", errors.Wrap(err, "feature importance")
	}
	bars.Horizontal = true
	bars.Color = color.RGBA{R: 70, G: 130, B: 180, A: 255}
	pl.Add(bars)
	pl.NominalY(names...)
	height := p.Height
	if h := vg.Points(18) * vg.Length(n); h > height {
		height = h
	}
	return p.saveSized(pl, "feature_importance.png", height)
}
