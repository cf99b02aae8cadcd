// Package pipeline runs the full analysis: load, inspect, clean, split,
// test, model and plot.
package pipeline

import (
	"fmt"
	"io"
	"math"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/KaramelBytes/salescope-cli/internal/analysis"
	"github.com/KaramelBytes/salescope-cli/internal/config"
	"github.com/KaramelBytes/salescope-cli/internal/dataset"
	"github.com/KaramelBytes/salescope-cli/internal/log"
	"github.com/KaramelBytes/salescope-cli/internal/model"
	"github.com/KaramelBytes/salescope-cli/internal/plots"
	"github.com/KaramelBytes/salescope-cli/internal/prep"
	"github.com/KaramelBytes/salescope-cli/internal/stattest"
)

// LeakageNote is always part of the notes: scaling statistics are computed
// before the split.
const LeakageNote = "scaling statistics were computed on the full cleaned table before the train/test split, so test rows influence training features"

// Options for one pipeline run.
type Options struct {
	Config *config.Global
	Load   dataset.Options
	// PlotsDir overrides Config.PlotsDir; both empty means plots/<run-id>.
	PlotsDir string
	// NoPlots disables plotting regardless of Config.PlotsEnabled.
	NoPlots bool
	// Progress receives the boosting progress bar when set.
	Progress io.Writer
}

// Classification is the logistic regression outcome on the test split.
type Classification struct {
	Threshold float64
	// TargetThreshold is Threshold in the target's original units; NaN when
	// the target was not scaled.
	TargetThreshold float64
	TrainClasses []int
	TestClasses  []int
	Accuracy     float64
	Matrix       model.ConfusionMatrix
	Report       model.ClassificationReport
	Converged    bool
}

// Result collects everything a run produced.
type Result struct {
	RunID       string
	Target      string
	Raw         *dataset.Table
	Inspection  *analysis.Report
	Cleaned     *dataset.Table
	Clean       *prep.CleanReport
	Split       *prep.Split
	Tests       []stattest.Result
	Fitted      []model.Score // fit order
	Scores      []model.Score // ranked
	Class       Classification
	Importances []model.Importance
	PlotsDir    string
	Plots       []string
	Notes       []string
	SampleRows  int
}

// Best returns the top-ranked regressor score.
func (r *Result) Best() (model.Score, bool) {
	if len(r.Scores) == 0 {
		return model.Score{}, false
	}
	return r.Scores[0], true
}

// Run executes every stage on the file at path. Failing statistical tests
// and plots are recorded in the result; any other failure aborts the run.
func Run(path string, opt Options) (*Result, error) {
	cfg := opt.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := &Result{RunID: uuid.NewString(), Target: cfg.TargetColumn, SampleRows: cfg.SampleRows}
	logger := log.Logger().With(zap.String("run_id", res.RunID))

	loadOpt := opt.Load
	numeric := append([]string{}, loadOpt.NumericColumns...)
	numeric = append(numeric, cfg.NumericColumns...)
	loadOpt.NumericColumns = lo.Uniq(append(numeric, cfg.TargetColumn))
	if loadOpt.Delimiter == 0 && cfg.Delimiter != "" {
		d, err := dataset.ParseDelimiter(cfg.Delimiter)
		if err != nil {
			return nil, err
		}
		loadOpt.Delimiter = d
	}
	raw, err := dataset.Load(path, loadOpt)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	logger.Info("loaded dataset", zap.String("path", path), zap.Int("rows", raw.NumRows()), zap.Int("columns", raw.NumCols()))
	required := lo.Uniq(append(append([]string{}, cfg.RequiredColumns...), cfg.TargetColumn))
	if err := raw.Require(required...); err != nil {
		return nil, err
	}
	target, _ := raw.Column(cfg.TargetColumn)
	if target.Kind != dataset.Numeric {
		return nil, errors.Wrapf(dataset.ErrNotNumeric, "target %q is %s", cfg.TargetColumn, target.Kind)
	}
	res.Raw = raw

	inspectOpt := analysis.DefaultOptions()
	inspectOpt.SampleRows = cfg.SampleRows
	inspectOpt.IQRMultiplier = cfg.IQRMultiplier
	if _, ok := raw.Column(cfg.GroupColumn); ok {
		inspectOpt.GroupBy, inspectOpt.GroupTarget = cfg.GroupColumn, cfg.TargetColumn
	}
	res.Inspection = analysis.Summarize(raw, inspectOpt)

	var plotter *plots.Plotter
	if cfg.PlotsEnabled && !opt.NoPlots {
		res.PlotsDir = opt.PlotsDir
		if res.PlotsDir == "" {
			res.PlotsDir = cfg.PlotsDir
		}
		if res.PlotsDir == "" {
			res.PlotsDir = filepath.Join("plots", res.RunID)
		}
		plotter = plots.New(res.PlotsDir)
		res.edaPlots(plotter, logger)
	}

	cleaned, cleanRep, err := prep.Clean(raw, prep.Options{IQRMultiplier: cfg.IQRMultiplier, ScaleEncoded: cfg.ScaleEncoded})
	if err != nil {
		return nil, errors.Wrap(err, "clean")
	}
	res.Cleaned, res.Clean = cleaned, cleanRep
	logger.Info("cleaned dataset", zap.Int("rows_in", cleanRep.RowsIn), zap.Int("rows_out", cleanRep.RowsOut))

	X, y, err := prep.SplitXY(cleaned, cfg.TargetColumn)
	if err != nil {
		return nil, err
	}
	split, err := prep.TrainTestSplit(X, y, cfg.TestSize, cfg.RandomSeed)
	if err != nil {
		return nil, err
	}
	res.Split = split
	logger.Info("split dataset", zap.Int("train", len(split.YTrain)), zap.Int("test", len(split.YTest)))

	res.Tests = stattest.Run(X, y, stattest.Config{BinaryColumn: cfg.BinaryColumn, GroupColumn: cfg.GroupColumn})
	for _, t := range res.Tests {
		if !t.OK() {
			logger.Warn("statistical test failed", zap.String("test", t.Name), zap.Error(t.Err))
		}
	}

	boostOpts := []model.BoostOption{
		model.WithEstimators(cfg.GBEstimators),
		model.WithLearningRate(cfg.GBLearningRate),
		model.WithBoostDepth(cfg.GBMaxDepth),
	}
	if opt.Progress != nil {
		boostOpts = append(boostOpts, model.WithProgress(opt.Progress))
	}
	boost := model.NewGradientBoostingRegressor(boostOpts...)
	regressors := []model.Regressor{
		model.NewLinearRegression(),
		model.NewDecisionTreeRegressor(model.WithMaxDepth(cfg.TreeMaxDepth)),
		boost,
	}
	scores, err := model.Evaluate(regressors, split.XTrain, split.YTrain, split.XTest, split.YTest)
	if err != nil {
		return nil, errors.Wrap(err, "regression")
	}
	res.Fitted, res.Scores = scores, model.Rank(scores)

	logit := model.NewLogisticRegression(cfg.LogRegC, cfg.LogRegMaxIter)
	if err := res.classify(logit, cfg.TargetColumn); err != nil {
		return nil, errors.Wrap(err, "classification")
	}
	res.Class.Converged = logit.Converged
	if res.Importances, err = importances(res.Fitted, boost.Name()); err != nil {
		return nil, errors.Wrap(err, "feature importance")
	}

	if plotter != nil {
		res.modelPlots(plotter, logger, boost.Name())
	}
	res.Notes = append(res.Notes, LeakageNote,
		fmt.Sprintf("target %q is standardized, so MSE is in units of its standard deviation", cfg.TargetColumn))
	if !res.Class.Converged {
		res.Notes = append(res.Notes, fmt.Sprintf("logistic regression stopped after %d iterations without converging", cfg.LogRegMaxIter))
	}
	if res.PlotsDir != "" {
		res.Notes = append(res.Notes, fmt.Sprintf("%d plots written to %s", len(res.Plots), res.PlotsDir))
	}
	logger.Info("pipeline finished")
	return res, nil
}

// classify binarizes the target at the training median and scores clf on
// the test split.
func (r *Result) classify(clf model.Classifier, target string) error {
	s := r.Split
	thr, err := model.MedianThreshold(s.YTrain)
	if err != nil {
		return err
	}
	trainLabels := model.Binarize(s.YTrain, thr)
	testLabels := model.Binarize(s.YTest, thr)
	if err := clf.Fit(s.XTrain, trainLabels); err != nil {
		return err
	}
	pred, err := clf.Predict(s.XTest)
	if err != nil {
		return err
	}
	c := Classification{
		Threshold:       thr,
		TargetThreshold: math.NaN(),
		TrainClasses:    lo.Uniq(trainLabels),
		TestClasses:     lo.Uniq(testLabels),
	}
	if r.Clean != nil && r.Clean.Scaler != nil {
		if v, ok := r.Clean.Scaler.Inverse(target, thr); ok {
			c.TargetThreshold = v
		}
	}
	if c.Accuracy, err = model.Accuracy(testLabels, pred); err != nil {
		return err
	}
	if c.Matrix, err = model.NewConfusionMatrix(testLabels, pred); err != nil {
		return err
	}
	c.Report = model.NewClassificationReport(c.Matrix)
	r.Class = c
	return nil
}

func (r *Result) addPlot(logger *zap.Logger, path string, err error) {
	if err != nil {
		logger.Warn("plot failed", zap.Error(err))
		r.Notes = append(r.Notes, "plot skipped: "+err.Error())
		return
	}
	r.Plots = append(r.Plots, path)
}

func (r *Result) edaPlots(p *plots.Plotter, logger *zap.Logger) {
	for _, c := range r.Raw.Columns {
		if c.Kind != dataset.Numeric {
			continue
		}
		path, err := p.Histogram(c)
		r.addPlot(logger, path, err)
		path, err = p.BoxPlot(c)
		r.addPlot(logger, path, err)
	}
	path, err := p.Heatmap(r.Inspection.Corr)
	r.addPlot(logger, path, err)
}

// modelPlots draws the named model's test predictions and the feature
// ranking.
func (r *Result) modelPlots(p *plots.Plotter, logger *zap.Logger, name string) {
	if s, ok := scoreNamed(r.Fitted, name); ok {
		path, err := p.ActualVsPredicted(s.Name, r.Split.YTest, s.Pred)
		r.addPlot(logger, path, err)
	}
	path, err := p.FeatureImportance(r.Importances)
	r.addPlot(logger, path, err)
}

func scoreNamed(scores []model.Score, name string) (model.Score, bool) {
	for _, s := range scores {
		if s.Name == name {
			return s, true
		}
	}
	return model.Score{}, false
}

// importances returns the feature ranking of the named fitted model.
func importances(scores []model.Score, name string) ([]model.Importance, error) {
	s, ok := scoreNamed(scores, name)
	if !ok {
		return nil, errors.Errorf("model %q was not fitted", name)
	}
	fi, ok := s.Model.(model.FeatureImporter)
	if !ok {
		return nil, errors.Errorf("%s does not rank features", name)
	}
	return fi.FeatureImportances()
}
