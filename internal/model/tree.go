package model

import (
	"math/bits"
	"sort"

	"github.com/pkg/errors"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// TreeOption configures a DecisionTreeRegressor.
type TreeOption func(*DecisionTreeRegressor)

// WithMaxDepth limits tree depth; 0 means unlimited.
func WithMaxDepth(d int) TreeOption { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }

// WithMinSamplesSplit sets the minimum node size that may be split.
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum size of each child of a split.
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// DecisionTreeRegressor is a CART regression tree using squared error.
type DecisionTreeRegressor struct {
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int

	root *treeNode
	// decrease accumulates the weighted impurity decrease per feature,
	// divided by the root sample count.
	decrease []float64
	features schema
}

type treeNode struct {
	leaf      bool
	feature   int
	threshold float64 // x <= threshold goes left
	left      *treeNode
	right     *treeNode
	value     float64
	n         int
}

// NewDecisionTreeRegressor returns an unfitted tree that grows until leaves
// are pure or hold a single sample.
func NewDecisionTreeRegressor(opts ...TreeOption) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{MinSamplesSplit: 2, MinSamplesLeaf: 1}
	for _, o := range opts {
		o(t)
	}
	if t.MinSamplesSplit < 2 {
		t.MinSamplesSplit = 2
	}
	if t.MinSamplesLeaf < 1 {
		t.MinSamplesLeaf = 1
	}
	return t
}

func (t *DecisionTreeRegressor) Name() string { return "Decision Tree" }

// Fit grows the tree on X and y.
func (t *DecisionTreeRegressor) Fit(X *dataset.Table, y []float64) error {
	features, rows, err := bind(X, len(y))
	if err != nil {
		return errors.Wrap(err, "decision tree")
	}
	t.fitMatrix(rows, y, len(features), presort(rows, len(features)))
	t.features = features
	return nil
}

// Predict returns the leaf mean for each row.
func (t *DecisionTreeRegressor) Predict(X *dataset.Table) ([]float64, error) {
	rows, err := t.features.matrix(X)
	if err != nil {
		return nil, errors.Wrap(err, "decision tree")
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = t.predictRow(r)
	}
	return out, nil
}

// FeatureImportances returns the impurity decrease per feature normalized
// to sum to 1.
func (t *DecisionTreeRegressor) FeatureImportances() ([]Importance, error) {
	if !t.features.fitted() {
		return nil, ErrNotFitted
	}
	return newImportances(t.features, normalize(append([]float64(nil), t.decrease...))), nil
}

// fitMatrix grows the tree on rows. order holds, per feature, every row
// index sorted by that feature's value; nil makes each node sort its own rows.
func (t *DecisionTreeRegressor) fitMatrix(rows [][]float64, y []float64, nFeatures int, order [][]int) {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	t.decrease = make([]float64, nFeatures)
	g := &treeGrower{tree: t, rows: rows, y: y, nFeatures: nFeatures, order: order}
	if order != nil {
		g.member = make([]bool, len(rows))
	}
	t.root = g.grow(idx, 0)
	for j := range t.decrease {
		t.decrease[j] /= float64(len(rows))
	}
}

func (t *DecisionTreeRegressor) predictRow(r []float64) float64 {
	n := t.root
	for !n.leaf {
		if r[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type treeGrower struct {
	tree      *DecisionTreeRegressor
	rows      [][]float64
	y         []float64
	nFeatures int
	order     [][]int
	member    []bool
}

// presort returns, per feature, the row indices ordered by value. Ties keep
// ascending row order.
func presort(rows [][]float64, nFeatures int) [][]int {
	order := make([][]int, nFeatures)
	for f := range order {
		o := make([]int, len(rows))
		for i := range o {
			o[i] = i
		}
		sort.SliceStable(o, func(a, b int) bool { return rows[o[a]][f] < rows[o[b]][f] })
		order[f] = o
	}
	return order
}

// sortedBy fills dst with idx ordered by feature f. Node indices are always
// ascending, so walking the presorted order gives the same result as a
// stable sort; large nodes walk it, small ones sort.
func (g *treeGrower) sortedBy(f int, idx, dst []int) {
	if g.order != nil && len(idx)*bits.Len(uint(len(idx))) >= len(g.rows) {
		k := 0
		for _, i := range g.order[f] {
			if g.member[i] {
				dst[k] = i
				k++
			}
		}
		return
	}
	copy(dst, idx)
	sort.SliceStable(dst, func(a, b int) bool { return g.rows[dst[a]][f] < g.rows[dst[b]][f] })
}

// nodeStats returns the mean and the sum of squared deviations of y over idx.
func (g *treeGrower) nodeStats(idx []int) (mean, sse float64) {
	var sum, sumSq float64
	for _, i := range idx {
		sum += g.y[i]
		sumSq += g.y[i] * g.y[i]
	}
	n := float64(len(idx))
	mean = sum / n
	sse = sumSq - sum*sum/n
	if sse < 0 {
		sse = 0
	}
	return mean, sse
}

func (g *treeGrower) grow(idx []int, depth int) *treeNode {
	t := g.tree
	mean, sse := g.nodeStats(idx)
	node := &treeNode{leaf: true, value: mean, n: len(idx)}
	if len(idx) < t.MinSamplesSplit || (t.MaxDepth > 0 && depth >= t.MaxDepth) || sse <= 1e-12*float64(len(idx)) {
		return node
	}
	feature, threshold, gain, ok := g.bestSplit(idx)
	if !ok {
		return node
	}
	var left, right []int
	for _, i := range idx {
		if g.rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	t.decrease[feature] += gain
	node.leaf = false
	node.feature = feature
	node.threshold = threshold
	node.left = g.grow(left, depth+1)
	node.right = g.grow(right, depth+1)
	return node
}

// bestSplit scans every feature's sorted values for the threshold that
// minimizes the children's summed squared error. The gain is the parent's
// squared error minus the children's.
func (g *treeGrower) bestSplit(idx []int) (feature int, threshold, gain float64, ok bool) {
	minLeaf := g.tree.MinSamplesLeaf
	n := len(idx)
	var total, totalSq float64
	for _, i := range idx {
		total += g.y[i]
		totalSq += g.y[i] * g.y[i]
	}
	parentSSE := totalSq - total*total/float64(n)

	if g.member != nil {
		for _, i := range idx {
			g.member[i] = true
		}
		defer func() {
			for _, i := range idx {
				g.member[i] = false
			}
		}()
	}
	sorted := make([]int, n)
	bestProxy := 0.0
	for f := 0; f < g.nFeatures; f++ {
		g.sortedBy(f, idx, sorted)
		var leftSum float64
		for k := 0; k < n-1; k++ {
			leftSum += g.y[sorted[k]]
			nl, nr := k+1, n-k-1
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			xv, next := g.rows[sorted[k]][f], g.rows[sorted[k+1]][f]
			if next <= xv {
				continue
			}
			rightSum := total - leftSum
			// maximizing this proxy minimizes the children's SSE
			proxy := leftSum*leftSum/float64(nl) + rightSum*rightSum/float64(nr)
			if !ok || proxy > bestProxy {
				ok = true
				bestProxy = proxy
				feature = f
				threshold = xv + (next-xv)/2
				if threshold == next {
					threshold = xv
				}
			}
		}
	}
	if !ok {
		return 0, 0, 0, false
	}
	childSSE := totalSq - bestProxy
	gain = parentSSE - childSSE
	if gain < 0 {
		gain = 0
	}
	return feature, threshold, gain, true
}
