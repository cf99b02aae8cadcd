package prep

import (
	"math"
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/KaramelBytes/salescope-cli/internal/dataset"
)

// SplitXY separates the target column from the features.
func SplitXY(t *dataset.Table, target string) (*dataset.Table, []float64, error) {
	c, ok := t.Column(target)
	if !ok {
		return nil, nil, errors.Wrapf(dataset.ErrMissingColumn, "target %q", target)
	}
	if !c.IsNumericLike() {
		return nil, nil, errors.Wrapf(dataset.ErrNotNumeric, "target %q is %s", target, c.Kind)
	}
	y := append([]float64(nil), c.Num...)
	return t.Drop(target), y, nil
}

// Split holds the two row partitions of a feature table and its target.
type Split struct {
	XTrain, XTest *dataset.Table
	YTrain, YTest []float64
	// TrainRows and TestRows index into the table given to TrainTestSplit.
	TrainRows, TestRows []int
}

// TrainTestSplit shuffles rows with a PCG source seeded by seed and puts the
// first ceil(testSize*n) of the permutation in the test partition.
func TrainTestSplit(X *dataset.Table, y []float64, testSize float64, seed uint64) (*Split, error) {
	n := X.NumRows()
	if len(y) != n {
		return nil, errors.Errorf("split: %d feature rows but %d targets", n, len(y))
	}
	if !(testSize > 0 && testSize < 1) {
		return nil, errors.Errorf("split: test size %v outside (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest == 0 || nTrain <= 0 {
		return nil, errors.Wrapf(dataset.ErrEmptyTable, "split: %d rows with test size %v leaves an empty partition", n, testSize)
	}

	r := rand.New(rand.NewPCG(seed, seed))
	perm := r.Perm(n)
	s := &Split{
		TestRows:  append([]int(nil), perm[:nTest]...),
		TrainRows: append([]int(nil), perm[nTest:]...),
	}
	s.XTrain = X.Take(s.TrainRows)
	s.XTest = X.Take(s.TestRows)
	s.YTrain = takeFloats(y, s.TrainRows)
	s.YTest = takeFloats(y, s.TestRows)
	return s, nil
}

func takeFloats(v []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = v[r]
	}
	return out
}
