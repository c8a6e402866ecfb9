package histogram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/gbdt/dataset"
	"github.com/flowforge/gbdt/histogram"
)

type binDataAdapter struct{ bins []int }

func (a binDataAdapter) NumData() int                            { return len(a.bins) }
func (a binDataAdapter) Bin(row int) int                          { return a.bins[row] }
func (a binDataAdapter) IsSparse() bool                           { return false }
func (a binDataAdapter) CreateOrderedBin() dataset.OrderedBinState { return nil }

func TestFindBestThresholdRootSplitDenseS1(t *testing.T) {
	// S1: N=8, bin_data=[0,0,1,1,2,2,3,3], g=[+1,+1,+1,+1,-1,-1,-1,-1], h=1 each.
	bins := []int{0, 0, 1, 1, 2, 2, 3, 3}
	g := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	h := []float64{1, 1, 1, 1, 1, 1, 1, 1}
	leafIndices := []int{0, 1, 2, 3, 4, 5, 6, 7}

	data := binDataAdapter{bins: bins}
	hist := histogram.New(0, 4)
	hist.ConstructDense(leafIndices, data, g, h)

	best := hist.FindBestThreshold(1, 0, 0, 0)
	require.True(t, hist.IsSplittable())
	assert.Equal(t, 1, best.ThresholdBin)
	assert.EqualValues(t, 4, best.LeftCount)
	assert.EqualValues(t, 4, best.RightCount)
	assert.InDelta(t, -1.0, best.LeftOutput, 1e-9)
	assert.InDelta(t, 1.0, best.RightOutput, 1e-9)
	assert.InDelta(t, 8.0, best.Gain, 1e-9)
}

func TestSubtractEqualsRebuildS2(t *testing.T) {
	bins := []int{0, 0, 1, 1, 2, 2, 3, 3}
	g := []float64{1, 1, 1, 1, -1, -1, -1, -1}
	h := []float64{1, 1, 1, 1, 1, 1, 1, 1}

	data := binDataAdapter{bins: bins}
	parent := histogram.New(0, 4)
	parent.ConstructDense([]int{0, 1, 2, 3, 4, 5, 6, 7}, data, g, h)

	left := histogram.New(0, 4)
	left.ConstructDense([]int{0, 1, 2, 3}, data,
		[]float64{g[0], g[1], g[2], g[3]}, []float64{h[0], h[1], h[2], h[3]})

	rightDirect := histogram.New(0, 4)
	rightDirect.ConstructDense([]int{4, 5, 6, 7}, data,
		[]float64{g[4], g[5], g[6], g[7]}, []float64{h[4], h[5], h[6], h[7]})

	rightSubtracted := histogram.New(0, 4)
	rightSubtracted.Subtract(parent, left)

	gotDirect := rightDirect.FindBestThreshold(1, 0, 0, 0)
	gotSub := rightSubtracted.FindBestThreshold(1, 0, 0, 0)
	assert.Equal(t, gotDirect.Gain, gotSub.Gain)
	assert.Equal(t, gotDirect.ThresholdBin, gotSub.ThresholdBin)
}

func TestFindBestThresholdSkipsInadmissibleCandidates(t *testing.T) {
	bins := []int{0, 0, 0, 1, 1, 1}
	g := []float64{1, 1, 1, -1, -1, -1}
	h := []float64{1, 1, 1, 1, 1, 1}
	data := binDataAdapter{bins: bins}

	hist := histogram.New(0, 2)
	hist.ConstructDense([]int{0, 1, 2, 3, 4, 5}, data, g, h)

	best := hist.FindBestThreshold(10, 0, 0, 0)
	assert.False(t, hist.IsSplittable())
	assert.True(t, best.Gain < 0)
}

func TestFindBestThresholdTieBreaksToLowerBin(t *testing.T) {
	// Splitting after bin 0 gives 1²/1 + (-1)²/3; splitting after bin 1 gives
	// 1²/3 + (-1)²/1: the same gain, so the lower bin must win.
	bins := []int{0, 1, 1, 2}
	g := []float64{1, 0, 0, -1}
	h := []float64{1, 1, 1, 1}
	data := binDataAdapter{bins: bins}

	hist := histogram.New(0, 3)
	hist.ConstructDense([]int{0, 1, 2, 3}, data, g, h)

	best := hist.FindBestThreshold(1, 0, 0, 0)
	assert.Equal(t, 0, best.ThresholdBin)
}

type fakeOrderedBin struct {
	rows []int
	bins []int
}

func (f *fakeOrderedBin) Init(rowInLeaf []int8, numLeaves int)          {}
func (f *fakeOrderedBin) Split(parentLeaf, rightLeaf int, isInLeft []int8) {}
func (f *fakeOrderedBin) Len(leaf int) int                              { return len(f.rows) }
func (f *fakeOrderedBin) ForEachInLeaf(leaf int, fn func(row, bin int)) {
	for i, r := range f.rows {
		fn(r, f.bins[i])
	}
}

func TestConstructOrderedDerivesBinZeroFromLeafTotals(t *testing.T) {
	// Non-zero entries: row 2 -> bin 3, row 5 -> bin 1, both with g=-1; every
	// other row has g=1, and h=1 everywhere. Leaf totals over 10 rows are
	// Σg=6, Σh=10, so bin 0 must absorb the other 8 rows (Σg=8, Σh=8), which
	// makes "split after bin 0" the best threshold with 8 rows on the left.
	ob := &fakeOrderedBin{rows: []int{2, 5}, bins: []int{3, 1}}
	g := make([]float64, 10)
	h := make([]float64, 10)
	for i := range g {
		g[i] = 1
		h[i] = 1
	}
	g[2], g[5] = -1, -1

	hist := histogram.New(0, 5)
	hist.ConstructOrdered(ob, 0, g, h, 6, 10, 10)

	best := hist.FindBestThreshold(1, 0, 0, 0)
	require.True(t, hist.IsSplittable())
	assert.LessOrEqual(t, best.ThresholdBin, 4)
	assert.EqualValues(t, 8, best.LeftCount)
}
