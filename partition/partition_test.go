package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/gbdt/partition"
)

type fakeBins []int

func (f fakeBins) Bin(row int) int { return f[row] }

func TestInitCoversAllRowsInOrder(t *testing.T) {
	p := partition.New(8, 4)
	p.Init()
	assert.Equal(t, 0, p.LeafBegin(0))
	assert.Equal(t, 8, p.LeafCount(0))
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, p.LeafRows(0))
}

func TestSplitPartitionsCompletelyAndExclusively(t *testing.T) {
	bins := fakeBins{2, 0, 1, 3, 0, 2, 1, 3}
	p := partition.New(8, 4)
	p.Init()
	p.Split(0, bins, 1, 1)

	left := p.LeafRows(0)
	right := p.LeafRows(1)

	require.Equal(t, 8, len(left)+len(right))
	seen := make(map[int]bool)
	for _, r := range append(append([]int{}, left...), right...) {
		assert.False(t, seen[r], "row %d seen twice", r)
		seen[r] = true
	}
	for r := 0; r < 8; r++ {
		assert.True(t, seen[r], "row %d missing", r)
	}
	for _, r := range left {
		assert.LessOrEqual(t, bins[r], 1)
	}
	for _, r := range right {
		assert.Greater(t, bins[r], 1)
	}
}

func TestSplitIsDeterministicAcrossBlockCounts(t *testing.T) {
	// 5000 rows are split in several blocks; the result must equal a single
	// serial pass over the rows, in the same per-side order.
	n := 5000
	bins := make(fakeBins, n)
	for i := range bins {
		bins[i] = i % 5
	}

	var wantLeft, wantRight []int
	for r := 0; r < n; r++ {
		if bins[r] <= 2 {
			wantLeft = append(wantLeft, r)
		} else {
			wantRight = append(wantRight, r)
		}
	}

	p := partition.New(n, 4)
	p.Init()
	p.Split(0, bins, 2, 1)

	assert.Equal(t, wantLeft, p.LeafRows(0))
	assert.Equal(t, wantRight, p.LeafRows(1))
}

func TestSplitPreservesRelativeOrderWithinEachSide(t *testing.T) {
	bins := fakeBins{0, 1, 0, 1, 0, 1}
	p := partition.New(6, 4)
	p.Init()
	p.Split(0, bins, 0, 1)

	assert.Equal(t, []int{0, 2, 4}, p.LeafRows(0))
	assert.Equal(t, []int{1, 3, 5}, p.LeafRows(1))
}

func TestInitUsedRowsRestrictsToSubset(t *testing.T) {
	p := partition.New(10, 4)
	p.InitUsedRows([]int{1, 3, 5, 7})
	assert.Equal(t, []int{1, 3, 5, 7}, p.LeafRows(0))
}
