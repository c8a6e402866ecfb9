package histogram_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowforge/gbdt/histogram"
)

func newTestPool(capacity, numLeaves int) *histogram.Pool {
	p := histogram.NewPool()
	p.ResetSize(capacity, numLeaves, []int{4})
	p.Fill(func(featureIndex, numBin int) *histogram.FeatureHistogram {
		return histogram.New(featureIndex, numBin)
	}, []int{0})
	return p
}

func TestGetBindsThenHitsSameLeaf(t *testing.T) {
	p := newTestPool(3, 8)
	_, hit := p.Get(0)
	assert.False(t, hit)
	_, hit = p.Get(0)
	assert.True(t, hit)
	assert.Equal(t, 1, p.Misses())
}

func TestMoveRebindsWithoutNewAllocation(t *testing.T) {
	p := newTestPool(3, 8)
	block, _ := p.Get(0)
	p.Move(0, 1)

	moved, hit := p.Get(1)
	require.True(t, hit)
	assert.Same(t, block[0], moved[0])

	_, hit = p.Get(0)
	assert.False(t, hit, "leaf 0 must have been unbound by Move")
}

func TestPoolEvictionKeepsExactlyCapacityBoundLeavesS5(t *testing.T) {
	p := newTestPool(3, 8)
	for leaf := 0; leaf < 10; leaf++ {
		p.Get(leaf)
	}
	// Every one of the 10 Gets above was a distinct, never-before-seen leaf,
	// so each was a miss.
	assert.Equal(t, 10, p.Misses())

	// Capacity 3 with pure clock eviction over a strictly increasing
	// access sequence keeps exactly the last 3 leaves bound.
	for leaf := 7; leaf < 10; leaf++ {
		_, hit := p.Get(leaf)
		assert.True(t, hit, "leaf %d should still be bound", leaf)
	}
	for leaf := 0; leaf < 7; leaf++ {
		_, hit := p.Get(leaf)
		assert.False(t, hit, "leaf %d should have been evicted", leaf)
	}
}

func TestResetMapClearsBindingsAndMissCounter(t *testing.T) {
	p := newTestPool(3, 8)
	p.Get(0)
	p.Get(1)
	p.ResetMap()
	assert.Equal(t, 0, p.Misses())
	_, hit := p.Get(0)
	assert.False(t, hit)
}
