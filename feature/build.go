package feature

import (
	"github.com/flowforge/gbdt/bin"
	"github.com/flowforge/gbdt/internal/parallel"
)

// SparseThreshold is the heuristic: if more than this fraction of rows fall
// in bin 0 after mapping, the sparse representation is chosen.
const SparseThreshold = 0.7

// Build maps every row's value through a mapper fit on sampleValues and
// selects dense or sparse storage heuristically, using numThreads
// disjoint push ranges exactly as the push discipline requires.
func Build(featureIndex int, sampleValues []float64, values []float64, maxBin, numThreads int) *Feature {
	mapper := bin.FindBin(sampleValues, maxBin)
	if mapper.IsTrivial() {
		return nil
	}

	numData := len(values)
	if numThreads < 1 {
		numThreads = 1
	}
	if numThreads > numData && numData > 0 {
		numThreads = numData
	}

	// First pass: map every row, count zero-bin fraction, to choose the
	// representation - still done per-thread range as the push discipline
	// requires, even though this scratch pass doesn't itself push anywhere.
	bins := make([]int, numData)
	zeroCount := 0
	blockSize := (numData + numThreads - 1) / numThreads
	if blockSize < 1 {
		blockSize = 1
	}
	parallel.Blocks(numData, numThreads, func(start, end int) {
		for r := start; r < end; r++ {
			bins[r] = mapper.Bin(values[r])
		}
	})
	for _, b := range bins {
		if b == 0 {
			zeroCount++
		}
	}

	var data BinData
	useSparse := mapper.HasZero() && numData > 0 && float64(zeroCount)/float64(numData) >= SparseThreshold
	if useSparse {
		data = NewSparse(numData, numThreads)
	} else {
		data = NewDense(numData, numThreads)
	}

	parallel.Blocks(numData, numThreads, func(start, end int) {
		tid := start / blockSize
		if tid >= numThreads {
			tid = numThreads - 1
		}
		for r := start; r < end; r++ {
			data.PushData(tid, r, bins[r])
		}
	})
	data.FinishLoad()

	return New(featureIndex, mapper, data)
}
