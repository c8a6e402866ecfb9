// Package partition implements DataPartition (C4): a permutation of row ids
// together with, for each leaf, a half-open range into that permutation.
// Splitting a leaf partitions its range in place by a threshold test,
// deterministically regardless of how many worker goroutines did the work.
package partition

import "github.com/flowforge/gbdt/internal/parallel"

// Partition holds row-id permutation π and per-leaf [begin, begin+count) ranges.
type Partition struct {
	numData   int
	numLeaves int

	indices []int32
	begin   []int32
	count   []int32
}

// New allocates a partition over numData rows and up to numLeaves leaves.
func New(numData, numLeaves int) *Partition {
	return &Partition{
		numData:   numData,
		numLeaves: numLeaves,
		indices:   make([]int32, numData),
		begin:     make([]int32, numLeaves),
		count:     make([]int32, numLeaves),
	}
}

// Init resets leaf 0 to cover all rows in original order; every other leaf
// is emptied.
func (p *Partition) Init() {
	for i := range p.indices {
		p.indices[i] = int32(i)
	}
	for l := range p.begin {
		p.begin[l] = 0
		p.count[l] = 0
	}
	p.count[0] = int32(p.numData)
}

// InitUsedRows resets leaf 0 to the given subset of row ids, in the order
// given (used when bagging restricts training to a sampled subset).
func (p *Partition) InitUsedRows(used []int) {
	for l := range p.begin {
		p.begin[l] = 0
		p.count[l] = 0
	}
	for i, r := range used {
		p.indices[i] = int32(r)
	}
	p.count[0] = int32(len(used))
}

// Indices returns the underlying permutation; callers index it with
// LeafBegin/LeafCount to read a leaf's rows.
func (p *Partition) Indices() []int32 { return p.indices }

func (p *Partition) LeafBegin(leaf int) int { return int(p.begin[leaf]) }
func (p *Partition) LeafCount(leaf int) int { return int(p.count[leaf]) }

// LeafRows returns leaf's row ids as a freshly allocated slice (for tests
// and callers outside the learner's hot path).
func (p *Partition) LeafRows(leaf int) []int {
	b, c := p.begin[leaf], p.count[leaf]
	out := make([]int, c)
	for i := int32(0); i < c; i++ {
		out[i] = int(p.indices[b+i])
	}
	return out
}

// BinReader is the minimal contract Split needs from a feature's bin_data.
type BinReader interface {
	Bin(row int) int
}

// Split partitions parent's range by the test bin_data[row] <= thresholdBin.
// Rows that pass remain in parent's range (prefix); rows that fail form
// rightLeaf's range (suffix). Uses a two-pass parallel scheme (per-block
// left-count, then a deterministic scatter) so results never depend on
// thread count.
func (p *Partition) Split(parent int, binData BinReader, thresholdBin int, rightLeaf int) {
	begin := int(p.begin[parent])
	count := int(p.count[parent])
	sub := p.indices[begin : begin+count]

	numBlocks := parallelBlocks(count)
	blockSize := (count + numBlocks - 1) / numBlocks
	if blockSize < 1 {
		blockSize = 1
	}
	leftCounts := make([]int, numBlocks)

	// Pass 1: count how many rows in each block go left.
	parallel.Blocks(count, numBlocks, func(s, e int) {
		block := s / blockSize
		n := 0
		for i := s; i < e; i++ {
			if binData.Bin(int(sub[i])) <= thresholdBin {
				n++
			}
		}
		leftCounts[block] = n
	})

	// Prefix sum of left counts gives each block's output offset in the
	// left partition; the right partition's offsets mirror it from the end
	// of the left region.
	leftOffsets := make([]int, numBlocks)
	total := 0
	for b, n := range leftCounts {
		leftOffsets[b] = total
		total += n
	}
	rightOffsets := make([]int, numBlocks)
	rtotal := total
	for b := 0; b < numBlocks; b++ {
		rightOffsets[b] = rtotal
		rtotal += (min(blockSize, count-b*blockSize)) - leftCounts[b]
	}

	out := make([]int32, count)
	parallel.Blocks(count, numBlocks, func(s, e int) {
		block := s / blockSize
		li := leftOffsets[block]
		ri := rightOffsets[block]
		for i := s; i < e; i++ {
			row := sub[i]
			if binData.Bin(int(row)) <= thresholdBin {
				out[li] = row
				li++
			} else {
				out[ri] = row
				ri++
			}
		}
	})
	copy(sub, out)

	p.count[parent] = int32(total)
	p.begin[rightLeaf] = int32(begin + total)
	p.count[rightLeaf] = int32(count - total)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func parallelBlocks(n int) int {
	if n <= 0 {
		return 1
	}
	blocks := n / 1024
	if blocks < 1 {
		blocks = 1
	}
	if blocks > 64 {
		blocks = 64
	}
	if blocks > n {
		blocks = n
	}
	return blocks
}
