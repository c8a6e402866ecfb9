package feature

import (
	"sort"

	"github.com/flowforge/gbdt/dataset"
	"github.com/flowforge/gbdt/orderedbin"
)

// Sparse stores only the non-default (non-zero-bin) rows explicitly; every
// omitted row implicitly reads bin 0. Bin 0 is the mapper's lowest bin; it
// holds the value zero only when no sampled value lies below the first cut
// point, and it may also hold non-zero values.
type Sparse struct {
	numData int
	rows    []int32
	bins    []byte
	// threadBuf holds each worker thread's non-default (row, bin) pairs
	// before FinishLoad merges them in row order.
	threadBuf [][]denseEntry
}

// NewSparse allocates a sparse column for numData rows, with numThreads
// disjoint push buffers.
func NewSparse(numData, numThreads int) *Sparse {
	if numThreads < 1 {
		numThreads = 1
	}
	return &Sparse{
		numData:   numData,
		threadBuf: make([][]denseEntry, numThreads),
	}
}

func (s *Sparse) NumData() int { return s.numData }

// Bin returns the bin at row via binary search over the explicit non-default
// entries; rows not present default to bin 0.
func (s *Sparse) Bin(row int) int {
	i := sort.Search(len(s.rows), func(i int) bool { return int(s.rows[i]) >= row })
	if i < len(s.rows) && int(s.rows[i]) == row {
		return int(s.bins[i])
	}
	return 0
}

func (s *Sparse) IsSparse() bool { return true }

// CreateOrderedBin returns the sparse iterator over this feature's non-zero
// entries; the learner uses it to build histograms without touching
// bin-0 rows.
func (s *Sparse) CreateOrderedBin() dataset.OrderedBinState {
	rows := make([]int, len(s.rows))
	bins := make([]int, len(s.bins))
	for i := range s.rows {
		rows[i] = int(s.rows[i])
		bins[i] = int(s.bins[i])
	}
	return orderedbin.New(rows, bins)
}

// PushData appends a non-default (row, bin) entry to thread tid's buffer,
// in row order within that thread's own disjoint range. Callers must never
// push bin 0 - the sparse representation relies on omission meaning "default".
func (s *Sparse) PushData(tid, row, bin int) {
	if bin == 0 {
		return
	}
	s.threadBuf[tid] = append(s.threadBuf[tid], denseEntry{row: row, bin: byte(bin)})
}

// FinishLoad merges every thread-local buffer into the sorted, immutable
// (row, bin) lists, in row order.
func (s *Sparse) FinishLoad() {
	total := 0
	for _, buf := range s.threadBuf {
		total += len(buf)
	}
	s.rows = make([]int32, 0, total)
	s.bins = make([]byte, 0, total)
	for _, buf := range s.threadBuf {
		for _, e := range buf {
			s.rows = append(s.rows, int32(e.row))
			s.bins = append(s.bins, e.bin)
		}
	}
	s.threadBuf = nil
}
