package feature

import "github.com/flowforge/gbdt/dataset"

// Dense stores one bin index per row, packed as a byte per row (the
// learner never sees more than 256 bins per feature in practice; this keeps
// the representation simple while matching the "fixed-width bin indices"
// requirement). Dense features never produce an OrderedBin.
type Dense struct {
	numData int
	bins    []byte
	// threadBuf holds each worker thread's (row, bin) pairs before FinishLoad merges them.
	threadBuf [][]denseEntry
}

type denseEntry struct {
	row int
	bin byte
}

// NewDense allocates a dense column for numData rows, with numThreads
// disjoint push buffers.
func NewDense(numData, numThreads int) *Dense {
	if numThreads < 1 {
		numThreads = 1
	}
	return &Dense{
		numData:   numData,
		threadBuf: make([][]denseEntry, numThreads),
	}
}

func (d *Dense) NumData() int { return d.numData }

func (d *Dense) Bin(row int) int { return int(d.bins[row]) }

func (d *Dense) IsSparse() bool { return false }

// CreateOrderedBin always returns nil for dense columns; the learner
// branches on this to skip the ordered-bin construction path.
func (d *Dense) CreateOrderedBin() dataset.OrderedBinState { return nil }

// PushData appends (row, bin) to thread tid's buffer, in row order within
// that thread's own disjoint range.
func (d *Dense) PushData(tid, row, bin int) {
	d.threadBuf[tid] = append(d.threadBuf[tid], denseEntry{row: row, bin: byte(bin)})
}

// FinishLoad merges every thread-local buffer into the packed column.
func (d *Dense) FinishLoad() {
	d.bins = make([]byte, d.numData)
	for _, buf := range d.threadBuf {
		for _, e := range buf {
			d.bins[e.row] = e.bin
		}
	}
	d.threadBuf = nil
}
