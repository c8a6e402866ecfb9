// Package orderedbin implements OrderedBin (C3): a compact, leaf-aware
// iterator over the non-zero (row, bin) pairs of one sparse feature. Its
// defining invariant is Split's in-place partition: after splitting a
// parent leaf's sub-range by membership, order within each partition is
// preserved relative to the pre-split order.
package orderedbin

// entry is one non-default-bin row for the feature this OrderedBin indexes.
type entry struct {
	row int32
	bin int32
}

// OrderedBin is the per-feature sparse (row, bin) list together with, for
// each live leaf, the contiguous sub-range of that list currently belonging
// to it.
type OrderedBin struct {
	// all is the feature's full non-default list as built; entries is the
	// working copy Init rebuilds from it for each tree.
	all     []entry
	entries []entry
	// begin/count index into entries per leaf; a leaf with count 0 is empty
	// (not necessarily inactive - an empty leaf is a valid state).
	begin []int
	count []int
}

// New builds an OrderedBin from the feature's full list of (row, bin)
// non-default entries, in increasing row order.
func New(rows []int, bins []int) *OrderedBin {
	entries := make([]entry, len(rows))
	for i := range rows {
		entries[i] = entry{row: int32(rows[i]), bin: int32(bins[i])}
	}
	return &OrderedBin{all: entries}
}

// Init establishes leaf 0's sub-range. rowInLeaf is either nil (meaning "all
// rows are in leaf 0") or a per-row flag array (non-zero means the row is
// used and currently in leaf 0, e.g. under bagging).
func (o *OrderedBin) Init(rowInLeaf []int8, numLeaves int) {
	o.begin = make([]int, numLeaves)
	o.count = make([]int, numLeaves)

	if rowInLeaf == nil {
		o.entries = append(o.entries[:0], o.all...)
		o.count[0] = len(o.entries)
		return
	}

	// Rebuild the working list from the full list, keeping only rows that are
	// in use and preserving row order, so leaf 0's sub-range covers it all.
	kept := o.entries[:0]
	for _, e := range o.all {
		if int(e.row) < len(rowInLeaf) && rowInLeaf[e.row] != 0 {
			kept = append(kept, e)
		}
	}
	o.entries = kept
	o.count[0] = len(kept)
}

// Split partitions parentLeaf's sub-range in place: entries whose row has
// isInLeft[row]==1 remain in parentLeaf's (now shrunk) prefix, and the
// remainder becomes rightLeaf's sub-range. Relative order within each
// partition is preserved. Runs in time linear in parentLeaf's current
// sub-range length.
func (o *OrderedBin) Split(parentLeaf, rightLeaf int, isInLeft []int8) {
	begin := o.begin[parentLeaf]
	count := o.count[parentLeaf]
	sub := o.entries[begin : begin+count]

	left := make([]entry, 0, count)
	right := make([]entry, 0, count)
	for _, e := range sub {
		if int(e.row) < len(isInLeft) && isInLeft[e.row] != 0 {
			left = append(left, e)
		} else {
			right = append(right, e)
		}
	}
	copy(sub, left)
	copy(sub[len(left):], right)

	o.count[parentLeaf] = len(left)
	o.begin[rightLeaf] = begin + len(left)
	o.count[rightLeaf] = len(right)
}

// ForEachInLeaf calls fn(row, bin) for every non-default entry currently in leaf.
func (o *OrderedBin) ForEachInLeaf(leaf int, fn func(row, bin int)) {
	begin := o.begin[leaf]
	count := o.count[leaf]
	for _, e := range o.entries[begin : begin+count] {
		fn(int(e.row), int(e.bin))
	}
}

// Len returns the number of non-default entries currently in leaf.
func (o *OrderedBin) Len(leaf int) int {
	return o.count[leaf]
}
