// Package dataset defines the external contract the tree learner is handed:
// a fixed-size, pre-binned collection of features plus the binary header
// layout used to persist and round-trip that collection's metadata. Parsing
// raw CSV/LibSVM, label/weight/query loading, and full dataset
// (de)serialization are out of scope — this package only carries the shapes
// the learner and the distributed bin-mapper sync need to agree on.
package dataset

// Feature is the per-feature contract the learner reads from.
type Feature interface {
	// FeatureIndex is this feature's stable position in the dataset's
	// original (pre-filtering) column space.
	FeatureIndex() int
	// NumBin returns the number of bins this feature's mapper produces (>= 1).
	NumBin() int
	// BinMapper exposes the real->bin mapping and serialization contract.
	BinMapper() BinMapper
	// BinData exposes the immutable pre-binned column.
	BinData() BinData
}

// BinMapper maps real feature values to bounded bin indices and carries a
// fixed-size serialization so all features can be transmitted as equal-sized
// records during distributed bin synchronization.
type BinMapper interface {
	// Bin maps a real value to its bin index.
	Bin(x float64) int
	// NumBin reports the number of bins, <= the max_bin the mapper was built with.
	NumBin() int
	// IsTrivial reports whether every sampled value mapped to a single bin.
	IsTrivial() bool
	// BinToValue returns a representative real value (the bin's upper
	// boundary) used to annotate a tree split.
	BinToValue(bin int) float64
	// SizeForSpecificBin returns the fixed record size (bytes) used when
	// serializing any mapper built with the given max_bin.
	SizeForSpecificBin(maxBin int) int
	// CopyTo serializes the mapper into buf, which must be at least
	// SizeForSpecificBin(maxBin) bytes.
	CopyTo(buf []byte)
	// CopyFrom deserializes the mapper from buf.
	CopyFrom(buf []byte)
}

// BinData is the immutable pre-binned column storage for one feature, either
// dense (one bin index per row) or sparse (explicit non-zero entries, with
// omitted rows implicitly bin 0).
type BinData interface {
	// NumData is the number of rows this column covers.
	NumData() int
	// Bin returns the bin index stored for row.
	Bin(row int) int
	// IsSparse reports whether this column uses the sparse representation.
	IsSparse() bool
	// CreateOrderedBin returns a non-nil OrderedBinState only for sparse
	// columns; dense columns return nil (the learner branches on this).
	CreateOrderedBin() OrderedBinState
}

// OrderedBinState is implemented by the orderedbin package; declared here to
// avoid a dependency cycle between dataset and orderedbin while still
// letting BinData.CreateOrderedBin name its return shape precisely.
type OrderedBinState interface {
	Init(rowInLeaf []int8, numLeaves int)
	Split(parentLeaf, rightLeaf int, isInLeft []int8)
	ForEachInLeaf(leaf int, fn func(row, bin int))
	Len(leaf int) int
}

// Dataset is the fixed N-rows x F-features contract the learner is handed
// for one boosted iteration.
type Dataset interface {
	NumData() int
	NumFeatures() int
	FeatureAt(i int) Feature
}
