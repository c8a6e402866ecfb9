// Package feature implements Feature / BinData (C2): columnar pre-binned
// storage for one feature, either dense (one bin index per row) or sparse
// (explicit non-zero entries with implicit bin-0 elsewhere), built by a
// thread-partitioned push during extraction and immutable thereafter.
package feature

import (
	"github.com/flowforge/gbdt/bin"
	"github.com/flowforge/gbdt/dataset"
)

// Feature binds a BinMapper and a BinData column to a stable feature index.
type Feature struct {
	featureIndex int
	mapper       *bin.Mapper
	data         BinData
}

// New wires a mapper and a BinData column to a feature index.
func New(featureIndex int, mapper *bin.Mapper, data BinData) *Feature {
	return &Feature{featureIndex: featureIndex, mapper: mapper, data: data}
}

func (f *Feature) FeatureIndex() int          { return f.featureIndex }
func (f *Feature) NumBin() int                { return f.mapper.NumBin() }
func (f *Feature) BinMapper() dataset.BinMapper { return f.mapper }
func (f *Feature) BinData() dataset.BinData   { return f.data }

// BinData is the common interface implemented by *Dense and *Sparse.
type BinData interface {
	dataset.BinData
	// PushData appends (row, bin) to thread tid's local buffer. Call
	// discipline: a given tid may only append in increasing row order
	// within its own disjoint row range; no thread writes another's range.
	PushData(tid, row, bin int)
	// FinishLoad merges every thread-local buffer into the final immutable
	// column, in row order.
	FinishLoad()
}
