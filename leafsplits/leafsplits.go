// Package leafsplits implements LeafSplits (C7): the per-leaf aggregate
// state the tree learner carries between FindBestThresholds passes - a
// leaf's row count and gradient/hessian sums, plus the best split found so
// far across its sampled features.
package leafsplits

import "github.com/flowforge/gbdt/histogram"

// LeafSplits holds one leaf's aggregate statistics and the single best
// SplitInfo found so far across all feature slots. LeafIndex is -1 when the handle is
// inactive (no leaf currently assigned to it).
type LeafSplits struct {
	LeafIndex     int
	NumDataInLeaf int
	SumGradients  float64
	SumHessians   float64

	// BestSplit is the winning SplitInfo across every sampled feature,
	// recomputed by the learner after each feature's FindBestThreshold.
	BestSplit histogram.SplitInfo
}

// New returns an inactive handle (LeafIndex == -1).
func New() *LeafSplits {
	return &LeafSplits{LeafIndex: -1, BestSplit: histogram.WorstSplitInfo(-1)}
}

// InitRoot is the full-data root initialization: leaf 0, sums over every
// row via g/h directly (data_indices is implicitly 0..N-1).
func (ls *LeafSplits) InitRoot(g, h []float64) {
	ls.LeafIndex = 0
	ls.NumDataInLeaf = len(g)
	var sumG, sumH float64
	for i := range g {
		sumG += g[i]
		sumH += h[i]
	}
	ls.SumGradients = sumG
	ls.SumHessians = sumH
	ls.BestSplit = histogram.WorstSplitInfo(-1)
}

// InitFromRows computes Σg, Σh over the given row ids (a leaf's current
// partition range) when no parent split info is available to reuse.
func (ls *LeafSplits) InitFromRows(leaf int, rows []int32, g, h []float64) {
	ls.LeafIndex = leaf
	ls.NumDataInLeaf = len(rows)
	var sumG, sumH float64
	for _, r := range rows {
		sumG += g[r]
		sumH += h[r]
	}
	ls.SumGradients = sumG
	ls.SumHessians = sumH
	ls.BestSplit = histogram.WorstSplitInfo(-1)
}

// InitFromSums takes Σg, Σh directly from the parent SplitInfo that produced
// this leaf, saving a second pass over its rows.
func (ls *LeafSplits) InitFromSums(leaf, count int, sumG, sumH float64) {
	ls.LeafIndex = leaf
	ls.NumDataInLeaf = count
	ls.SumGradients = sumG
	ls.SumHessians = sumH
	ls.BestSplit = histogram.WorstSplitInfo(-1)
}

// Deactivate marks the handle inactive, e.g. when a sibling leaf does not
// yet exist (root iteration) or was pruned.
func (ls *LeafSplits) Deactivate() {
	ls.LeafIndex = -1
	ls.NumDataInLeaf = 0
	ls.SumGradients = 0
	ls.SumHessians = 0
	ls.BestSplit = histogram.WorstSplitInfo(-1)
}

// IsActive reports whether this handle currently names a live leaf.
func (ls *LeafSplits) IsActive() bool { return ls.LeafIndex >= 0 }

// ConsiderSplit replaces BestSplit if candidate's gain strictly improves on
// the current best, implementing the spec's tie-break-to-first-found rule
// (a later candidate with equal gain never displaces an earlier one).
func (ls *LeafSplits) ConsiderSplit(candidate histogram.SplitInfo) {
	if candidate.Gain > ls.BestSplit.Gain {
		ls.BestSplit = candidate
	}
}
