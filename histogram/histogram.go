// Package histogram implements FeatureHistogram (C5): a per-feature,
// per-leaf array of (sum_g, sum_h, count) indexed by bin, with the
// scratch/subtract construction paths and the best-threshold scan the
// learner drives its leaf-wise growth from.
package histogram

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/flowforge/gbdt/dataset"
)

// Bin is one bucket of accumulated gradient statistics.
type Bin struct {
	SumG  float64
	SumH  float64
	Count int32
}

// SplitInfo describes the best threshold found for one (leaf, feature) pair.
// Gain <= 0 (in practice -Inf when nothing is set) means "no admissible split".
type SplitInfo struct {
	Feature      int
	ThresholdBin int
	Gain         float64
	LeftCount    int32
	RightCount   int32
	LeftSumG     float64
	LeftSumH     float64
	RightSumG    float64
	RightSumH    float64
	LeftOutput   float64
	RightOutput  float64
}

// WorstSplitInfo is the sentinel returned when no admissible threshold
// exists for a feature: callers compare gains with plain >, so -Inf never
// wins against a real candidate.
func WorstSplitInfo(feature int) SplitInfo {
	return SplitInfo{Feature: feature, Gain: math.Inf(-1)}
}

// FeatureHistogram is the per-bin statistics array for one feature, scoped
// to whichever leaf it was last constructed or subtracted for.
type FeatureHistogram struct {
	feature    int
	bins       []Bin
	splittable bool

	// gScratch/hScratch back the gonum/floats.Sum reduction in
	// FindBestThreshold; reused across calls instead of reallocated per call.
	gScratch []float64
	hScratch []float64
}

// New allocates a histogram sized to numBin for the given feature index.
func New(feature, numBin int) *FeatureHistogram {
	return &FeatureHistogram{feature: feature, bins: make([]Bin, numBin)}
}

// Feature reports which dataset feature this histogram belongs to.
func (h *FeatureHistogram) Feature() int { return h.feature }

// NumBin reports the histogram's bin count.
func (h *FeatureHistogram) NumBin() int { return len(h.bins) }

// IsSplittable reports whether the last FindBestThreshold call found any
// admissible threshold. Used for monotone pruning: if a parent's histogram
// for a feature was not splittable, neither child needs that feature built.
func (h *FeatureHistogram) IsSplittable() bool { return h.splittable }

func (h *FeatureHistogram) reset() {
	for i := range h.bins {
		h.bins[i] = Bin{}
	}
}

// ConstructDense builds the histogram by walking leafIndices (the leaf's
// row ids in dataset order) and reading each row's bin directly from
// binData, accumulating the pre-ordered gradient/hessian vectors gOrd/hOrd
// at the same position k as leafIndices[k].
func (h *FeatureHistogram) ConstructDense(leafIndices []int, binData dataset.BinData, gOrd, hOrd []float64) {
	h.reset()
	for k, row := range leafIndices {
		b := binData.Bin(row)
		h.bins[b].SumG += gOrd[k]
		h.bins[b].SumH += hOrd[k]
		h.bins[b].Count++
	}
}

// ConstructOrdered builds the histogram from a sparse feature's OrderedBin
// over leaf's current sub-range, reading gradients/hessians directly by row
// id (no pre-ordering needed since the ordered-bin list is already
// leaf-scoped). Bin 0's aggregate is derived as the leaf total minus the
// sum over the explicit non-zero entries, since sparse storage never
// enumerates bin-0 rows.
func (h *FeatureHistogram) ConstructOrdered(ob dataset.OrderedBinState, leaf int, g, h2 []float64, leafSumG, leafSumH float64, leafCount int) {
	h.reset()
	nonZeroG, nonZeroH := 0.0, 0.0
	nonZeroCount := int32(0)
	ob.ForEachInLeaf(leaf, func(row, bin int) {
		h.bins[bin].SumG += g[row]
		h.bins[bin].SumH += h2[row]
		h.bins[bin].Count++
		nonZeroG += g[row]
		nonZeroH += h2[row]
		nonZeroCount++
	})
	h.bins[0].SumG += leafSumG - nonZeroG
	h.bins[0].SumH += leafSumH - nonZeroH
	h.bins[0].Count += int32(leafCount) - nonZeroCount
}

// Subtract sets h[b] = parent[b] - child[b] for every bin, bin-wise over
// (sum_g, sum_h, count). This is the parent-reuse trick: the larger child's
// histogram is derived, never scanned from scratch.
func (h *FeatureHistogram) Subtract(parent, child *FeatureHistogram) {
	for b := range h.bins {
		h.bins[b].SumG = parent.bins[b].SumG - child.bins[b].SumG
		h.bins[b].SumH = parent.bins[b].SumH - child.bins[b].SumH
		h.bins[b].Count = parent.bins[b].Count - child.bins[b].Count
	}
}

// leafGain is the closed-form regularized gain contribution of one side,
// G^2/(H+lambda) with an L1 soft-threshold applied to G first.
func leafGain(sumG, sumH, lambda, alpha float64) float64 {
	g := thresholdL1(sumG, alpha)
	return g * g / (sumH + lambda)
}

// leafOutput is the closed-form optimal leaf value, -G/(H+lambda), using
// the same L1-thresholded G as leafGain so output and gain stay consistent.
func leafOutput(sumG, sumH, lambda, alpha float64) float64 {
	g := thresholdL1(sumG, alpha)
	return -g / (sumH + lambda)
}

func thresholdL1(g, alpha float64) float64 {
	if alpha <= 0 {
		return g
	}
	if g > alpha {
		return g - alpha
	}
	if g < -alpha {
		return g + alpha
	}
	return 0
}

// FindBestThreshold scans cumulative left/right splits over bins
// [0, NumBin()-2] (split after bin t), skipping candidates where either
// side violates minDataInLeaf or minSumHessianInLeaf, and returns the
// SplitInfo for the admissible t with strictly greatest gain. Ties keep the
// first (lowest-bin) candidate found, since later candidates only replace
// the best on strict improvement. If no candidate is admissible, returns
// WorstSplitInfo and marks the histogram not splittable.
func (h *FeatureHistogram) FindBestThreshold(minDataInLeaf int, minSumHessianInLeaf, lambda, alpha float64) SplitInfo {
	if len(h.gScratch) != len(h.bins) {
		h.gScratch = make([]float64, len(h.bins))
		h.hScratch = make([]float64, len(h.bins))
	}
	var totalCount int32
	for i, b := range h.bins {
		h.gScratch[i] = b.SumG
		h.hScratch[i] = b.SumH
		totalCount += b.Count
	}
	totalG := floats.Sum(h.gScratch)
	totalH := floats.Sum(h.hScratch)
	parentGain := leafGain(totalG, totalH, lambda, alpha)

	best := WorstSplitInfo(h.feature)
	h.splittable = false

	var leftG, leftH float64
	var leftCount int32
	for t := 0; t < len(h.bins)-1; t++ {
		leftG += h.bins[t].SumG
		leftH += h.bins[t].SumH
		leftCount += h.bins[t].Count

		rightG := totalG - leftG
		rightH := totalH - leftH
		rightCount := totalCount - leftCount

		if int(leftCount) < minDataInLeaf || int(rightCount) < minDataInLeaf {
			continue
		}
		if leftH < minSumHessianInLeaf || rightH < minSumHessianInLeaf {
			continue
		}

		gain := leafGain(leftG, leftH, lambda, alpha) + leafGain(rightG, rightH, lambda, alpha) - parentGain
		if gain <= 0 {
			continue
		}
		if gain > best.Gain {
			best = SplitInfo{
				Feature:      h.feature,
				ThresholdBin: t,
				Gain:         gain,
				LeftCount:    leftCount,
				RightCount:   rightCount,
				LeftSumG:     leftG,
				LeftSumH:     leftH,
				RightSumG:    rightG,
				RightSumH:    rightH,
				LeftOutput:   leafOutput(leftG, leftH, lambda, alpha),
				RightOutput:  leafOutput(rightG, rightH, lambda, alpha),
			}
			h.splittable = true
		}
	}
	return best
}
