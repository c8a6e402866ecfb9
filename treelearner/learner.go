// Package treelearner implements SerialTreeLearner (C8): the orchestrator
// that grows one leaf-wise tree per boosted iteration from a dataset plus a
// pair of gradient/hessian vectors, driving every other component
// (histogram construction and subtraction, the histogram pool's
// parent-reuse trick, data partitioning, ordered-bin maintenance) in the
// sequence that makes leaf-wise growth both correct and deterministic
// regardless of worker-pool size.
package treelearner

import (
	"math/rand"
	"sort"

	"github.com/flowforge/gbdt/config"
	"github.com/flowforge/gbdt/dataset"
	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
	"github.com/flowforge/gbdt/histogram"
	"github.com/flowforge/gbdt/leafsplits"
	gbdtlog "github.com/flowforge/gbdt/pkg/log"
	"github.com/flowforge/gbdt/partition"
	"github.com/flowforge/gbdt/tree"
)

var logger = gbdtlog.GetLoggerWithName("gbdt.treelearner")

// Learner grows one tree at a time against a fixed Dataset. Create one per
// dataset and call Train (or, under bagging, TrainSubset) repeatedly, once
// per boosting iteration, with that iteration's gradients and hessians.
type Learner struct {
	cfg config.TreeConfig
	ds  dataset.Dataset

	numData     int
	numFeatures int

	partition *partition.Partition
	pool      *histogram.Pool
	workspace *Workspace

	// featureSlots holds, in pool-slot order, the dataset feature indices
	// sampled for the tree currently being grown.
	featureSlots  []int
	isFeatureUsed []bool
	orderedBins   []dataset.OrderedBinState // indexed by dataset feature index; nil for dense features
	hasOrderedBin bool

	smaller *leafsplits.LeafSplits
	larger  *leafsplits.LeafSplits

	bestSplitPerLeaf []histogram.SplitInfo
	leafActive       []bool

	g, h []float64
	// usedRows is the current tree's bagging subset, or nil when the root
	// leaf covers every row (no bagging). Row ids it lists become leaf 0's
	// initial partition range, per spec.md §4.8.1 step 4.
	usedRows []int

	rng *rand.Rand
}

// New builds a learner bound to ds, validating cfg up front per the
// fatal-at-construction policy.
func New(ds dataset.Dataset, cfg config.TreeConfig) (*Learner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	numData := ds.NumData()
	numFeatures := ds.NumFeatures()

	orderedBins := make([]dataset.OrderedBinState, numFeatures)
	hasOrderedBin := false
	for fi := 0; fi < numFeatures; fi++ {
		ob := ds.FeatureAt(fi).BinData().CreateOrderedBin()
		orderedBins[fi] = ob
		if ob != nil {
			hasOrderedBin = true
		}
	}

	l := &Learner{
		cfg:              cfg,
		ds:               ds,
		numData:          numData,
		numFeatures:      numFeatures,
		partition:        partition.New(numData, cfg.NumLeaves),
		pool:             histogram.NewPool(),
		workspace:        newWorkspace(numData),
		isFeatureUsed:    make([]bool, numFeatures),
		orderedBins:      orderedBins,
		hasOrderedBin:    hasOrderedBin,
		smaller:          leafsplits.New(),
		larger:           leafsplits.New(),
		bestSplitPerLeaf: make([]histogram.SplitInfo, cfg.NumLeaves),
		leafActive:       make([]bool, cfg.NumLeaves),
		rng:              rand.New(rand.NewSource(cfg.FeatureFractionSeed)),
	}
	return l, nil
}

// Train grows one tree against gradients g and hessians h, both length
// NumData(). Returns the finished tree, or an error if g/h are malformed.
// The root leaf covers every row; for a bagging subset use TrainSubset.
func (l *Learner) Train(g, h []float64) (*tree.Tree, error) {
	return l.TrainSubset(g, h, nil)
}

// TrainSubset is Train's general form: when usedRows is non-nil, the root
// leaf covers only those row ids (bagging active) instead of every row in
// the dataset, per spec.md §4.8.1 step 4 ("Otherwise (bagging active): copy
// g[π[i]], h[π[i]] into g_ord, h_ord ... and point at those"). usedRows must
// list distinct row ids in [0, NumData()).
func (l *Learner) TrainSubset(g, h []float64, usedRows []int) (*tree.Tree, error) {
	if len(g) != l.numData || len(h) != l.numData {
		return nil, gbdterrors.NewInvariantError("treelearner.Train",
			"gradients/hessians length must equal dataset num_data")
	}
	l.g, l.h = g, h
	l.usedRows = usedRows

	t := tree.New(l.cfg.NumLeaves)
	l.beforeTrain()

	leftLeaf, rightLeaf := 0, -1
	for iter := 0; iter < l.cfg.NumLeaves-1; iter++ {
		if l.beforeFindBestSplit(t, leftLeaf, rightLeaf) {
			l.findBestThresholds(leftLeaf, rightLeaf)
		}

		bestLeaf := l.bestActiveLeaf()
		if bestLeaf < 0 || l.bestSplitPerLeaf[bestLeaf].Gain <= 0 {
			logger.Debug("tree growth stopped early", "iteration", iter, "num_leaves", t.NumLeaves())
			break
		}

		leftLeaf, rightLeaf = l.applySplit(t, bestLeaf)
	}

	return t, nil
}

func (l *Learner) beforeTrain() {
	l.pool.ResetMap()
	l.sampleFeatures()

	numBins := make([]int, len(l.featureSlots))
	for i, fi := range l.featureSlots {
		numBins[i] = l.ds.FeatureAt(fi).NumBin()
	}
	l.pool.ResetSize(l.poolCapacity(), l.cfg.NumLeaves, numBins)
	l.pool.Fill(func(featureIndex, numBin int) *histogram.FeatureHistogram {
		return histogram.New(featureIndex, numBin)
	}, l.featureSlots)

	for i := range l.bestSplitPerLeaf {
		l.bestSplitPerLeaf[i] = histogram.WorstSplitInfo(-1)
		l.leafActive[i] = false
	}
	l.leafActive[0] = true
	l.larger.Deactivate()

	if l.usedRows == nil {
		// Root holds all N rows: g/h serve directly as the root's ordered
		// gradients, no bagging-subset copy needed.
		l.partition.Init()
		l.smaller.InitRoot(l.g, l.h)
		if l.hasOrderedBin {
			for _, ob := range l.orderedBins {
				if ob == nil {
					continue
				}
				ob.Init(nil, l.cfg.NumLeaves)
			}
		}
		return
	}

	// Bagging active: leaf 0 covers only usedRows, in the given order.
	l.partition.InitUsedRows(l.usedRows)
	rows := make([]int32, len(l.usedRows))
	for i, r := range l.usedRows {
		rows[i] = int32(r)
	}
	l.smaller.InitFromRows(0, rows, l.g, l.h)

	if l.hasOrderedBin {
		rowInLeaf := make([]int8, l.numData)
		for _, r := range l.usedRows {
			rowInLeaf[r] = 1
		}
		for _, ob := range l.orderedBins {
			if ob == nil {
				continue
			}
			ob.Init(rowInLeaf, l.cfg.NumLeaves)
		}
	}
}

// poolCapacity translates histogram_pool_size_MiB into a slot count,
// clamped to [2, num_leaves]; negative means unbounded (use num_leaves).
func (l *Learner) poolCapacity() int {
	if l.cfg.HistogramPoolSizeMiB < 0 {
		return l.cfg.NumLeaves
	}
	bytesPerSlot := 0
	for _, fi := range l.featureSlots {
		bytesPerSlot += l.ds.FeatureAt(fi).NumBin() * 24 // sum_g, sum_h float64 + count int32 (padded)
	}
	if bytesPerSlot == 0 {
		return l.cfg.NumLeaves
	}
	capacity := int(l.cfg.HistogramPoolSizeMiB * 1024 * 1024 / float64(bytesPerSlot))
	if capacity < 2 {
		capacity = 2
	}
	if capacity > l.cfg.NumLeaves {
		capacity = l.cfg.NumLeaves
	}
	return capacity
}

// sampleFeatures picks floor(feature_fraction*numFeatures) features without
// replacement, deterministically from cfg.FeatureFractionSeed, and records
// the sampled set both as a boolean mask and as the pool's feature-slot
// order (ascending by feature index, for a stable Construct/Subtract
// bin layout across runs).
func (l *Learner) sampleFeatures() {
	for i := range l.isFeatureUsed {
		l.isFeatureUsed[i] = false
	}
	n := int(l.cfg.FeatureFraction * float64(l.numFeatures))
	if n < 1 {
		n = 1
	}
	if n > l.numFeatures {
		n = l.numFeatures
	}

	perm := l.rng.Perm(l.numFeatures)
	chosen := perm[:n]
	for _, fi := range chosen {
		l.isFeatureUsed[fi] = true
	}

	l.featureSlots = l.featureSlots[:0]
	for fi := 0; fi < l.numFeatures; fi++ {
		if l.isFeatureUsed[fi] {
			l.featureSlots = append(l.featureSlots, fi)
		}
	}
	sort.Ints(l.featureSlots)
}

func (l *Learner) beforeFindBestSplit(t *tree.Tree, leftLeaf, rightLeaf int) bool {
	if l.cfg.MaxDepth > 0 && t.LeafDepth(leftLeaf) >= l.cfg.MaxDepth {
		l.bestSplitPerLeaf[leftLeaf] = histogram.WorstSplitInfo(-1)
		if rightLeaf >= 0 {
			l.bestSplitPerLeaf[rightLeaf] = histogram.WorstSplitInfo(-1)
		}
		return false
	}
	if rightLeaf >= 0 {
		leftCount := l.partition.LeafCount(leftLeaf)
		rightCount := l.partition.LeafCount(rightLeaf)
		min2 := 2 * l.cfg.MinDataInLeaf
		if leftCount < min2 && rightCount < min2 {
			l.bestSplitPerLeaf[leftLeaf] = histogram.WorstSplitInfo(-1)
			l.bestSplitPerLeaf[rightLeaf] = histogram.WorstSplitInfo(-1)
			return false
		}
	}
	return true
}

func (l *Learner) bestActiveLeaf() int {
	best := -1
	for leaf, active := range l.leafActive {
		if !active {
			continue
		}
		if best < 0 || l.bestSplitPerLeaf[leaf].Gain > l.bestSplitPerLeaf[best].Gain {
			best = leaf
		}
	}
	return best
}

// findBestThresholds runs FindBestThreshold for every sampled feature
// against the current smaller leaf (always leftLeaf's or rightLeaf's
// handle, whichever has fewer rows) and, if both children are live, the
// larger leaf too, using the histogram pool's parent-reuse trick whenever
// the parent's block is still bound under leftLeaf's id.
func (l *Learner) findBestThresholds(leftLeaf, rightLeaf int) {
	smallerLeaf, largerLeaf, parentHist, smallerBlock, largerBlock := l.routeHistograms(leftLeaf, rightLeaf)

	smallerLS, largerLS := l.assignHandles(smallerLeaf, largerLeaf)

	// Reorder each leaf's gradients/hessians once per iteration, not once
	// per feature: every dense feature's Construct call below reuses the
	// same pre-ordered slice instead of re-copying g[row]/h[row] from
	// scratch on each pass through the feature loop.
	smallerRows := l.partition.LeafRows(smallerLeaf)
	smallerGOrd, smallerHOrd := l.workspace.reorderSmaller(smallerRows, l.g, l.h)
	var largerRows []int
	var largerGOrd, largerHOrd []float64
	if largerLeaf >= 0 {
		largerRows = l.partition.LeafRows(largerLeaf)
		largerGOrd, largerHOrd = l.workspace.reorderLarger(largerRows, l.g, l.h)
	}

	for slot, fi := range l.featureSlots {
		if parentHist != nil && !parentHist[slot].IsSplittable() {
			continue
		}

		l.constructHistogram(smallerBlock[slot], fi, smallerLeaf, smallerRows, smallerGOrd, smallerHOrd, smallerLS)
		best := smallerBlock[slot].FindBestThreshold(l.cfg.MinDataInLeaf, l.cfg.MinSumHessianInLeaf, l.cfg.Lambda, l.cfg.Alpha)
		smallerLS.ConsiderSplit(best)

		if largerLeaf < 0 {
			continue
		}
		if parentHist != nil {
			largerBlock[slot].Subtract(parentHist[slot], smallerBlock[slot])
		} else {
			l.constructHistogram(largerBlock[slot], fi, largerLeaf, largerRows, largerGOrd, largerHOrd, largerLS)
		}
		best2 := largerBlock[slot].FindBestThreshold(l.cfg.MinDataInLeaf, l.cfg.MinSumHessianInLeaf, l.cfg.Lambda, l.cfg.Alpha)
		largerLS.ConsiderSplit(best2)
	}

	l.bestSplitPerLeaf[smallerLeaf] = smallerLS.BestSplit
	if largerLeaf >= 0 {
		l.bestSplitPerLeaf[largerLeaf] = largerLS.BestSplit
	}
}

func (l *Learner) constructHistogram(fh *histogram.FeatureHistogram, fi, leaf int, rows []int, gOrd, hOrd []float64, ls *leafsplits.LeafSplits) {
	ob := l.orderedBins[fi]
	if ob != nil {
		fh.ConstructOrdered(ob, leaf, l.g, l.h, ls.SumGradients, ls.SumHessians, ls.NumDataInLeaf)
		return
	}
	binData := l.ds.FeatureAt(fi).BinData()
	fh.ConstructDense(rows, binData, gOrd, hOrd)
}

// assignHandles returns the LeafSplits handles tracking smallerLeaf and
// (when largerLeaf >= 0) largerLeaf, as resolved by handleFor; a handle that
// must switch to an untracked leaf gets its sums recomputed from that
// leaf's partition rows.
func (l *Learner) assignHandles(smallerLeaf, largerLeaf int) (*leafsplits.LeafSplits, *leafsplits.LeafSplits) {
	smallerLS := l.handleFor(smallerLeaf)
	var largerLS *leafsplits.LeafSplits
	if largerLeaf >= 0 {
		largerLS = l.handleFor(largerLeaf)
	}
	return smallerLS, largerLS
}

// handleFor returns whichever of smaller/larger already tracks leaf. Given
// Train's loop structure, findBestThresholds is only ever called with the
// exact pair applySplit just produced (or the initial root), so one of the
// two handles always already tracks leaf; the direct-row fallback exists
// only to keep this total rather than panicking if that invariant is ever
// violated by a future caller.
func (l *Learner) handleFor(leaf int) *leafsplits.LeafSplits {
	if l.smaller.LeafIndex == leaf {
		return l.smaller
	}
	if l.larger.LeafIndex == leaf {
		return l.larger
	}
	target := l.larger
	if l.smaller.LeafIndex < 0 {
		target = l.smaller
	}
	rows := l.partition.LeafRows(leaf)
	int32Rows := make([]int32, len(rows))
	for i, r := range rows {
		int32Rows[i] = int32(r)
	}
	target.InitFromRows(leaf, int32Rows, l.g, l.h)
	return target
}

// routeHistograms implements the pool's parent-reuse trick: the child with
// fewer rows gets a freshly-constructed histogram, the other is derived by
// Subtract from the parent's retained block whenever it is still bound.
func (l *Learner) routeHistograms(leftLeaf, rightLeaf int) (smallerLeaf, largerLeaf int, parentHist, smallerBlock, largerBlock histogram.Block) {
	if rightLeaf < 0 {
		block, _ := l.pool.Get(leftLeaf)
		return leftLeaf, -1, nil, block, nil
	}

	leftCount := l.partition.LeafCount(leftLeaf)
	rightCount := l.partition.LeafCount(rightLeaf)
	if leftCount <= rightCount {
		smallerLeaf, largerLeaf = leftLeaf, rightLeaf
	} else {
		smallerLeaf, largerLeaf = rightLeaf, leftLeaf
	}

	leftBlock, hit := l.pool.Get(leftLeaf)
	if hit {
		parentHist = leftBlock
	}

	if parentHist != nil && smallerLeaf == leftLeaf {
		l.pool.Move(leftLeaf, rightLeaf)
	}

	smallerBlock, _ = l.pool.Get(smallerLeaf)
	largerBlock, _ = l.pool.Get(largerLeaf)
	return
}

// applySplit turns bestLeaf into an internal node using its memoized best
// SplitInfo, updates the row partition and ordered-bin state, and
// reinitializes smaller/larger for the next iteration from the sums
// already stored in that SplitInfo (no re-summation).
func (l *Learner) applySplit(t *tree.Tree, bestLeaf int) (int, int) {
	split := l.bestSplitPerLeaf[bestLeaf]
	feat := l.ds.FeatureAt(split.Feature)
	thresholdVal := feat.BinMapper().BinToValue(split.ThresholdBin)

	right := t.Split(bestLeaf, feat.FeatureIndex(), split.ThresholdBin, thresholdVal, split.Gain, split.LeftOutput, split.RightOutput)

	l.partition.Split(bestLeaf, feat.BinData(), split.ThresholdBin, right)
	l.leafActive[right] = true

	if l.hasOrderedBin {
		leftRows := l.partition.LeafRows(bestLeaf)
		l.workspace.markLeft(leftRows)
		for _, ob := range l.orderedBins {
			if ob == nil {
				continue
			}
			ob.Split(bestLeaf, right, l.workspace.isInLeft)
		}
	}

	if split.LeftCount <= split.RightCount {
		l.smaller.InitFromSums(bestLeaf, int(split.LeftCount), split.LeftSumG, split.LeftSumH)
		l.larger.InitFromSums(right, int(split.RightCount), split.RightSumG, split.RightSumH)
	} else {
		l.larger.InitFromSums(bestLeaf, int(split.LeftCount), split.LeftSumG, split.LeftSumH)
		l.smaller.InitFromSums(right, int(split.RightCount), split.RightSumG, split.RightSumH)
	}

	return bestLeaf, right
}
