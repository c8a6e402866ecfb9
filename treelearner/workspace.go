package treelearner

// Workspace groups the per-tree scratch buffers (the isInLeft mask and the
// ordered gradient/hessian vectors) in one struct; the learner holds one
// Workspace, allocated in New and sized to num_data.
type Workspace struct {
	isInLeft []int8

	// gOrdSmaller/hOrdSmaller and gOrdLarger/hOrdLarger back the dense
	// histogram construction path's ordered gradient/hessian vectors,
	// reordered once per leaf per iteration (not once per feature) so every
	// dense feature's Construct call reuses the same pre-ordered slice
	// instead of re-copying g[row]/h[row] from scratch each time.
	gOrdSmaller, hOrdSmaller []float64
	gOrdLarger, hOrdLarger   []float64
}

func newWorkspace(numData int) *Workspace {
	return &Workspace{
		isInLeft:    make([]int8, numData),
		gOrdSmaller: make([]float64, numData),
		hOrdSmaller: make([]float64, numData),
		gOrdLarger:  make([]float64, numData),
		hOrdLarger:  make([]float64, numData),
	}
}

// markLeft sets isInLeft[row]=1 for every row currently in leftRows and 0
// for everything else, sized to numData.
func (w *Workspace) markLeft(leftRows []int) {
	for i := range w.isInLeft {
		w.isInLeft[i] = 0
	}
	for _, r := range leftRows {
		w.isInLeft[r] = 1
	}
}

// reorderSmaller fills the smaller-leaf scratch buffer with g[rows[k]],
// h[rows[k]] for k, row in rows and returns the active-length slices.
func (w *Workspace) reorderSmaller(rows []int, g, h []float64) (gOrd, hOrd []float64) {
	for k, r := range rows {
		w.gOrdSmaller[k] = g[r]
		w.hOrdSmaller[k] = h[r]
	}
	return w.gOrdSmaller[:len(rows)], w.hOrdSmaller[:len(rows)]
}

// reorderLarger is reorderSmaller's counterpart for the larger leaf, backed
// by its own buffer so the two can be computed independently per iteration.
func (w *Workspace) reorderLarger(rows []int, g, h []float64) (gOrd, hOrd []float64) {
	for k, r := range rows {
		w.gOrdLarger[k] = g[r]
		w.hOrdLarger[k] = h[r]
	}
	return w.gOrdLarger[:len(rows)], w.hOrdLarger[:len(rows)]
}
