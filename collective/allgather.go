package collective

import gbdterrors "github.com/flowforge/gbdt/pkg/errors"

// LocalGroup is an in-process stand-in for a set of collective peers: it
// lets tests exercise the Allgather contract without any socket I/O, which
// is out of scope for this module.
// A real distributed boosting loop would instead route Allgather over the
// connections Linkers.Construct establishes.
type LocalGroup struct {
	size int
}

// NewLocalGroup returns a group of size in-process peers.
func NewLocalGroup(size int) *LocalGroup {
	return &LocalGroup{size: size}
}

// Size reports the number of peers in the group.
func (g *LocalGroup) Size() int { return g.size }

// Allgather implements the contract spec'd for the distributed bin-mapper
// sync: rank r contributes lengths[r] bytes of inputs[r] at starts[r] in a
// shared output layout; every rank's inputs[r] must equal
// inputs[r][:lengths[r]] for the corresponding slice. Allgather returns the
// single concatenated output buffer every peer would hold identically.
//
// starts and lengths describe the layout in global-buffer terms (as
// LightGBM's bin-mapper sync computes them from SizeForSpecificBin(max_bin)
// records); inputs holds each rank's local contribution.
func Allgather(inputs [][]byte, totalSize int, starts, lengths []int) ([]byte, error) {
	n := len(inputs)
	if len(starts) != n || len(lengths) != n {
		return nil, gbdterrors.NewInvariantError("Allgather", "starts/lengths must have one entry per rank")
	}

	out := make([]byte, totalSize)
	for r := 0; r < n; r++ {
		if lengths[r] != len(inputs[r]) {
			return nil, gbdterrors.NewInvariantError("Allgather", "rank's input length doesn't match its declared length")
		}
		if starts[r]+lengths[r] > totalSize {
			return nil, gbdterrors.NewInvariantError("Allgather", "rank's slice overruns the output buffer")
		}
		copy(out[starts[r]:starts[r]+lengths[r]], inputs[r])
	}
	return out, nil
}

// AllgatherAll runs Allgather and returns the same output buffer once per
// rank, modeling that every peer in a real collective ends up holding an
// identical copy.
func (g *LocalGroup) AllgatherAll(inputs [][]byte, totalSize int, starts, lengths []int) ([][]byte, error) {
	if len(inputs) != g.size {
		return nil, gbdterrors.NewInvariantError("LocalGroup.AllgatherAll", "input count must equal group size")
	}
	merged, err := Allgather(inputs, totalSize, starts, lengths)
	if err != nil {
		return nil, err
	}
	perRank := make([][]byte, g.size)
	for r := 0; r < g.size; r++ {
		perRank[r] = merged
	}
	return perRank, nil
}
