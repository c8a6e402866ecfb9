// Package bin implements BinMapper (C1): selection of bin boundaries from a
// sampled set of real feature values, and the real->bin mapping those
// boundaries induce, with a fixed-size serialization so every feature's
// mapper can be carried as an equal-sized record (needed by the distributed
// bin-mapper allgather).
package bin

import (
	"encoding/binary"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Mapper maps real values to bounded bin indices. Boundaries are the upper
// inclusive edge of each bin; bin b covers (boundary[b-1], boundary[b]].
type Mapper struct {
	boundaries []float64
	// hasZero records whether value 0.0 appeared among the sampled values
	// (see HasZero).
	hasZero bool
}

// FindBin selects up to maxBin-1 cut points from sampleValues using
// quantile-weighted selection: each candidate edge is the empirical quantile
// at i/maxBin (via gonum's stat.Quantile over the sorted sample), snapped to
// the midpoint between the two distinct values it falls between, producing
// approximately-equal-frequency bins that still respect natural value gaps.
// The last bin always extends to +Inf so every real value maps somewhere.
func FindBin(sampleValues []float64, maxBin int) *Mapper {
	if maxBin < 1 {
		maxBin = 1
	}
	if len(sampleValues) == 0 {
		return &Mapper{boundaries: []float64{math.Inf(1)}}
	}

	values := make([]float64, len(sampleValues))
	copy(values, sampleValues)
	sort.Float64s(values)

	hasZero := false
	for _, v := range values {
		if v == 0 {
			hasZero = true
			break
		}
	}

	distinct, _ := distinctWithCounts(values)
	if len(distinct) <= 1 {
		// All sample values equal: single trivial bin, upper edge is that value.
		return &Mapper{boundaries: []float64{distinct[0]}, hasZero: hasZero}
	}

	var boundaries []float64
	for i := 1; i < maxBin; i++ {
		p := float64(i) / float64(maxBin)
		edge := stat.Quantile(p, stat.Empirical, values, nil)
		idx := sort.SearchFloat64s(distinct, edge)
		if idx <= 0 {
			idx = 1
		}
		if idx >= len(distinct) {
			continue
		}
		b := midpoint(distinct[idx-1], distinct[idx])
		if len(boundaries) > 0 && boundaries[len(boundaries)-1] >= b {
			continue
		}
		boundaries = append(boundaries, b)
		if len(boundaries) == maxBin-1 {
			break
		}
	}
	// The final bin always catches everything above the last boundary.
	boundaries = append(boundaries, math.Inf(1))
	return &Mapper{boundaries: boundaries, hasZero: hasZero}
}

func midpoint(a, b float64) float64 {
	return (a + b) / 2
}

func distinctWithCounts(sorted []float64) ([]float64, []int) {
	var values []float64
	var counts []int
	for _, v := range sorted {
		if len(values) > 0 && values[len(values)-1] == v {
			counts[len(counts)-1]++
			continue
		}
		values = append(values, v)
		counts = append(counts, 1)
	}
	return values, counts
}

// Bin maps x to its bin index via binary search over the boundaries.
func (m *Mapper) Bin(x float64) int {
	// boundaries[b] is the upper inclusive edge of bin b; find the first
	// boundary >= x.
	lo, hi := 0, len(m.boundaries)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if x <= m.boundaries[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// NumBin returns the number of bins, always <= the max_bin FindBin was called with.
func (m *Mapper) NumBin() int { return len(m.boundaries) }

// IsTrivial reports whether every sampled value fell into a single bin.
func (m *Mapper) IsTrivial() bool { return len(m.boundaries) <= 1 }

// BinToValue returns bin b's representative value (its upper boundary).
func (m *Mapper) BinToValue(b int) float64 {
	if b < 0 {
		b = 0
	}
	if b >= len(m.boundaries) {
		b = len(m.boundaries) - 1
	}
	return m.boundaries[b]
}

// HasZero reports whether zero appeared among the sampled values. FindBin
// places cut points by quantile only: zero is not given a bin of its own,
// and it falls in bin 0 only when no sampled value is below the first cut.
func (m *Mapper) HasZero() bool { return m.hasZero }

// SizeForSpecificBin returns the fixed byte size of a serialized mapper
// built with the given max_bin, independent of the actual feature content -
// this is what lets every feature be carried as an equal-sized allgather
// record.
func (m *Mapper) SizeForSpecificBin(maxBin int) int {
	// 4 bytes for the actual bin count + maxBin float64 boundary slots +
	// 1 byte for hasZero.
	return 4 + maxBin*8 + 1
}

// CopyTo serializes m into buf, which must be at least
// SizeForSpecificBin(maxBin) bytes for the maxBin this mapper was built with.
func (m *Mapper) CopyTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(m.boundaries)))
	off := 4
	for _, b := range m.boundaries {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(b))
		off += 8
	}
	// Pad any unused boundary slots with +Inf so CopyFrom can still compute
	// NumBin from the explicit count prefix.
	for i := len(m.boundaries); i*8+4 < len(buf)-1; i++ {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(math.Inf(1)))
		off += 8
	}
	if m.hasZero {
		buf[len(buf)-1] = 1
	} else {
		buf[len(buf)-1] = 0
	}
}

// CopyFrom deserializes m from a buffer written by CopyTo.
func (m *Mapper) CopyFrom(buf []byte) {
	count := int(binary.LittleEndian.Uint32(buf[0:4]))
	m.boundaries = make([]float64, count)
	off := 4
	for i := 0; i < count; i++ {
		m.boundaries[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	m.hasZero = buf[len(buf)-1] != 0
}
