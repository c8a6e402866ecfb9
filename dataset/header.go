package dataset

import (
	"bufio"
	"encoding/binary"
	"io"

	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
)

// Header is the fixed-layout prefix of a persisted pre-binned dataset, per
// the binary dataset layout named in the spec and grounded on
// LightGBM's dataset.cpp SaveBinaryFileToFile header fields.
// Only the header (not metadata or per-feature blocks) is owned by this
// module; full dataset (de)serialization stays with the loader collaborator.
type Header struct {
	GlobalNumData    uint64
	IsEnableSparse   bool
	MaxBin           int32
	NumData          int32
	NumFeatures      int32
	NumTotalFeatures int32
	// UsedFeatureMap has length NumTotalFeatures; -1 marks a dropped (trivial) feature.
	UsedFeatureMap []int32
	// FeatureNames has length NumTotalFeatures.
	FeatureNames []string
}

// WriteHeader encodes h to w in the field order the binary dataset layout
// specifies: a u64 byte-length prefix, then the header fields themselves.
func WriteHeader(w io.Writer, h Header) error {
	var buf []byte
	buf = appendU64(buf, h.GlobalNumData)
	buf = appendBool(buf, h.IsEnableSparse)
	buf = appendI32(buf, h.MaxBin)
	buf = appendI32(buf, h.NumData)
	buf = appendI32(buf, h.NumFeatures)
	buf = appendI32(buf, h.NumTotalFeatures)
	buf = appendU64(buf, uint64(len(h.UsedFeatureMap)))
	for _, v := range h.UsedFeatureMap {
		buf = appendI32(buf, v)
	}
	for _, name := range h.FeatureNames {
		buf = appendI32(buf, int32(len(name)))
		buf = append(buf, name...)
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, uint64(len(buf))); err != nil {
		return gbdterrors.NewIOError("WriteHeader", "writing size prefix", err)
	}
	if _, err := bw.Write(buf); err != nil {
		return gbdterrors.NewIOError("WriteHeader", "writing header body", err)
	}
	return bw.Flush()
}

// ReadHeader decodes a Header written by WriteHeader.
func ReadHeader(r io.Reader) (Header, error) {
	var size uint64
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return Header{}, gbdterrors.NewIOError("ReadHeader", "reading size prefix", err)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, gbdterrors.NewIOError("ReadHeader", "reading header body", err)
	}

	var h Header
	var off int
	h.GlobalNumData, off = readU64(buf, off)
	h.IsEnableSparse, off = readBool(buf, off)
	h.MaxBin, off = readI32(buf, off)
	h.NumData, off = readI32(buf, off)
	h.NumFeatures, off = readI32(buf, off)
	h.NumTotalFeatures, off = readI32(buf, off)

	var mapLen uint64
	mapLen, off = readU64(buf, off)
	if mapLen != uint64(h.NumTotalFeatures) {
		return Header{}, gbdterrors.NewIOError("ReadHeader", "used_feature_map length does not match num_total_features", nil)
	}
	h.UsedFeatureMap = make([]int32, mapLen)
	for i := range h.UsedFeatureMap {
		h.UsedFeatureMap[i], off = readI32(buf, off)
	}

	h.FeatureNames = make([]string, h.NumTotalFeatures)
	for i := range h.FeatureNames {
		var nameLen int32
		nameLen, off = readI32(buf, off)
		if off+int(nameLen) > len(buf) {
			return Header{}, gbdterrors.NewIOError("ReadHeader", "feature name length overruns header", nil)
		}
		h.FeatureNames[i] = string(buf[off : off+int(nameLen)])
		off += int(nameLen)
	}
	return h, nil
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendI32(buf []byte, v int32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], uint32(v))
	return append(buf, tmp[:]...)
}

func appendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

func readU64(buf []byte, off int) (uint64, int) {
	return binary.LittleEndian.Uint64(buf[off : off+8]), off + 8
}

func readI32(buf []byte, off int) (int32, int) {
	return int32(binary.LittleEndian.Uint32(buf[off : off+4])), off + 4
}

func readBool(buf []byte, off int) (bool, int) {
	return buf[off] != 0, off + 1
}
