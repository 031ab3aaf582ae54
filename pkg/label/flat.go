package label

import (
	"encoding/binary"
	"fmt"
	"io"

	"road_index/pkg/graph"
)

// FlatCutIndex is the query-time form of a node's label. It is always passed
// by pointer: contracted nodes share their representative's label, and the
// dynamic maintenance mutates label slots in place through any sharer.
//
// Its serialized layout is a single contiguous buffer:
//
//	[uint64 pbv][uint16 distIndex[L+1] padded to 4][uint32 distances[M]][uint16 paths[M]]
//
// with L the cut level and M = distIndex[L].
type FlatCutIndex struct {
	pbv       PBV
	distIndex []uint16
	distances []Distance
	paths     []uint16
}

// NewFlatCutIndex flattens a build-time cut index.
func NewFlatCutIndex(ci *graph.CutIndex) *FlatCutIndex {
	if !ci.IsConsistent(false) {
		panic(fmt.Sprintf("inconsistent cut index: %+v", ci))
	}
	f := &FlatCutIndex{
		pbv:       PBVFrom(ci.Partition, ci.CutLevel),
		distIndex: make([]uint16, len(ci.DistIndex)),
		distances: make([]Distance, len(ci.Distances)),
		paths:     make([]uint16, len(ci.Paths)),
	}
	copy(f.distIndex, ci.DistIndex)
	copy(f.distances, ci.Distances)
	copy(f.paths, ci.Paths)
	return f
}

// PBV returns the packed partition bitvector.
func (f *FlatCutIndex) PBV() PBV { return f.pbv }

// Partition returns the node's decomposition path bits.
func (f *FlatCutIndex) Partition() uint64 { return f.pbv.Partition() }

// CutLevel returns the level at which the node became a cut vertex.
func (f *FlatCutIndex) CutLevel() uint16 { return f.pbv.CutLevel() }

// DistIndex returns the per-level exclusive end offsets.
func (f *FlatCutIndex) DistIndex() []uint16 { return f.distIndex }

// Distances returns the label distance slots. Mutable; shared by all nodes
// of one pendant tree.
func (f *FlatCutIndex) Distances() []Distance { return f.distances }

// Paths returns the label path-count slots. The high bit of each entry is
// reserved as the maintenance dirty flag.
func (f *FlatCutIndex) Paths() []uint16 { return f.paths }

// LabelCount returns the number of label slots.
func (f *FlatCutIndex) LabelCount() int { return int(f.distIndex[f.CutLevel()]) }

// CutSize returns the number of slots contributed by the given cut level.
func (f *FlatCutIndex) CutSize(cl uint16) int {
	if cl == 0 {
		return int(f.distIndex[0])
	}
	return int(f.distIndex[cl] - f.distIndex[cl-1])
}

// BottomCutSize returns the slot count of the node's own cut.
func (f *FlatCutIndex) BottomCutSize() int { return f.CutSize(f.CutLevel()) }

// offset returns the start offset of the given cut level's slots.
func (f *FlatCutIndex) offset(cl uint16) uint16 {
	if cl == 0 {
		return 0
	}
	return f.distIndex[cl-1]
}

// alignedTo4 pads a byte size to 4-byte alignment, matching the on-disk
// alignment of the distances region.
func alignedTo4(size int) int {
	if mod := size & 3; mod != 0 {
		return size + (4 - mod)
	}
	return size
}

// Size returns the serialized byte size of the label buffer.
func (f *FlatCutIndex) Size() int {
	m := f.LabelCount()
	return 8 + alignedTo4(2*len(f.distIndex)) + 4*m + 2*m
}

// appendTo serializes the label buffer.
func (f *FlatCutIndex) appendTo(buf []byte) []byte {
	buf = binary.LittleEndian.AppendUint64(buf, uint64(f.pbv))
	for _, di := range f.distIndex {
		buf = binary.LittleEndian.AppendUint16(buf, di)
	}
	for pad := alignedTo4(2*len(f.distIndex)) - 2*len(f.distIndex); pad > 0; pad-- {
		buf = append(buf, 0)
	}
	for _, d := range f.distances {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(d))
	}
	for _, p := range f.paths {
		buf = binary.LittleEndian.AppendUint16(buf, p)
	}
	return buf
}

// readFlatCutIndex parses one serialized label buffer.
func readFlatCutIndex(r io.Reader, dataSize uint64) (*FlatCutIndex, error) {
	if dataSize < 8 {
		return nil, fmt.Errorf("label buffer size %d too small", dataSize)
	}
	buf := make([]byte, dataSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("read label buffer: %w", err)
	}
	f := &FlatCutIndex{pbv: PBV(binary.LittleEndian.Uint64(buf))}
	levels := int(f.CutLevel()) + 1
	if alignedTo4(2*levels)+8 > len(buf) {
		return nil, fmt.Errorf("label buffer truncated: %d bytes for %d levels", len(buf), levels)
	}
	f.distIndex = make([]uint16, levels)
	for i := range f.distIndex {
		f.distIndex[i] = binary.LittleEndian.Uint16(buf[8+2*i:])
	}
	m := int(f.distIndex[levels-1])
	off := 8 + alignedTo4(2*levels)
	if off+6*m != int(dataSize) {
		return nil, fmt.Errorf("label buffer size %d does not match %d slots", dataSize, m)
	}
	f.distances = make([]Distance, m)
	for i := range f.distances {
		f.distances[i] = Distance(binary.LittleEndian.Uint32(buf[off+4*i:]))
	}
	off += 4 * m
	f.paths = make([]uint16, m)
	for i := range f.paths {
		f.paths[i] = binary.LittleEndian.Uint16(buf[off+2*i:])
	}
	return f, nil
}
