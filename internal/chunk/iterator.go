package chunk

import (
	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/coord"
)

// AccessMode is the declared access capability of an array (§4.1).
// Ordered from least to most capable so that MinAccessMode (the function
// composed arrays use to report "the minimum of their inputs") is a plain
// numeric min.
type AccessMode int

const (
	SinglePass AccessMode = iota
	MultiPass
	Random
)

// MinAccessMode returns the least capable of the given modes — the access
// mode a composed array must declare when it wraps several inputs (§4.1).
func MinAccessMode(modes ...AccessMode) AccessMode {
	if len(modes) == 0 {
		return Random
	}
	min := modes[0]
	for _, m := range modes[1:] {
		if m < min {
			min = m
		}
	}
	return min
}

// IterMode is the bitmask of ChunkIterator iteration modes (§4.1).
type IterMode uint32

const (
	IgnoreEmptyCells IterMode = 1 << iota
	IgnoreDefaultValues
	IgnoreNullValues
	IgnoreOverlaps
	AppendChunk
	AppendEmptyBitmap
	NoEmptyCheck
	SequentialWrite
	SparseChunk
	TileMode
	IntendedTileMode
)

// Has reports whether flag is set in m.
func (m IterMode) Has(flag IterMode) bool { return m&flag != 0 }

// ArrayIterator walks an array chunk-at-a-time (§4.1). Chunk order along
// Next is row-major on chunk coordinates.
type ArrayIterator interface {
	End() bool
	Next() bool
	Position() coord.Coordinates
	GetChunk() (*Chunk, error)
	// SetPosition attempts to reposition to the chunk containing coords;
	// returns false if the array's access mode does not support it (§4.1).
	SetPosition(coords coord.Coordinates) bool
	Reset()
}

// ChunkIterator walks one chunk cell-at-a-time (§4.1).
type ChunkIterator interface {
	End() bool
	Next() bool
	Position() coord.Coordinates
	GetItem() (CellValue, error)
	IsEmpty() bool
	WriteItem(v CellValue) error
	Flush() error
	SetPosition(coords coord.Coordinates) bool
	// GetData returns a tile of up to maxValues live values starting at
	// logicalStart, aligned with the empty bitmap (TILE_MODE, §4.1).
	// Returns -1 on end-of-chunk or a hole with no more live data.
	GetData(logicalStart, maxValues int, outTileData []CellValue, outTileCoords []coord.Coordinates) int
}

// memChunkIterator is the concrete ChunkIterator over a dense Chunk.
type memChunkIterator struct {
	c       *Chunk
	mode    IterMode
	pos     int // dense logical index into c.cells
	writing bool
}

// NewChunkIterator opens a cell-at-a-time iterator over c. write=true opens
// it for writing (WriteItem is only valid then).
func NewChunkIterator(c *Chunk, mode IterMode, write bool) ChunkIterator {
	c.Pin()
	it := &memChunkIterator{c: c, mode: mode, writing: write}
	if write && !mode.Has(SequentialWrite) {
		it.pos = 0
	}
	if !write {
		it.pos = it.firstLivePos(0)
	}
	return it
}

func (it *memChunkIterator) firstLivePos(from int) int {
	if it.mode.Has(IgnoreEmptyCells) || !it.writing {
		if p := it.c.bitmap.NextSet(from); p >= 0 {
			return p
		}
		return len(it.c.cells)
	}
	return from
}

func (it *memChunkIterator) End() bool {
	return it.pos >= len(it.c.cells)
}

func (it *memChunkIterator) Next() bool {
	if it.End() {
		return false
	}
	next := it.pos + 1
	if !it.writing {
		next = it.firstLivePos(next)
	}
	it.pos = next
	return !it.End()
}

func (it *memChunkIterator) Position() coord.Coordinates {
	return it.c.positionOf(it.pos)
}

func (it *memChunkIterator) GetItem() (CellValue, error) {
	if it.End() {
		return nil, arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeSetPositionFailed, "getItem past end of chunk iterator")
	}
	return it.c.cells[it.pos], nil
}

func (it *memChunkIterator) IsEmpty() bool {
	if it.End() {
		return true
	}
	return !it.c.bitmap.IsSet(it.pos)
}

func (it *memChunkIterator) WriteItem(v CellValue) error {
	if !it.writing {
		return arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeSetPositionFailed, "writeItem on a read-only chunk iterator")
	}
	if it.End() {
		return arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeSetPositionFailed, "writeItem past end of chunk")
	}
	it.c.cells[it.pos] = v
	it.c.bitmap.Set(it.pos)
	return nil
}

func (it *memChunkIterator) Flush() error {
	it.c.Unpin()
	return nil
}

func (it *memChunkIterator) SetPosition(coords coord.Coordinates) bool {
	idx, ok := it.c.logicalIndex(coords)
	if !ok {
		return false
	}
	it.pos = idx
	return true
}

// GetData implements TILE_MODE (§4.1): returns a tile aligned with the
// empty bitmap starting at logicalStart, -1 at end-of-chunk/hole.
func (it *memChunkIterator) GetData(logicalStart, maxValues int, outTileData []CellValue, outTileCoords []coord.Coordinates) int {
	if !it.mode.Has(TileMode) && !it.mode.Has(IntendedTileMode) {
		return -1
	}
	pos := it.c.bitmap.NextSet(logicalStart)
	if pos < 0 {
		return -1
	}
	n := 0
	for n < maxValues && pos >= 0 {
		outTileData[n] = it.c.cells[pos]
		outTileCoords[n] = it.c.positionOf(pos)
		n++
		pos = it.c.bitmap.NextSet(pos + 1)
	}
	if n == 0 {
		return -1
	}
	return n
}
