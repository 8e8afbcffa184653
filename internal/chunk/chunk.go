// Package chunk implements the array/chunk/iterator abstraction (§4.1):
// cell-level and tile-level access over memory chunks, empty-bitmap
// semantics, overlaps, and the delegating/merge/concat composition arrays.
//
// Grounded on the teacher's util/chunk package shape (a Chunk type
// addressed by row/column position, plus List/RowContainer composition) —
// generalized here from row-columnar chunks to the spec's dense
// multi-dimensional chunks, since the teacher's own Chunk/List/Row types
// were not part of the retrieved file set and had to be reconstructed from
// their usage in row_container.go.
package chunk

import (
	"fmt"

	"github.com/scidb-go/arraydb/internal/coord"
)

// CellValue is one cell's value. A real implementation would use a typed
// column store per attribute type-id; this execution core is
// type-agnostic, so cells are carried as interface{} the way a boxed
// value would be at the iterator boundary.
type CellValue = interface{}

// Chunk is a dense rectangular block of one attribute (§3), addressed by
// (attrId, chunkCoords).
type Chunk struct {
	Addr coord.Address

	firstPos             coord.Coordinates
	lastPos              coord.Coordinates
	firstPosWithOverlap  coord.Coordinates
	lastPosWithOverlap   coord.Coordinates
	dims                 []coord.Dimension

	bitmap *EmptyBitmap
	cells  []CellValue // dense, row-major over [firstPosWithOverlap, lastPosWithOverlap]

	pinCount int32
}

// NewChunk allocates a dense chunk covering [firstPos, lastPos] plus
// overlap, for the given dimensions. All cells start out not-live.
func NewChunk(addr coord.Address, dims []coord.Dimension, firstPos coord.Coordinates) *Chunk {
	lastPos := coord.ChunkLastPos(firstPos, dims)
	firstOv := coord.ChunkFirstPosWithOverlap(firstPos, dims)
	lastOv := coord.ChunkLastPosWithOverlap(lastPos, dims)
	n := cellCount(firstOv, lastOv)
	return &Chunk{
		Addr:                addr,
		firstPos:            firstPos,
		lastPos:             lastPos,
		firstPosWithOverlap: firstOv,
		lastPosWithOverlap:  lastOv,
		dims:                dims,
		bitmap:              NewEmptyBitmap(n),
		cells:               make([]CellValue, n),
	}
}

func cellCount(first, last coord.Coordinates) int {
	n := 1
	for i := range first {
		extent := last[i] - first[i] + 1
		if extent <= 0 {
			return 0
		}
		n *= int(extent)
	}
	return n
}

// FirstPos returns the chunk's first aligned position (§3).
func (c *Chunk) FirstPos() coord.Coordinates { return c.firstPos }

// LastPos returns min(firstPos+chunkInterval-1, endMax) componentwise (§3).
func (c *Chunk) LastPos() coord.Coordinates { return c.lastPos }

// FirstPosWithOverlap returns max(startMin, firstPos-overlap) (§3).
func (c *Chunk) FirstPosWithOverlap() coord.Coordinates { return c.firstPosWithOverlap }

// LastPosWithOverlap returns the overlap-extended last position (§3).
func (c *Chunk) LastPosWithOverlap() coord.Coordinates { return c.lastPosWithOverlap }

// logicalIndex maps an absolute position (within the overlapped extent)
// to a dense row-major offset into c.cells.
func (c *Chunk) logicalIndex(pos coord.Coordinates) (int, bool) {
	idx := 0
	for i := range pos {
		extent := int(c.lastPosWithOverlap[i] - c.firstPosWithOverlap[i] + 1)
		off := int(pos[i] - c.firstPosWithOverlap[i])
		if off < 0 || off >= extent || extent <= 0 {
			return 0, false
		}
		idx = idx*extent + off
	}
	return idx, true
}

// positionOf is the inverse of logicalIndex, used by iterators to report
// getPosition() from a dense offset.
func (c *Chunk) positionOf(idx int) coord.Coordinates {
	ndim := len(c.firstPosWithOverlap)
	extents := make([]int, ndim)
	for i := range extents {
		extents[i] = int(c.lastPosWithOverlap[i] - c.firstPosWithOverlap[i] + 1)
	}
	out := make(coord.Coordinates, ndim)
	rem := idx
	for i := ndim - 1; i >= 0; i-- {
		if extents[i] <= 0 {
			out[i] = c.firstPosWithOverlap[i]
			continue
		}
		out[i] = c.firstPosWithOverlap[i] + int64(rem%extents[i])
		rem /= extents[i]
	}
	return out
}

// Get reads the cell at pos; ok is false if pos is outside the chunk or
// not live.
func (c *Chunk) Get(pos coord.Coordinates) (v CellValue, ok bool) {
	idx, in := c.logicalIndex(pos)
	if !in || !c.bitmap.IsSet(idx) {
		return nil, false
	}
	return c.cells[idx], true
}

// Set writes v at pos and marks it live. Returns false if pos falls
// outside the chunk's overlapped extent (a system error at the caller).
func (c *Chunk) Set(pos coord.Coordinates, v CellValue) bool {
	idx, in := c.logicalIndex(pos)
	if !in {
		return false
	}
	c.cells[idx] = v
	c.bitmap.Set(idx)
	return true
}

// Unset clears the live bit at pos without touching the stored value
// (cheap "logical delete").
func (c *Chunk) Unset(pos coord.Coordinates) {
	if idx, in := c.logicalIndex(pos); in {
		c.bitmap.Clear(idx)
	}
}

// LiveCount returns the number of live cells, used by §8's
// union/cardinality invariants on chunk merges.
func (c *Chunk) LiveCount() int { return c.bitmap.Count() }

// NumCells returns the dense cell count backing this chunk, i.e. the
// valid range of indices for CellAt/SetCellAt/PositionAt.
func (c *Chunk) NumCells() int { return len(c.cells) }

// CellAt reads the cell at dense index idx, bypassing position math; used
// by destination-side chunk merges that walk a chunk cell-by-cell (§4.5).
func (c *Chunk) CellAt(idx int) (v CellValue, live bool) {
	return c.cells[idx], c.bitmap.IsSet(idx)
}

// SetCellAt writes v at dense index idx and marks it live.
func (c *Chunk) SetCellAt(idx int, v CellValue) {
	c.cells[idx] = v
	c.bitmap.Set(idx)
}

// PositionAt returns the absolute position of dense index idx.
func (c *Chunk) PositionAt(idx int) coord.Coordinates { return c.positionOf(idx) }

// Bitmap exposes the chunk's empty bitmap, e.g. so a real-attribute chunk
// can borrow a previously received bitmap-attribute chunk's bitmap (§4.5).
func (c *Chunk) Bitmap() *EmptyBitmap { return c.bitmap }

// SetBitmap overrides the chunk's empty bitmap wholesale — used when a
// chunk adopts the empty bitmap synthesized from a sibling bitmap-attribute
// chunk (§4.5's chunk-merge step 2).
func (c *Chunk) SetBitmap(b *EmptyBitmap) { c.bitmap = b }

// Pin increments the chunk's ref count (§3 lifecycle); the first pin would
// unlink the chunk from an LRU in the storage layer (internal/storage owns
// that; this just tracks the count for in-memory chunks).
func (c *Chunk) Pin() { c.pinCount++ }

// Unpin decrements the ref count. Destroying a chunk with a non-zero count
// is a bug that is logged, not thrown (§3) — callers are expected to check
// PinCount() before freeing and log via internal/logutil if non-zero.
func (c *Chunk) Unpin() {
	if c.pinCount > 0 {
		c.pinCount--
	}
}

// PinCount reports the current ref count.
func (c *Chunk) PinCount() int32 { return c.pinCount }

func (c *Chunk) String() string {
	return fmt.Sprintf("chunk%s[%s..%s]", c.Addr, c.firstPos, c.lastPos)
}
