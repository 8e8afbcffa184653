package chunk

import (
	"github.com/scidb-go/arraydb/internal/coord"
)

// ConcatArray concatenates two inputs along dimension 0 (§4.1). When the
// seam is chunk-aligned (both inputs' chunk interval and overlap on
// dimension 0 agree, and the first input's extent on dimension 0 is a
// multiple of the chunk interval) the simpleAppend fast path applies:
// every second-input chunk is relabeled to a shifted address and returned
// unchanged. Otherwise a straddling chunk is synthesized cell-by-cell from
// both inputs (the "proxy chunk" of §4.1, built here directly rather than
// via an interleaving iterator pair, since materializing it once is
// simpler and no less correct for this execution core).
type ConcatArray struct {
	DelegateArray
	left, right Array
	desc        coord.ArrayDesc
	shift       int64 // right's dimension-0 positions are shifted by this much
	lastLeft    int64 // left's last dimension-0 position before the seam
	aligned     bool
}

// NewConcatArray builds the concatenation of left then right along
// dimension 0. The result's dimension-0 bounds cover both inputs' combined
// extent (per PhysicalConcat::getOutputBoundaries in
// original_source/ConcatArray.cpp's sibling file), since the straddling
// proxy path needs accurate EndMax to avoid clamping positions that belong
// to the shifted right-hand side.
func NewConcatArray(left, right Array) *ConcatArray {
	ld := left.Desc()
	dim0 := ld.Dimensions[0]
	rdim0 := right.Desc().Dimensions[0]
	shift := dim0.CurrEnd - dim0.CurrStart + 1
	aligned := shift%dim0.ChunkInterval == 0 &&
		rdim0.ChunkInterval == dim0.ChunkInterval && rdim0.ChunkOverlap == dim0.ChunkOverlap

	desc := ld
	desc.Dimensions = append([]coord.Dimension(nil), ld.Dimensions...)
	// shift already equals the left side's full used extent, so the
	// combined bound is shift plus the right side's own relative extent —
	// adding dim0.EndMax on top would double-count the left side.
	desc.Dimensions[0].EndMax = shift + (rdim0.CurrEnd - rdim0.CurrStart)
	desc.Dimensions[0].CurrEnd = desc.Dimensions[0].EndMax

	return &ConcatArray{
		DelegateArray: DelegateArray{Input: left},
		left:          left,
		right:         right,
		desc:          desc,
		shift:         shift,
		lastLeft:      dim0.CurrEnd,
		aligned:       aligned,
	}
}

func (c *ConcatArray) Desc() coord.ArrayDesc { return c.desc }

func (c *ConcatArray) AccessMode() AccessMode {
	return MinAccessMode(c.left.AccessMode(), c.right.AccessMode())
}

func (c *ConcatArray) ConstIterator(attrID int) (ArrayIterator, error) {
	li, err := c.left.ConstIterator(attrID)
	if err != nil {
		return nil, err
	}
	ri, err := c.right.ConstIterator(attrID)
	if err != nil {
		return nil, err
	}
	dims := c.desc.Dimensions
	return &concatArrayIter{
		left: li, right: ri,
		leftLookup: c.left, rightLookup: c.right,
		attrID:    attrID,
		shift:     c.shift,
		aligned:   c.aligned,
		dims:      dims,
		rightDims: c.right.Desc().Dimensions,
		lastLeft:  c.lastLeft,
		onLeft:    true,
	}, nil
}

type concatArrayIter struct {
	left, right ArrayIterator
	leftLookup  Array // for random GetChunk lookups while synthesizing a proxy chunk
	rightLookup Array
	attrID      int
	shift       int64
	aligned     bool
	dims        []coord.Dimension
	rightDims   []coord.Dimension
	lastLeft    int64
	onLeft      bool
}

func (it *concatArrayIter) End() bool {
	if it.onLeft {
		return it.left.End() && it.right.End()
	}
	return it.right.End()
}

func (it *concatArrayIter) Next() bool {
	if it.onLeft {
		if it.left.Next() {
			return true
		}
		it.onLeft = false
		return !it.right.End()
	}
	return it.right.Next()
}

func (it *concatArrayIter) Position() coord.Coordinates {
	if it.onLeft {
		return it.left.Position()
	}
	return it.shiftPos(it.right.Position())
}

func (it *concatArrayIter) shiftPos(p coord.Coordinates) coord.Coordinates {
	out := p.Clone()
	out[0] += it.shift
	return out
}

func (it *concatArrayIter) GetChunk() (*Chunk, error) {
	if it.onLeft {
		return it.left.GetChunk()
	}
	rc, err := it.right.GetChunk()
	if err != nil {
		return nil, err
	}
	if it.aligned {
		return relabelChunk(rc, it.shift), nil
	}
	return it.synthesizeProxyChunk(rc)
}

func (it *concatArrayIter) SetPosition(coords coord.Coordinates) bool {
	if coords[0] < it.shift {
		it.onLeft = true
		return it.left.SetPosition(coords)
	}
	it.onLeft = false
	rc := coords.Clone()
	rc[0] -= it.shift
	return it.right.SetPosition(rc)
}

func (it *concatArrayIter) Reset() {
	it.left.Reset()
	it.right.Reset()
	it.onLeft = true
}

// relabelChunk is the simpleAppend fast path: the chunk's payload is
// reused untouched, only its address/position fields shift (§4.1, §8
// scenario 3).
func relabelChunk(c *Chunk, shift int64) *Chunk {
	out := *c
	out.firstPos = shiftCoord(c.firstPos, shift)
	out.lastPos = shiftCoord(c.lastPos, shift)
	out.firstPosWithOverlap = shiftCoord(c.firstPosWithOverlap, shift)
	out.lastPosWithOverlap = shiftCoord(c.lastPosWithOverlap, shift)
	out.Addr = coord.Address{AttrID: c.Addr.AttrID, ChunkCoord: out.firstPos}
	return &out
}

func shiftCoord(p coord.Coordinates, shift int64) coord.Coordinates {
	out := p.Clone()
	out[0] += shift
	return out
}

// synthesizeProxyChunk builds the non-aligned-seam proxy chunk (§4.1):
// since the output's chunk grid no longer coincides with either input's,
// every output chunk on dimension 0 is assembled cell by cell from
// whichever input owns that absolute position — left below lastLeft,
// shifted right above it — mirroring ConcatChunkIterator::operator++ and
// ConcatArrayIterator::setPosition in original_source/ConcatArray.cpp,
// which walk the destination chunk's grid position and re-resolve the
// owning input (and its chunk) on every step rather than relabeling a
// single source chunk.
func (it *concatArrayIter) synthesizeProxyChunk(rc *Chunk) (*Chunk, error) {
	destFirst := coord.AlignToChunk(it.shiftPos(rc.FirstPos()), it.dims)
	addr := coord.Address{AttrID: it.attrID, ChunkCoord: destFirst}
	dst := NewChunk(addr, it.dims, destFirst)

	leftLookup, err := it.leftLookup.ConstIterator(it.attrID)
	if err != nil {
		return nil, err
	}
	rightLookup, err := it.rightLookup.ConstIterator(it.attrID)
	if err != nil {
		return nil, err
	}

	var curLeft, curRight *Chunk
	var curLeftFirst, curRightFirst coord.Coordinates

	for idx := 0; idx < dst.NumCells(); idx++ {
		pos := dst.PositionAt(idx)
		if pos[0] < it.dims[0].StartMin || pos[0] > it.dims[0].EndMax {
			continue
		}
		if pos[0] <= it.lastLeft {
			chunkFirst := coord.AlignToChunk(pos, it.dims)
			if curLeft == nil || !coord.Equal(curLeftFirst, chunkFirst) {
				if !leftLookup.SetPosition(pos) {
					curLeft = nil
					continue
				}
				c, err := leftLookup.GetChunk()
				if err != nil {
					return nil, err
				}
				curLeft, curLeftFirst = c, chunkFirst
			}
			if v, ok := curLeft.Get(pos); ok {
				dst.SetCellAt(idx, v)
			}
			continue
		}
		srcPos := pos.Clone()
		srcPos[0] -= it.shift
		chunkFirst := coord.AlignToChunk(srcPos, it.rightDims)
		if curRight == nil || !coord.Equal(curRightFirst, chunkFirst) {
			if !rightLookup.SetPosition(srcPos) {
				curRight = nil
				continue
			}
			c, err := rightLookup.GetChunk()
			if err != nil {
				return nil, err
			}
			curRight, curRightFirst = c, chunkFirst
		}
		if v, ok := curRight.Get(srcPos); ok {
			dst.SetCellAt(idx, v)
		}
	}
	return dst, nil
}
