package chunk

import (
	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/coord"
)

// MergeArray overlays N inputs with the same schema (§4.1): at any
// position, the first input that has a non-empty cell wins. Iterators
// advance in lock-step at chunk granularity; within a chunk, cells are
// re-merged input-by-input (first live value wins).
//
// Open Question 2 (§9) is resolved here as: End() returns true as soon as
// any contributing input is exhausted — the merge does not try to keep
// producing a winner from a shorter-but-still-live stream once any input
// it was comparing against has run out. This is a known footgun the
// original leaves ambiguous; callers that need every input to run to its
// own exhaustion independently should not rely on this composition.
type MergeArray struct {
	DelegateArray
	inputs []Array
}

// NewMergeArray builds the overlay. The first input wins ties; all inputs
// must share the same ArrayDesc shape (not re-validated here, the planner
// is responsible per §4.7's requiresRedistribute contract).
func NewMergeArray(inputs []Array) *MergeArray {
	if len(inputs) == 0 {
		panic("chunk: NewMergeArray requires at least one input")
	}
	return &MergeArray{DelegateArray: DelegateArray{Input: inputs[0]}, inputs: inputs}
}

func (m *MergeArray) AccessMode() AccessMode {
	modes := make([]AccessMode, len(m.inputs))
	for i, in := range m.inputs {
		modes[i] = in.AccessMode()
	}
	return MinAccessMode(modes...)
}

func (m *MergeArray) ConstIterator(attrID int) (ArrayIterator, error) {
	iters := make([]ArrayIterator, len(m.inputs))
	for i, in := range m.inputs {
		it, err := in.ConstIterator(attrID)
		if err != nil {
			return nil, err
		}
		iters[i] = it
	}
	mi := &mergeArrayIter{inputs: iters}
	mi.advanceToMin(true)
	return mi, nil
}

type mergeArrayIter struct {
	inputs   []ArrayIterator
	winners  []int // indices into inputs sharing the current minimum position
	pos      coord.Coordinates
	started  bool
	exhausted bool
}

func (it *mergeArrayIter) advanceToMin(first bool) {
	if !first {
		for _, idx := range it.winners {
			it.inputs[idx].Next()
		}
	}
	// Open Question 2: as soon as any input is permanently exhausted, the
	// merge stops (End() below reflects this via it.exhausted).
	var min coord.Coordinates
	it.winners = it.winners[:0]
	any := false
	for i, in := range it.inputs {
		if in.End() {
			it.exhausted = true
			continue
		}
		any = true
		p := in.Position()
		if min == nil || coord.Less(p, min) {
			min = p
			it.winners = it.winners[:0]
			it.winners = append(it.winners, i)
		} else if coord.Equal(p, min) {
			it.winners = append(it.winners, i)
		}
	}
	if !any {
		it.exhausted = true
	}
	it.pos = min
}

func (it *mergeArrayIter) End() bool { return it.exhausted || len(it.winners) == 0 }

func (it *mergeArrayIter) Next() bool {
	if it.End() {
		return false
	}
	it.advanceToMin(false)
	return !it.End()
}

func (it *mergeArrayIter) Position() coord.Coordinates { return it.pos }

func (it *mergeArrayIter) GetChunk() (*Chunk, error) {
	if it.End() {
		return nil, arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeSetPositionFailed, "getChunk past end of merge iterator")
	}
	var chunks []*Chunk
	for _, idx := range it.winners {
		c, err := it.inputs[idx].GetChunk()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return mergeChunksFirstWins(chunks), nil
}

func (it *mergeArrayIter) SetPosition(coords coord.Coordinates) bool {
	ok := true
	for _, in := range it.inputs {
		if !in.SetPosition(coords) {
			ok = false
		}
	}
	if ok {
		it.advanceToMin(true)
	}
	return ok
}

func (it *mergeArrayIter) Reset() {
	for _, in := range it.inputs {
		in.Reset()
	}
	it.exhausted = false
	it.winners = nil
}

// mergeChunksFirstWins implements the overwrite-merge cell rule: the first
// chunk in priority order that has a live cell wins (§4.1, scenario 2 of
// §8). Chunks are assumed to share dimensions/shape (same address).
func mergeChunksFirstWins(chunks []*Chunk) *Chunk {
	base := chunks[0]
	out := &Chunk{
		Addr:                base.Addr,
		firstPos:            base.firstPos,
		lastPos:             base.lastPos,
		firstPosWithOverlap: base.firstPosWithOverlap,
		lastPosWithOverlap:  base.lastPosWithOverlap,
		dims:                base.dims,
		bitmap:              NewEmptyBitmap(len(base.cells)),
		cells:               make([]CellValue, len(base.cells)),
	}
	// Later (lower-priority) chunks first, so the first chunk's writes
	// land last and win, matching "the first input that has a non-empty
	// cell wins".
	for i := len(chunks) - 1; i >= 0; i-- {
		c := chunks[i]
		for idx := 0; idx < len(c.cells); idx++ {
			if c.bitmap.IsSet(idx) {
				out.cells[idx] = c.cells[idx]
				out.bitmap.Set(idx)
			}
		}
	}
	return out
}
