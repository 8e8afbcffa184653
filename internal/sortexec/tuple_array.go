package sortexec

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/memory"
	"github.com/scidb-go/arraydb/internal/stringutil"
)

// TupleArray is one in-memory sort run: tuples accumulate until memLimit
// (tracked via a memory.Tracker) is reached, at which point it is sorted
// in place and handed to the scheduler as a completed run (§4.6).
//
// Grounded on util/chunk/row_container.go's SortedRowContainer: tuples
// play the role of RowPtrs, and InitPointersAndSort's in-place sort.Slice
// call is reused verbatim here, generalized from chunk.Row to Tuple.
type TupleArray struct {
	mu         sync.Mutex
	tuples     []Tuple
	nAttrs     int
	cmp        TupleComparator
	memTracker *memory.Tracker
	memLimit   int64
	full       int32 // atomic; flipped by the memTracker's SpillOnExceed action
}

// NewTupleArray creates an empty run bounded by memLimit bytes, attached
// to parent for tree-wide accounting (§5). The run's memTracker carries a
// SpillOnExceed action (mirrors chunk.SortAndSpillDiskAction's registration
// in executor/sort.go's fetchRowChunks) so crossing memLimit seals the run
// instead of growing it unbounded.
func NewTupleArray(nAttrs int, cmp TupleComparator, memLimit int64, parent *memory.Tracker) *TupleArray {
	ta := &TupleArray{
		nAttrs:   nAttrs,
		cmp:      cmp,
		memLimit: memLimit,
	}
	ta.memTracker = memory.NewTracker(stringutil.StringerStr("tupleArray"), memLimit)
	ta.memTracker.AttachTo(parent)
	ta.memTracker.FallbackOldAndSetNewAction(memory.NewSpillOnExceed(ta.spill))
	return ta
}

// spill is the run's SpillOnExceed callback: it marks the run full so the
// partition scheduler seals it into a completed, sorted run rather than
// accepting further tuples (§4.6 step 1). The sealed run is sorted and kept
// in memory; no disk I/O takes place.
func (ta *TupleArray) spill() error {
	atomic.StoreInt32(&ta.full, 1)
	return nil
}

// Add appends t, consuming its estimated footprint against memTracker. It
// returns a ClassResource/CodeResourceBusy "tuple array is full" error once
// the run's memLimit has been reached; the caller
// (the partition job) should then sort, seal, and start a new run (§4.6
// step 1).
func (ta *TupleArray) Add(t Tuple) error {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	if atomic.LoadInt32(&ta.full) != 0 {
		return arrerrors.New(arrerrors.ClassResource, arrerrors.CodeResourceBusy, "tuple array is full")
	}
	ta.tuples = append(ta.tuples, t)
	ta.memTracker.Consume(estimatedTupleSize(ta.nAttrs))
	return nil
}

// Full reports whether this run has reached memLimit.
func (ta *TupleArray) Full() bool {
	return atomic.LoadInt32(&ta.full) != 0
}

// NumTuples returns the number of tuples accumulated so far.
func (ta *TupleArray) NumTuples() int {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	return len(ta.tuples)
}

// Sort sorts the accumulated tuples in place using Go's pattern-defeating
// quicksort (sort.Slice), the idiomatic stand-in for the introspective
// quicksort the original run-sort step specifies.
func (ta *TupleArray) Sort() {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	sort.Slice(ta.tuples, func(i, j int) bool { return ta.cmp.Less(ta.tuples[i], ta.tuples[j]) })
}

// At returns the tuple at idx.
func (ta *TupleArray) At(idx int) Tuple {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	return ta.tuples[idx]
}

// MemTracker exposes the run's tracker, e.g. so the scheduler can release
// it once the run is consumed by a merge.
func (ta *TupleArray) MemTracker() *memory.Tracker { return ta.memTracker }

// Release frees the run's tuples and its tracked memory.
func (ta *TupleArray) Release() {
	ta.mu.Lock()
	defer ta.mu.Unlock()
	ta.memTracker.Consume(-ta.memTracker.BytesConsumed())
	ta.tuples = nil
}
