package sortexec

import "container/heap"

// runPointer is one run's current head tuple, the Tuple analogue of
// executor/sort.go's partitionPointer.
type runPointer struct {
	tuple    Tuple
	runIdx   int
	consumed int
}

// mergeHeap is multiWayMerge generalized from chunk.Row to Tuple: a
// container/heap over up to nStreams runs' current head tuples (§4.6 step
// 2: "at each step it evaluates the comparator on the head tuple of each
// stream, emits the minimum, and advances that stream").
type mergeHeap struct {
	cmp      TupleComparator
	elements []runPointer
}

func (h *mergeHeap) Less(i, j int) bool { return h.cmp.Less(h.elements[i].tuple, h.elements[j].tuple) }
func (h *mergeHeap) Len() int           { return len(h.elements) }
func (h *mergeHeap) Swap(i, j int)       { h.elements[i], h.elements[j] = h.elements[j], h.elements[i] }
func (h *mergeHeap) Push(x interface{})  {} // unused, elements seeded directly
func (h *mergeHeap) Pop() interface{} {
	h.elements = h.elements[:len(h.elements)-1]
	return nil
}

// MergeSortArray performs a k-way merge of up to nStreams sorted
// TupleArrays, yielding a single globally-sorted sequence one tuple at a
// time (§4.6).
type MergeSortArray struct {
	runs []*TupleArray
	h    *mergeHeap
}

// NewMergeSortArray seeds the heap from each run's first tuple.
func NewMergeSortArray(runs []*TupleArray, cmp TupleComparator) *MergeSortArray {
	m := &MergeSortArray{runs: runs, h: &mergeHeap{cmp: cmp}}
	for i, r := range runs {
		if r.NumTuples() == 0 {
			continue
		}
		m.h.elements = append(m.h.elements, runPointer{tuple: r.At(0), runIdx: i, consumed: 0})
	}
	heap.Init(m.h)
	return m
}

// Next returns the next tuple in global sorted order, or ok=false once
// every run is exhausted.
func (m *MergeSortArray) Next() (Tuple, bool) {
	if m.h.Len() == 0 {
		return Tuple{}, false
	}
	ptr := m.h.elements[0]
	out := ptr.tuple
	ptr.consumed++
	run := m.runs[ptr.runIdx]
	if ptr.consumed >= run.NumTuples() {
		heap.Remove(m.h, 0)
		return out, true
	}
	ptr.tuple = run.At(ptr.consumed)
	m.h.elements[0] = ptr
	heap.Fix(m.h, 0)
	return out, true
}

// Drain consumes every remaining tuple in order.
func (m *MergeSortArray) Drain() []Tuple {
	var out []Tuple
	for {
		t, ok := m.Next()
		if !ok {
			return out
		}
		out = append(out, t)
	}
}
