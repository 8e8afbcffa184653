// Package stream implements the pull-based per-attribute stream
// abstraction (§4.3) that sits between the wire layer (internal/sg) and
// the chunk/iterator model (internal/chunk): StreamArray adapts a
// NextChunk-style producer into a chunk.ArrayIterator, and
// MultiStreamArray merges N remote streams into one globally ordered
// local array by chunk position.
//
// Grounded on the teacher's multi-way merge (executor/sort.go's
// multiWayMerge over a container/heap) generalized from row comparison to
// chunk.Address comparison, and on util/chunk/row_container.go's
// "producer signals EOF by returning (nil, io.EOF)" pull convention.
package stream

import (
	"container/heap"
	"context"
	"errors"
	"io"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/coord"
)

// RetryException signals a transient pull failure the caller should retry
// after backing off (§4.4's control-flow exceptions, not user-visible
// errors). It is returned as a plain *RetryException error value; callers
// detect it with IsRetry (errors.As), not with errors.Is.
type RetryException struct{ Reason string }

func (e *RetryException) Error() string { return "retry: " + e.Reason }

// IsRetry reports whether err is (or wraps) a RetryException.
func IsRetry(err error) bool {
	var r *RetryException
	return errors.As(err, &r)
}

// Producer yields chunks one at a time in position order for a single
// attribute, pull-style (§4.3).
type Producer interface {
	// NextChunk blocks until the next chunk is available, ctx is
	// cancelled, or the stream is exhausted (io.EOF).
	NextChunk(ctx context.Context) (*chunk.Chunk, error)
}

// StreamArray adapts a Producer into a chunk.ArrayIterator, pulling ahead
// by one chunk so End()/Position() can answer without blocking on the next
// pull (§4.3).
type StreamArray struct {
	ctx     context.Context
	prod    Producer
	current *chunk.Chunk
	done    bool
	lastErr error
}

// NewStreamArray wraps prod for attribute-scoped pull iteration, pulling
// the first chunk immediately so the iterator is positioned on return, in
// keeping with this module's other ArrayIterators.
func NewStreamArray(ctx context.Context, prod Producer) *StreamArray {
	s := &StreamArray{ctx: ctx, prod: prod}
	_ = s.pullNext()
	return s
}

// pullNext advances to the next chunk. A RetryException leaves state
// unchanged (the producer is expected to be retried by the caller); any
// other error or io.EOF terminates the stream.
func (s *StreamArray) pullNext() error {
	c, err := s.prod.NextChunk(s.ctx)
	if err == io.EOF {
		s.current = nil
		s.done = true
		return nil
	}
	if IsRetry(err) {
		s.lastErr = err
		return err
	}
	if err != nil {
		s.done = true
		s.lastErr = err
		return err
	}
	s.lastErr = nil
	s.current = c
	return nil
}

// LastErr returns the error from the most recent pull, if any (used by
// callers to detect RetryException and back off before calling Next again).
func (s *StreamArray) LastErr() error { return s.lastErr }

func (s *StreamArray) End() bool { return s.done }

func (s *StreamArray) Next() bool {
	if s.done {
		return false
	}
	_ = s.pullNext()
	return !s.done
}

func (s *StreamArray) Position() coord.Coordinates {
	if s.current == nil {
		return nil
	}
	return s.current.FirstPos()
}

func (s *StreamArray) GetChunk() (*chunk.Chunk, error) {
	if s.current == nil {
		return nil, arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeSetPositionFailed, "getChunk past end of stream")
	}
	return s.current, nil
}

func (s *StreamArray) SetPosition(coords coord.Coordinates) bool { return false }

func (s *StreamArray) Reset() { panic("stream: StreamArray is forward-only, Reset unsupported") }

// mergeHeapItem is one input's current head, ordered by chunk position for
// the k-way merge.
type mergeHeapItem struct {
	idx int
	pos coord.Coordinates
}

type mergeHeap []mergeHeapItem

func (h mergeHeap) Len() int            { return len(h) }
func (h mergeHeap) Less(i, j int) bool  { return coord.Less(h[i].pos, h[j].pos) }
func (h mergeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *mergeHeap) Push(x interface{}) { *h = append(*h, x.(mergeHeapItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// MultiStreamArray merges N per-instance streams into one globally
// position-ordered chunk.ArrayIterator (§4.3), the local endpoint of a
// scatter/gather exchange.
type MultiStreamArray struct {
	inputs []chunk.ArrayIterator
	h      mergeHeap
	cur    int // index of the input currently at the head, or -1
}

// NewMultiStreamArray wraps already-started per-instance iterators
// (typically StreamArrays) and merges them by ascending position.
func NewMultiStreamArray(inputs []chunk.ArrayIterator) *MultiStreamArray {
	m := &MultiStreamArray{inputs: inputs, cur: -1}
	m.h = make(mergeHeap, 0, len(inputs))
	for i, in := range inputs {
		if !in.End() {
			heap.Push(&m.h, mergeHeapItem{idx: i, pos: in.Position()})
		}
	}
	if m.h.Len() > 0 {
		m.cur = m.h[0].idx
	}
	return m
}

func (m *MultiStreamArray) End() bool { return m.h.Len() == 0 }

func (m *MultiStreamArray) Next() bool {
	if m.End() {
		return false
	}
	top := heap.Pop(&m.h).(mergeHeapItem)
	in := m.inputs[top.idx]
	if in.Next() {
		heap.Push(&m.h, mergeHeapItem{idx: top.idx, pos: in.Position()})
	}
	if m.h.Len() == 0 {
		m.cur = -1
		return false
	}
	m.cur = m.h[0].idx
	return true
}

func (m *MultiStreamArray) Position() coord.Coordinates {
	if m.End() {
		return nil
	}
	return m.h[0].pos
}

func (m *MultiStreamArray) GetChunk() (*chunk.Chunk, error) {
	if m.cur < 0 {
		return nil, arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeSetPositionFailed, "getChunk past end of multi-stream")
	}
	return m.inputs[m.cur].GetChunk()
}

func (m *MultiStreamArray) SetPosition(coords coord.Coordinates) bool { return false }

func (m *MultiStreamArray) Reset() {
	panic("stream: MultiStreamArray is forward-only, Reset unsupported")
}
