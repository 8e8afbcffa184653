// Package workqueue implements the bounded cooperative task queue of §4.8:
// a WorkQueue layered over a shared worker pool, with a reserve/unreserve
// two-phase enqueue protocol and cross-queue serialization release
// ordering via SerializationCtx.
//
// Grounded on util/chunk/row_container.go's bounded-channel producer
// pattern (the shared job pool is abstracted as the JobPool interface) and
// on internal/memory.Tracker's tree-of-counters style for the
// outstanding/reserved bookkeeping, since the teacher itself is a
// single-process query engine with no inter-queue work scheduler of its
// own.
package workqueue

import "sync"

// OverflowException reports that enqueue would exceed maxSize (§4.8).
type OverflowException struct{ QueueName string }

func (e *OverflowException) Error() string { return "workqueue: overflow: " + e.QueueName }

// PushBackException signals reEnqueue could not transfer an item because
// the destination queue is full; the caller (fromQueue) keeps the item
// outstanding until space appears (§4.8).
type PushBackException struct{ QueueName string }

func (e *PushBackException) Error() string { return "workqueue: push back: " + e.QueueName }

// Item is one unit of work: a function plus whatever context it closes
// over. WorkQueue does not interpret ctx; it is opaque payload carried
// alongside fn for callers that need to correlate dispatch with state.
type Item struct {
	Fn  func()
	Ctx interface{}
}

// JobPool is the shared worker pool a WorkQueue dispatches onto (§4.8's
// "layered over a shared JobQueue").
type JobPool interface {
	Submit(fn func())
}

// WorkQueue is a bounded FIFO layered over a shared JobPool (§4.8).
type WorkQueue struct {
	name string
	pool JobPool

	mu             sync.Mutex
	maxOutstanding int
	maxSize        int
	outstanding    int
	reserved       int
	pending        []Item
}

// NewWorkQueue creates a queue named name, dispatching onto pool, allowing
// at most maxOutstanding concurrently-dispatched items and maxSize total
// depth (outstanding + reserved + pending).
func NewWorkQueue(name string, pool JobPool, maxOutstanding, maxSize int) *WorkQueue {
	return &WorkQueue{name: name, pool: pool, maxOutstanding: maxOutstanding, maxSize: maxSize}
}

func (q *WorkQueue) size() int { return q.outstanding + q.reserved + len(q.pending) }

// Enqueue adds item directly, failing with OverflowException if doing so
// would exceed maxSize (§4.8).
func (q *WorkQueue) Enqueue(item Item) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size() >= q.maxSize {
		return &OverflowException{QueueName: q.name}
	}
	q.pending = append(q.pending, item)
	q.dispatchLocked()
	return nil
}

// Reserve holds one slot of capacity without committing an item yet,
// failing with OverflowException if the queue is already at maxSize
// (§4.8's two-phase enqueue: "ensuring space is held before a producer
// commits to use it").
func (q *WorkQueue) Reserve() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.size() >= q.maxSize {
		return &OverflowException{QueueName: q.name}
	}
	q.reserved++
	return nil
}

// Unreserve releases a slot reserved by Reserve without ever enqueueing
// an item into it.
func (q *WorkQueue) Unreserve() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.reserved > 0 {
		q.reserved--
	}
}

// EnqueueReserved commits item into a slot previously held by Reserve.
func (q *WorkQueue) EnqueueReserved(item Item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.reserved > 0 {
		q.reserved--
	}
	q.pending = append(q.pending, item)
	q.dispatchLocked()
}

// ReEnqueue transfers item from fromQueue into q without releasing
// fromQueue's outstanding slot for it; if q is full and is not fromQueue
// itself, it returns PushBackException so fromQueue keeps the item
// outstanding until space appears (§4.8).
func (q *WorkQueue) ReEnqueue(item Item, fromQueue *WorkQueue) error {
	if fromQueue == q {
		return q.Enqueue(item)
	}
	q.mu.Lock()
	if q.size() >= q.maxSize {
		q.mu.Unlock()
		return &PushBackException{QueueName: q.name}
	}
	q.pending = append(q.pending, item)
	q.dispatchLocked()
	q.mu.Unlock()
	return nil
}

// dispatchLocked submits pending items to the pool up to maxOutstanding.
// Must be called with q.mu held.
func (q *WorkQueue) dispatchLocked() {
	for len(q.pending) > 0 && q.outstanding < q.maxOutstanding {
		item := q.pending[0]
		q.pending = q.pending[1:]
		q.outstanding++
		fn := item.Fn
		q.pool.Submit(func() {
			defer q.onDone()
			fn()
		})
	}
}

func (q *WorkQueue) onDone() {
	q.mu.Lock()
	q.outstanding--
	q.dispatchLocked()
	q.mu.Unlock()
}

// Len reports the queue's current total depth, for tests and metrics.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size()
}
