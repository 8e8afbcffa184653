package workqueue

import "sync"

// holder is one upstream queue a SerializationCtx must release an item
// against, and the release callback to do it.
type holder struct {
	queue   *WorkQueue
	release func()
}

// SerializationCtx records every upstream queue currently holding an item
// as it crosses queue boundaries, and releases them in order when the
// context is closed (§4.8): "an item that crosses queues remains
// serialized against its originating queue until the work completes on
// the last queue."
type SerializationCtx struct {
	mu      sync.Mutex
	holders []holder
	closed  bool
}

// NewSerializationCtx creates an empty release-ordering context for one
// in-flight item.
func NewSerializationCtx() *SerializationCtx {
	return &SerializationCtx{}
}

// Hold records that q is serializing this item, to be released (in the
// order Hold was called) when Close runs.
func (s *SerializationCtx) Hold(q *WorkQueue, release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holders = append(s.holders, holder{queue: q, release: release})
}

// Close releases every held queue in the order they were recorded. Safe to
// call multiple times; only the first call has effect, mirroring a
// destructor that fires exactly once.
func (s *SerializationCtx) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	holders := s.holders
	s.holders = nil
	s.mu.Unlock()

	for _, h := range holders {
		h.release()
	}
}
