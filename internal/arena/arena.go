package arena

import (
	"github.com/scidb-go/arraydb/internal/memory"
	"github.com/scidb-go/arraydb/internal/stringutil"
)

// Arena is the Go-idiomatic stand-in for SciDB's arena::Allocator: it does
// not itself manage raw memory (the garbage collector already does that),
// but it accounts every bulk allocation against a memory.Tracker so a
// large group of short-lived buffers (a tile's cell payload, a sort run's
// scratch slices) can be charged and released as one unit via Reset,
// rather than tracked leaf-by-leaf.
type Arena struct {
	name      string
	tracker   *memory.Tracker
	allocated int64
}

// NewArena creates a named arena whose allocations are charged against a
// fresh tracker attached under parent (unlimited if parent is nil).
func NewArena(name string, parent *memory.Tracker) *Arena {
	t := memory.NewTracker(stringutil.StringerStr(name), -1)
	if parent != nil {
		t.AttachTo(parent)
	}
	return &Arena{name: name, tracker: t}
}

// Allocate reserves n bytes from the arena and returns a zeroed buffer of
// that size, charging n against the arena's tracker.
func (a *Arena) Allocate(n int) []byte {
	a.tracker.Consume(int64(n))
	a.allocated += int64(n)
	return make([]byte, n)
}

// Allocated reports the number of bytes currently charged to this arena.
func (a *Arena) Allocated() int64 { return a.allocated }

// Tracker exposes the arena's underlying memory.Tracker, e.g. so a caller
// can attach an ActionOnExceed.
func (a *Arena) Tracker() *memory.Tracker { return a.tracker }

// Reset releases every byte this arena has charged, the arena's
// equivalent of the original's bulk "free the whole arena at once"
// destructor semantics.
func (a *Arena) Reset() {
	a.tracker.Consume(-a.allocated)
	a.allocated = 0
}

// AllocateSlice reserves space for n elements of T from a, tracked by byte
// size, and returns a zero-valued slice of that length. A free function
// rather than a method because Go methods cannot carry their own type
// parameters.
func AllocateSlice[T any](a *Arena, n int) []T {
	var zero T
	elemSize := sizeOf(zero)
	a.tracker.Consume(int64(n) * elemSize)
	a.allocated += int64(n) * elemSize
	return make([]T, n)
}

// sizeOf estimates the in-memory footprint of one element of T for
// tracking purposes. It is intentionally approximate (it does not follow
// pointers/slices/maps reachable from T) since the tracker's purpose is
// back-pressure, not exact accounting — the same approximation the
// teacher's own memory.Tracker accounting makes for row-ptr slices in
// util/chunk/row_container.go.
func sizeOf(v interface{}) int64 {
	switch v.(type) {
	case int8, uint8, bool:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	default:
		return 8
	}
}
