// Package arena supplements the execution core with the arena-backed
// container support named in passing by the component table (C9) but left
// undetailed by spec.md: a bounds-checked view type over a contiguous
// buffer, and an allocator that accounts bulk allocations against a
// memory.Tracker so large scratch buffers (tile payloads, sort runs) can be
// freed in one step rather than leaf-by-leaf.
package arena

// PointerRange is a bounds-checked view over a contiguous backing buffer,
// the Go counterpart of util/PointerRange.h's boost::iterator_range<value*>
// wrapper: a cheap reference into storage some other entity owns, used
// here as the argument/return type for functions that work over a
// sub-sequence of a tile buffer without copying it. Unlike a plain Go
// slice, it retains the full backing buffer's bounds so Shift/Grow can
// move the view both forward and backward within it, mirroring the
// original's raw-pointer-pair semantics without resorting to unsafe
// pointer arithmetic.
type PointerRange[T any] struct {
	full   []T
	lo, hi int
}

// NewPointerRange views the whole of s, with s itself as the maximal
// backing buffer Grow/Shift may move within.
func NewPointerRange[T any](s []T) PointerRange[T] {
	return PointerRange[T]{full: s, lo: 0, hi: len(s)}
}

// Empty returns the zero-length range, matching PointerRange<value>()'s
// default constructor.
func Empty[T any]() PointerRange[T] { return PointerRange[T]{} }

// Size returns the number of elements in the range.
func (r PointerRange[T]) Size() int { return r.hi - r.lo }

// Len is an alias for Size, for range-like call sites.
func (r PointerRange[T]) Len() int { return r.Size() }

// At returns the i'th element of the range.
func (r PointerRange[T]) At(i int) T { return r.full[r.lo+i] }

// Set assigns the i'th element of the range.
func (r PointerRange[T]) Set(i int, v T) { r.full[r.lo+i] = v }

// Slice returns the view as a plain Go slice; callers must not retain it
// past the range's lifetime assumptions any more than they would a raw
// pointer pair.
func (r PointerRange[T]) Slice() []T { return r.full[r.lo:r.hi] }

// Take returns the initial i elements of r, mirroring take() in
// PointerRange.h.
func Take[T any](r PointerRange[T], i int) PointerRange[T] {
	if i > r.Size() {
		panic("arena: Take: i exceeds range size")
	}
	return PointerRange[T]{full: r.full, lo: r.lo, hi: r.lo + i}
}

// Drop removes i elements from the front and j from the back of r,
// mirroring drop() in PointerRange.h.
func Drop[T any](r PointerRange[T], i, j int) PointerRange[T] {
	if i+j > r.Size() {
		panic("arena: Drop: i+j exceeds range size")
	}
	return PointerRange[T]{full: r.full, lo: r.lo + i, hi: r.hi - j}
}

// Subrange returns the n elements beginning at element i of r, mirroring
// subrange() in PointerRange.h.
func Subrange[T any](r PointerRange[T], i, n int) PointerRange[T] {
	if i+n > r.Size() {
		panic("arena: Subrange: i+n exceeds range size")
	}
	return PointerRange[T]{full: r.full, lo: r.lo + i, hi: r.lo + i + n}
}

// Shift translates r forward (i > 0) or back (i < 0) by i elements within
// its backing buffer, mirroring shift() in PointerRange.h. Panics if the
// shifted bounds fall outside the backing buffer.
func Shift[T any](r PointerRange[T], i int) PointerRange[T] {
	lo, hi := r.lo+i, r.hi+i
	if lo < 0 || hi > len(r.full) {
		panic("arena: Shift: out of backing buffer bounds")
	}
	return PointerRange[T]{full: r.full, lo: lo, hi: hi}
}

// Grow expands r by i elements at the front and j at the back, within its
// backing buffer, mirroring grow() in PointerRange.h.
func Grow[T any](r PointerRange[T], i, j int) PointerRange[T] {
	lo, hi := r.lo-i, r.hi+j
	if lo < 0 || hi > len(r.full) {
		panic("arena: Grow: out of backing buffer bounds")
	}
	return PointerRange[T]{full: r.full, lo: lo, hi: hi}
}
