package arena

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPointerRangeTakeDropSubrange(t *testing.T) {
	backing := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	r := NewPointerRange(backing)
	require.Equal(t, 10, r.Size())

	head := Take(r, 3)
	require.Equal(t, []int{0, 1, 2}, head.Slice())

	mid := Drop(r, 2, 2)
	require.Equal(t, []int{2, 3, 4, 5, 6, 7}, mid.Slice())

	sub := Subrange(r, 4, 3)
	require.Equal(t, []int{4, 5, 6}, sub.Slice())
}

func TestPointerRangeShiftGrow(t *testing.T) {
	backing := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	r := NewPointerRange(backing)
	mid := Subrange(r, 3, 3) // {3,4,5}

	shifted := Shift(mid, 2)
	require.Equal(t, []int{5, 6, 7}, shifted.Slice())

	grown := Grow(mid, 1, 1)
	require.Equal(t, []int{2, 3, 4, 5, 6}, grown.Slice())
}

func TestPointerRangeOutOfBoundsPanics(t *testing.T) {
	backing := []int{0, 1, 2}
	r := NewPointerRange(backing)
	require.Panics(t, func() { Take(r, 10) })
	require.Panics(t, func() { Shift(r, -1) })
}

func TestArenaAllocateAndReset(t *testing.T) {
	a := NewArena("test", nil)
	buf := a.Allocate(128)
	require.Len(t, buf, 128)
	require.Equal(t, int64(128), a.Allocated())
	require.Equal(t, int64(128), a.Tracker().BytesConsumed())

	a.Reset()
	require.Equal(t, int64(0), a.Allocated())
	require.Equal(t, int64(0), a.Tracker().BytesConsumed())
}

func TestAllocateSliceTracksBytes(t *testing.T) {
	a := NewArena("slices", nil)
	s := AllocateSlice[int64](a, 10)
	require.Len(t, s, 10)
	require.Equal(t, int64(80), a.Allocated())
}

func TestSetInsertContainsRemoveOrdered(t *testing.T) {
	a := NewArena("set", nil)
	s := NewSet[int](a, func(x, y int) bool { return x < y })

	require.True(t, s.Insert(5))
	require.True(t, s.Insert(1))
	require.True(t, s.Insert(3))
	require.False(t, s.Insert(3)) // duplicate
	require.Equal(t, 3, s.Len())
	require.True(t, s.Contains(1))

	var seen []int
	s.Range(func(v int) bool {
		seen = append(seen, v)
		return true
	})
	require.Equal(t, []int{1, 3, 5}, seen)

	require.True(t, s.Remove(3))
	require.False(t, s.Contains(3))
	require.Equal(t, 2, s.Len())
}
