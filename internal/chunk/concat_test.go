package chunk

import (
	"testing"

	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/stretchr/testify/require"
)

func concatDims(chunkInterval, endMax int64) []coord.Dimension {
	return []coord.Dimension{
		{Name: "x", StartMin: 0, EndMax: endMax, CurrStart: 0, CurrEnd: endMax, ChunkInterval: chunkInterval},
	}
}

func concatDesc(name string, dims []coord.Dimension) coord.ArrayDesc {
	return coord.ArrayDesc{
		Name:       name,
		Attributes: []coord.Attribute{{ID: 0, Name: "v", TypeID: "int64"}},
		Dimensions: dims,
	}
}

func singleChunkArray(dims []coord.Dimension, values map[int64]int64) *MemArray {
	desc := concatDesc("t", dims)
	m := NewMemArray(desc)
	addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{0}}
	byFirst := map[int64]*Chunk{}
	for pos, v := range values {
		first := coord.AlignToChunk(coord.Coordinates{pos}, dims)[0]
		c, ok := byFirst[first]
		if !ok {
			a := addr
			a.ChunkCoord = coord.Coordinates{first}
			c = NewChunk(a, dims, coord.Coordinates{first})
			byFirst[first] = c
		}
		c.Set(coord.Coordinates{pos}, v)
	}
	for _, c := range byFirst {
		m.PutChunk(c)
	}
	return m
}

func collectConcat(t *testing.T, c *ConcatArray) map[int64]int64 {
	t.Helper()
	it, err := c.ConstIterator(0)
	require.NoError(t, err)
	got := map[int64]int64{}
	for !it.End() {
		ch, err := it.GetChunk()
		require.NoError(t, err)
		for idx := 0; idx < ch.NumCells(); idx++ {
			if v, ok := ch.CellAt(idx); ok {
				got[ch.PositionAt(idx)[0]] = v.(int64)
			}
		}
		it.Next()
	}
	return got
}

// TestConcatArrayAlignedSimpleAppend covers §8 scenario 3: when left's
// extent on dimension 0 is a chunk-interval multiple, the seam is aligned
// and the right array's chunks are relabeled wholesale (relabelChunk),
// not synthesized cell-by-cell.
func TestConcatArrayAlignedSimpleAppend(t *testing.T) {
	leftDims := concatDims(10, 9) // [0,9], one full chunk: aligned seam at 10
	rightDims := concatDims(10, 9)
	left := singleChunkArray(leftDims, map[int64]int64{0: 1, 9: 2})
	right := singleChunkArray(rightDims, map[int64]int64{0: 3, 9: 4})

	cc := NewConcatArray(left, right)
	require.True(t, cc.aligned)

	got := collectConcat(t, cc)
	require.Equal(t, map[int64]int64{0: 1, 9: 2, 10: 3, 19: 4}, got)

	// relabelChunk reuses the right chunk's payload untouched, only the
	// address/position fields shift: verify the shifted chunk's own
	// FirstPos reflects the seam shift.
	it, err := cc.ConstIterator(0)
	require.NoError(t, err)
	it.Next() // left's only chunk
	ch, err := it.GetChunk()
	require.NoError(t, err)
	require.Equal(t, coord.Coordinates{10}, ch.FirstPos())
}

// TestConcatArrayNonAlignedSynthesizesProxy covers the bug fixed in
// synthesizeProxyChunk: when the seam is not chunk-aligned, every output
// chunk must interleave live cells from both the left and the shifted
// right array, not just relabel the right side and drop the left's tail.
func TestConcatArrayNonAlignedSynthesizesProxy(t *testing.T) {
	leftDims := concatDims(10, 4) // [0,4]: only 5 positions, not a chunk multiple
	rightDims := concatDims(10, 9)
	left := singleChunkArray(leftDims, map[int64]int64{0: 1, 4: 2})
	right := singleChunkArray(rightDims, map[int64]int64{0: 3, 9: 4})

	cc := NewConcatArray(left, right)
	require.False(t, cc.aligned)

	got := collectConcat(t, cc)
	// left occupies absolute [0,4] unshifted; right is shifted by 5 (left's
	// combined extent), landing at [5,14].
	require.Equal(t, map[int64]int64{0: 1, 4: 2, 5: 3, 14: 4}, got)

	// The chunk-alignment invariant (§3) must hold for every synthesized
	// output chunk: firstPos[0] % chunkInterval == startMin % chunkInterval.
	it, err := cc.ConstIterator(0)
	require.NoError(t, err)
	for !it.End() {
		ch, err := it.GetChunk()
		require.NoError(t, err)
		require.Equal(t, int64(0), ch.FirstPos()[0]%10)
		it.Next()
	}
}
