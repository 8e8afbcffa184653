package chunk

import (
	"testing"

	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/stretchr/testify/require"
)

func oneDimDesc(name string, chunkInterval int64) coord.ArrayDesc {
	return coord.ArrayDesc{
		Name:       name,
		Attributes: []coord.Attribute{{ID: 0, Name: "v", TypeID: "int64"}},
		Dimensions: []coord.Dimension{
			{Name: "x", StartMin: 0, EndMax: 19, CurrStart: 0, CurrEnd: 19, ChunkInterval: chunkInterval},
		},
	}
}

// buildMemArray scatters (pos, value) pairs into chunks of desc's interval.
func buildMemArray(desc coord.ArrayDesc, values map[int64]int64) *MemArray {
	m := NewMemArray(desc)
	dims := desc.Dimensions
	byChunk := map[int64]*Chunk{}
	for pos, v := range values {
		first := coord.AlignToChunk(coord.Coordinates{pos}, dims)[0]
		c, ok := byChunk[first]
		if !ok {
			addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{first}}
			c = NewChunk(addr, dims, coord.Coordinates{first})
			byChunk[first] = c
		}
		c.Set(coord.Coordinates{pos}, v)
	}
	for _, c := range byChunk {
		m.PutChunk(c)
	}
	return m
}

// TestMergeArrayOverwriteSemantics covers §8 scenario 2: two inputs sharing
// a chunk, the first input's live cells win and only the second input's
// live-but-not-first-covered cells show through.
func TestMergeArrayOverwriteSemantics(t *testing.T) {
	desc := oneDimDesc("m", 10)
	first := buildMemArray(desc, map[int64]int64{0: 1, 1: 2})
	second := buildMemArray(desc, map[int64]int64{1: 99, 2: 3})

	merged := NewMergeArray([]Array{first, second})
	it, err := merged.ConstIterator(0)
	require.NoError(t, err)
	require.False(t, it.End())

	c, err := it.GetChunk()
	require.NoError(t, err)

	v, ok := c.Get(coord.Coordinates{0})
	require.True(t, ok)
	require.Equal(t, int64(1), v)

	// position 1 is live in both inputs; first input wins, not second's 99.
	v, ok = c.Get(coord.Coordinates{1})
	require.True(t, ok)
	require.Equal(t, int64(2), v)

	// position 2 is only live in the second input.
	v, ok = c.Get(coord.Coordinates{2})
	require.True(t, ok)
	require.Equal(t, int64(3), v)

	require.False(t, it.Next())
	require.True(t, it.End())
}

// TestMergeArrayStopsAtShortestInput exercises Open Question 2's documented
// resolution: the merge ends as soon as any input runs out, even though a
// longer input still has live chunks beyond that point.
func TestMergeArrayStopsAtShortestInput(t *testing.T) {
	desc := oneDimDesc("m", 10)
	short := buildMemArray(desc, map[int64]int64{0: 1})
	long := buildMemArray(desc, map[int64]int64{0: 2, 10: 3})

	merged := NewMergeArray([]Array{short, long})
	it, err := merged.ConstIterator(0)
	require.NoError(t, err)
	require.False(t, it.End())
	_, err = it.GetChunk()
	require.NoError(t, err)

	require.False(t, it.Next())
	require.True(t, it.End())
}
