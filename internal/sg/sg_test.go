package sg

import (
	"context"
	"testing"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/scidb-go/arraydb/internal/storage"
	"github.com/stretchr/testify/require"
)

func testDims() []coord.Dimension {
	return []coord.Dimension{{Name: "x", StartMin: 0, EndMax: 99, CurrStart: 0, CurrEnd: 99, ChunkInterval: 10}}
}

func mkMemArray(t *testing.T, positions []int64) *chunk.MemArray {
	desc := coord.ArrayDesc{
		Name:       "t",
		Attributes: []coord.Attribute{{ID: 0, Name: "v", TypeID: "int64"}},
		Dimensions: testDims(),
	}
	ma := chunk.NewMemArray(desc)
	for _, x := range positions {
		addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{x}}
		ma.PutChunk(chunk.NewChunk(addr, testDims(), coord.Coordinates{x}))
	}
	return ma
}

func TestPullSGArrayRoundTrip(t *testing.T) {
	ctx := context.Background()

	src := mkMemArray(t, []int64{0, 10, 20})
	it, err := src.ConstIterator(0)
	require.NoError(t, err)

	producer := NewArrayProducer(1, 0, it, storage.CompressionSnappy)
	transport := NewChanTransport(0, map[int]Producer{1: producer}, 8)

	core := NewPullSGArray(ctx, transport, 0, 0, 4, []int{1})
	var positions []int64
	for {
		ok, err := core.Next()
		if err != nil {
			if IsRetry(err) {
				continue
			}
			require.NoError(t, err)
		}
		if !ok {
			break
		}
		c, err := core.GetChunk()
		require.NoError(t, err)
		positions = append(positions, c.FirstPos()[0])
	}
	require.Equal(t, []int64{0, 10, 20}, positions)
}

func TestPullSGArrayBlockingTwoSources(t *testing.T) {
	ctx := context.Background()

	a := mkMemArray(t, []int64{0, 20})
	b := mkMemArray(t, []int64{10, 30})
	itA, err := a.ConstIterator(0)
	require.NoError(t, err)
	itB, err := b.ConstIterator(0)
	require.NoError(t, err)

	prodA := NewArrayProducer(1, 0, itA, storage.CompressionNone)
	prodB := NewArrayProducer(2, 0, itB, storage.CompressionNone)
	transport := NewChanTransport(0, map[int]Producer{1: prodA, 2: prodB}, 8)

	core := NewPullSGArray(ctx, transport, 0, 0, 4, []int{1, 2})
	blocking := NewPullSGArrayBlocking(map[int]*PullSGArray{0: core})

	var positions []int64
	err = blocking.PullAttributes(ctx, []int{0}, func(attrID int, c *Chunk) error {
		positions = append(positions, c.FirstPos()[0])
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{0, 10, 20, 30}, positions)
}
