package redistribute

import (
	"testing"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/stretchr/testify/require"
)

func testDims() []coord.Dimension {
	return []coord.Dimension{{Name: "x", StartMin: 0, EndMax: 9, CurrStart: 0, CurrEnd: 9, ChunkInterval: 10}}
}

type sumAggregator struct{}

func (sumAggregator) AccumulateIfNeeded(v chunk.CellValue) chunk.CellValue { return v }
func (sumAggregator) MergeIfNeeded(state, v chunk.CellValue) chunk.CellValue {
	return state.(int64) + v.(int64)
}

func TestMergeChunkOverwrite(t *testing.T) {
	addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{0}}
	existing := chunk.NewChunk(addr, testDims(), coord.Coordinates{0})
	existing.Set(coord.Coordinates{0}, int64(1))

	incoming := chunk.NewChunk(addr, testDims(), coord.Coordinates{0})
	incoming.Set(coord.Coordinates{0}, int64(99))

	mergeChunk(existing, incoming, MergeOverwrite, nil)
	v, ok := existing.Get(coord.Coordinates{0})
	require.True(t, ok)
	require.Equal(t, int64(99), v)
}

func TestMergeChunkAggregate(t *testing.T) {
	addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{0}}
	existing := chunk.NewChunk(addr, testDims(), coord.Coordinates{0})
	existing.Set(coord.Coordinates{0}, int64(5))

	incoming := chunk.NewChunk(addr, testDims(), coord.Coordinates{0})
	incoming.Set(coord.Coordinates{0}, int64(3))

	mergeChunk(existing, incoming, MergeAggregate, sumAggregator{})
	v, ok := existing.Get(coord.Coordinates{0})
	require.True(t, ok)
	require.Equal(t, int64(8), v)
}
