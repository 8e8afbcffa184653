package stream

import (
	"context"
	"io"
	"testing"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/stretchr/testify/require"
)

type sliceProducer struct {
	chunks []*chunk.Chunk
	pos    int
}

func (p *sliceProducer) NextChunk(ctx context.Context) (*chunk.Chunk, error) {
	if p.pos >= len(p.chunks) {
		return nil, io.EOF
	}
	c := p.chunks[p.pos]
	p.pos++
	return c, nil
}

func dims() []coord.Dimension {
	return []coord.Dimension{{Name: "x", StartMin: 0, EndMax: 99, CurrStart: 0, CurrEnd: 99, ChunkInterval: 10}}
}

func mkChunk(x int64) *chunk.Chunk {
	addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{x}}
	return chunk.NewChunk(addr, dims(), coord.Coordinates{x})
}

func TestStreamArrayDrain(t *testing.T) {
	prod := &sliceProducer{chunks: []*chunk.Chunk{mkChunk(0), mkChunk(10), mkChunk(20)}}
	s := NewStreamArray(context.Background(), prod)

	var positions []int64
	for !s.End() {
		c, err := s.GetChunk()
		require.NoError(t, err)
		positions = append(positions, c.FirstPos()[0])
		s.Next()
	}
	require.Equal(t, []int64{0, 10, 20}, positions)
}

func TestMultiStreamArrayMerge(t *testing.T) {
	p1 := &sliceProducer{chunks: []*chunk.Chunk{mkChunk(0), mkChunk(20)}}
	p2 := &sliceProducer{chunks: []*chunk.Chunk{mkChunk(10), mkChunk(30)}}
	s1 := NewStreamArray(context.Background(), p1)
	s2 := NewStreamArray(context.Background(), p2)

	m := NewMultiStreamArray([]chunk.ArrayIterator{s1, s2})
	var positions []int64
	for !m.End() {
		c, err := m.GetChunk()
		require.NoError(t, err)
		positions = append(positions, c.FirstPos()[0])
		m.Next()
	}
	require.Equal(t, []int64{0, 10, 20, 30}, positions)
}
