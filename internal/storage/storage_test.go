package storage

import (
	"testing"

	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/stretchr/testify/require"
)

func TestStorageHeaderValidate(t *testing.T) {
	h := StorageHeader{Magic: HeaderMagic, VersionLowerBound: 1, VersionUpperBound: 3, CurrPos: HeaderSize}
	require.NoError(t, h.Validate(2))
	require.Error(t, h.Validate(9))

	bad := h
	bad.Magic = 0xBAD
	require.Error(t, bad.Validate(2))
}

func TestChunkHeaderValidate(t *testing.T) {
	h := ChunkHeader{CompressedSize: 10, AllocatedSize: 20}
	require.NoError(t, h.Validate())

	h.CompressedSize = 100
	require.Error(t, h.Validate())
}

func TestCompressRoundTrip(t *testing.T) {
	raw := []byte("the quick brown fox jumps over the lazy dog, repeatedly repeatedly repeatedly")
	for _, method := range []CompressionMethod{CompressionNone, CompressionSnappy, CompressionZstd} {
		compressed, err := Compress(method, raw)
		require.NoError(t, err)
		out, err := Decompress(method, compressed, len(raw))
		require.NoError(t, err)
		require.Equal(t, raw, out)
	}
}

func TestPersistentChunkPinUnpin(t *testing.T) {
	s := NewStorage()
	addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{0, 0}}
	pc := s.NewPersistentChunk(addr, 1, 0)

	s.Pin(pc)
	require.EqualValues(t, 1, pc.PinCount())
	s.Pin(pc)
	require.EqualValues(t, 2, pc.PinCount())

	require.NoError(t, s.Unpin(pc))
	require.EqualValues(t, 1, pc.PinCount())
	require.NoError(t, s.Unpin(pc))
	require.EqualValues(t, 0, pc.PinCount())

	require.Error(t, s.Unpin(pc))
}

func TestPersistentChunkWriteRead(t *testing.T) {
	s := NewStorage()
	addr := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{0, 0}}
	pc := s.NewPersistentChunk(addr, 1, 0)
	s.Pin(pc)
	defer s.Unpin(pc)

	raw := []byte("chunk payload bytes")
	require.NoError(t, pc.Write(CompressionSnappy, raw))

	out, err := pc.Read()
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestStorageEvictOldest(t *testing.T) {
	s := NewStorage()
	addr1 := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{0, 0}}
	addr2 := coord.Address{AttrID: 0, ChunkCoord: coord.Coordinates{1, 0}}
	pc1 := s.NewPersistentChunk(addr1, 1, 0)
	pc2 := s.NewPersistentChunk(addr2, 1, 0)

	s.Pin(pc1)
	s.Unpin(pc1)
	s.Pin(pc2)
	s.Unpin(pc2)

	evicted := s.EvictOldest(1)
	require.Equal(t, 1, evicted)
}

func TestTargetDirectoryCapacity(t *testing.T) {
	total, free, err := TargetDirectoryCapacity(".")
	require.NoError(t, err)
	require.Greater(t, total, uint64(0))
	require.LessOrEqual(t, free, total)
}
