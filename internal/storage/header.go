// Package storage implements the persistent-chunk / storage-header layer
// (§4.2, §6): mapping a chunk to a data-store offset, pin/unpin, and
// (de)compression framing.
//
// Grounded on the teacher's on-disk accounting idiom (memory/disk
// trackers from util/chunk/row_container.go, generalized from "bytes
// tracked" to "bytes persisted") and on util/sys/storage's target-directory
// capacity probe (ported into diskcap.go), since the teacher carries no
// chunk-store file format of its own — §6 pins the exact header layout,
// which this package implements directly from spec.md.
package storage

import (
	"fmt"

	"github.com/scidb-go/arraydb/internal/arrerrors"
)

// HeaderMagic identifies this storage format (§6).
const HeaderMagic uint32 = 0x5C1DB123

// HeaderSize is the page-aligned size of a StorageHeader record (§3).
const HeaderSize = 4096

// MaxNumDimsSupported bounds ChunkDescriptor's fixed coordinate array (§3).
const MaxNumDimsSupported = 32

// StorageHeader is the 4 KiB, page-aligned header at the start of a
// storage file (§3, §6).
type StorageHeader struct {
	Magic              uint32
	VersionLowerBound  uint32
	VersionUpperBound  uint32
	CurrPos            int64
	NChunks            uint64
	InstanceID         uint32
}

// Validate checks the magic and version bounds, refusing a file this
// reader cannot safely interpret (§6's "a reader refuses a file whose
// magic or version falls outside its own range").
func (h StorageHeader) Validate(readerVersion uint32) error {
	if h.Magic != HeaderMagic {
		return arrerrors.New(arrerrors.ClassStorage, arrerrors.CodeStorageMagicMismatch,
			"storage header magic %#x does not match expected %#x", h.Magic, HeaderMagic)
	}
	if readerVersion < h.VersionLowerBound || readerVersion > h.VersionUpperBound {
		return arrerrors.New(arrerrors.ClassStorage, arrerrors.CodeStorageMagicMismatch,
			"storage header version range [%d,%d] does not cover reader version %d",
			h.VersionLowerBound, h.VersionUpperBound, readerVersion)
	}
	if h.CurrPos < HeaderSize {
		return arrerrors.New(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader,
			"storage header currPos %d is below HEADER_SIZE %d", h.CurrPos, HeaderSize)
	}
	return nil
}

// ChunkHeaderFlag is the flag byte of a ChunkHeader (§3).
type ChunkHeaderFlag uint8

const (
	// DeltaChunk marks a chunk stored as a delta against a prior version.
	DeltaChunk ChunkHeaderFlag = 2
	// Tombstone marks a chunk header that records a deletion with no payload.
	Tombstone ChunkHeaderFlag = 8
)

// DiskPos locates a chunk's payload: the data-store identified by DSGUID,
// at byte offset Offs within a header record at HdrPos (§3).
type DiskPos struct {
	DSGUID uint64
	HdrPos int64
	Offs   int64
}

// ChunkHeader is one on-disk chunk header record (§3).
type ChunkHeader struct {
	StorageVersion    uint32
	Pos               DiskPos
	ArrID             int64
	AttID             int
	CompressedSize    int64
	Size              int64
	CompressionMethod uint8
	Flags             ChunkHeaderFlag
	NCoordinates      int
	AllocatedSize     int64
	NElems            int64
	InstanceID        uint32
}

// IsTombstone reports the Tombstone flag (§3: "Tombstone chunks carry
// version + data-store id but no payload").
func (h ChunkHeader) IsTombstone() bool { return h.Flags&Tombstone != 0 }

// Validate enforces the header invariants from §4.2/§8.
func (h ChunkHeader) Validate() error {
	if h.CompressedSize > h.AllocatedSize {
		return arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeChunkSizeMismatch,
			"compressedSize %d exceeds allocatedSize %d", h.CompressedSize, h.AllocatedSize)
	}
	if h.IsTombstone() && h.Size != 0 {
		return arrerrors.New(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader,
			"tombstone chunk header has non-zero size %d", h.Size)
	}
	return nil
}

// ChunkDescriptor is a ChunkHeader plus the chunk's first coordinates,
// fixed to MaxNumDimsSupported slots on disk (§3); in memory we keep the
// live-length slice instead of the fixed array.
type ChunkDescriptor struct {
	ChunkHeader
	Coordinates []int64
}

func (d ChunkDescriptor) String() string {
	return fmt.Sprintf("chunkdesc(arr=%d attr=%d coords=%v tombstone=%v)", d.ArrID, d.AttID, d.Coordinates, d.IsTombstone())
}
