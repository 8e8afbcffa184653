package storage

import (
	"bytes"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/scidb-go/arraydb/internal/arrerrors"
)

// CompressionMethod identifies the codec used for a chunk's on-disk
// payload (§4.2: "compression is pluggable by a one-byte method code").
type CompressionMethod uint8

const (
	// CompressionNone stores the chunk payload verbatim.
	CompressionNone CompressionMethod = 0
	// CompressionSnappy uses github.com/golang/snappy — fast, low ratio.
	CompressionSnappy CompressionMethod = 1
	// CompressionZstd uses github.com/klauspost/compress/zstd — slower,
	// better ratio, used for the cold/archival tier.
	CompressionZstd CompressionMethod = 2
)

var zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
var zstdDecoder, _ = zstd.NewReader(nil)

// Compress encodes src with method, returning the compressed bytes.
func Compress(method CompressionMethod, src []byte) ([]byte, error) {
	switch method {
	case CompressionNone:
		return src, nil
	case CompressionSnappy:
		return snappy.Encode(nil, src), nil
	case CompressionZstd:
		return zstdEncoder.EncodeAll(src, nil), nil
	default:
		return nil, arrerrors.New(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader, "unknown compression method %d", method)
	}
}

// Decompress reverses Compress, expecting decompressedSize bytes of output.
func Decompress(method CompressionMethod, src []byte, decompressedSize int) ([]byte, error) {
	switch method {
	case CompressionNone:
		return src, nil
	case CompressionSnappy:
		dst := make([]byte, 0, decompressedSize)
		out, err := snappy.Decode(dst, src)
		if err != nil {
			return nil, arrerrors.Wrap(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader, err)
		}
		return out, nil
	case CompressionZstd:
		out, err := zstdDecoder.DecodeAll(src, make([]byte, 0, decompressedSize))
		if err != nil {
			return nil, arrerrors.Wrap(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader, err)
		}
		return out, nil
	default:
		return nil, arrerrors.New(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader, "unknown compression method %d", method)
	}
}

// copyReader drains r into a buffer. Nothing in the package calls it;
// PersistentChunk.Write takes its payload as a byte slice.
func copyReader(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, arrerrors.Wrap(arrerrors.ClassStorage, arrerrors.CodeCorruptedHeader, err)
	}
	return buf.Bytes(), nil
}
