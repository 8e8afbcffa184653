package chunk

import (
	"bytes"
	"encoding/gob"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/coord"
)

// wireChunk is the gob-serializable snapshot of a Chunk used by the SG wire
// layer (§6) to move chunks between instances. Kept separate from Chunk
// itself so the in-memory representation (bitmap word array, RLE-friendly
// cell slice) stays free to evolve independently of the wire format.
type wireChunk struct {
	Addr                coord.Address
	FirstPos            coord.Coordinates
	LastPos             coord.Coordinates
	FirstPosWithOverlap coord.Coordinates
	LastPosWithOverlap  coord.Coordinates
	Dims                []coord.Dimension
	BitmapWords         []uint64
	BitmapNBits         int
	Cells               []CellValue
}

func init() {
	gob.Register(coord.Coordinates{})
}

// EncodeChunk serializes c for network transport.
func EncodeChunk(c *Chunk) ([]byte, error) {
	wc := wireChunk{
		Addr:                c.Addr,
		FirstPos:            c.firstPos,
		LastPos:             c.lastPos,
		FirstPosWithOverlap: c.firstPosWithOverlap,
		LastPosWithOverlap:  c.lastPosWithOverlap,
		Dims:                c.dims,
		BitmapWords:         c.bitmap.words,
		BitmapNBits:         c.bitmap.nBits,
		Cells:               c.cells,
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wc); err != nil {
		return nil, arrerrors.Wrap(arrerrors.ClassNetwork, arrerrors.CodeUnknownMessageType, err)
	}
	return buf.Bytes(), nil
}

// DecodeChunk reconstructs a Chunk from EncodeChunk's output.
func DecodeChunk(data []byte) (*Chunk, error) {
	var wc wireChunk
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wc); err != nil {
		return nil, arrerrors.Wrap(arrerrors.ClassNetwork, arrerrors.CodeUnknownMessageType, err)
	}
	return &Chunk{
		Addr:                wc.Addr,
		firstPos:            wc.FirstPos,
		lastPos:             wc.LastPos,
		firstPosWithOverlap: wc.FirstPosWithOverlap,
		lastPosWithOverlap:  wc.LastPosWithOverlap,
		dims:                wc.Dims,
		bitmap:              &EmptyBitmap{words: wc.BitmapWords, nBits: wc.BitmapNBits},
		cells:               wc.Cells,
	}, nil
}
