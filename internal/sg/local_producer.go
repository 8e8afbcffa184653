package sg

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/storage"
)

// ArrayProducer exposes a local chunk.ArrayIterator as an SG Producer,
// compressing each chunk before handing it to the Transport (§4.2's
// compression methods reused here for wire payloads, §4.4 for the
// request/response shape).
type ArrayProducer struct {
	mu       sync.Mutex
	it       chunk.ArrayIterator
	attrID   int
	method   storage.CompressionMethod
	instance int
	started  bool
}

// NewArrayProducer wraps it (already positioned at its first chunk, per
// this module's iterator convention) as a Producer for attrID.
func NewArrayProducer(instance, attrID int, it chunk.ArrayIterator, method storage.CompressionMethod) *ArrayProducer {
	return &ArrayProducer{it: it, attrID: attrID, method: method, instance: instance}
}

func (p *ArrayProducer) Produce(ctx context.Context, req Request) (Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := Message{MsgID: uuid.New().String(), AttrID: req.AttrID, SourceInstance: p.instance, DestStream: req.DestStream}

	if !p.started {
		p.started = true
	} else if !req.PositionOnly {
		p.it.Next()
	}

	if p.it.End() {
		base.Kind = KindEOF
		return base, nil
	}

	if req.PositionOnly {
		base.Kind = KindPositionOnly
		base.HasNextPos = true
		base.NextPos = p.it.Position()
		return base, nil
	}

	c, err := p.it.GetChunk()
	if err != nil {
		base.Kind = KindError
		base.Err = err
		return base, nil
	}
	raw, err := chunk.EncodeChunk(c)
	if err != nil {
		base.Kind = KindError
		base.Err = err
		return base, nil
	}
	compressed, err := storage.Compress(p.method, raw)
	if err != nil {
		base.Kind = KindError
		base.Err = err
		return base, nil
	}
	base.Kind = KindData
	base.ChunkPayload = compressed
	base.CompressionMethod = uint8(p.method)
	base.DecompressedSize = len(raw)
	return base, nil
}
