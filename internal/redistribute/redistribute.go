// Package redistribute implements the partitioning-scheme transition
// plumbing of §4.5: wrapping an input in an SG producer for the target
// scheme, materializing results into an existing array, and the
// destination-side chunk merge rule (aggregate or overwrite).
//
// Grounded on util/chunk/row_container.go's producer/consumer handoff,
// generalized from row batches to chunk-at-a-time merge, since the teacher
// itself is single-node and has no redistribution layer of its own.
package redistribute

import (
	"context"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/scidb-go/arraydb/internal/sg"
)

// MergeMode selects the destination-side chunk merge rule (§4.5).
type MergeMode int

const (
	// MergeOverwrite: a later-arriving live cell replaces the destination's.
	MergeOverwrite MergeMode = iota
	// MergeAggregate: live cells are combined via an Aggregator.
	MergeAggregate
)

// Aggregator folds a newly-arrived cell value into the destination's
// existing value at the same position (§4.5's mergeIfNeeded/
// accumulateIfNeeded).
type Aggregator interface {
	// AccumulateIfNeeded seeds the destination's running state from v, when
	// the destination cell was previously empty.
	AccumulateIfNeeded(v chunk.CellValue) chunk.CellValue
	// MergeIfNeeded folds v into an existing running aggregate state.
	MergeIfNeeded(state, v chunk.CellValue) chunk.CellValue
}

// Redistribute wraps every attribute of input's schema in a PullSGArray
// and returns a blocking driver over all of them (§4.5: "a standard
// pipeline: wrap input in an SG producing toScheme, then return a
// PullSGArray[Blocking]"). The scheme is recorded on the returned
// descriptor for callers that need to inspect it; this package does not
// itself enforce scheme-specific routing, which belongs to the SG layer's
// destination-instance computation.
func Redistribute(ctx context.Context, desc coord.ArrayDesc, toScheme coord.PartitioningScheme, transport sg.Transport, prefetchSize int, sources []int) (coord.ArrayDesc, *sg.PullSGArrayBlocking) {
	desc.Scheme = toScheme
	cores := make(map[int]*sg.PullSGArray, len(desc.Attributes))
	for _, attr := range desc.Attributes {
		cores[attr.ID] = sg.NewPullSGArray(ctx, transport, attr.ID, 0, prefetchSize, sources)
	}
	return desc, sg.NewPullSGArrayBlocking(cores)
}

// RedistributeToArray materializes a redistributed stream into dest
// (§4.5), applying mode's merge rule wherever a chunk already exists at
// the received position, and returns every position a chunk was written
// to (new or merged).
func RedistributeToArray(ctx context.Context, blocking *sg.PullSGArrayBlocking, attrs []int, dest *chunk.MemArray, mode MergeMode, agg Aggregator) ([]coord.Coordinates, error) {
	var written []coord.Coordinates
	// position key -> bitmap-attribute's bitmap, so a same-position
	// real-attribute chunk received afterward can borrow it (§4.5 step 2).
	bitmapCache := make(map[string]*chunk.EmptyBitmap)
	bitmapAttr := dest.Desc().EmptyBitmapAttrID()

	err := blocking.PullAttributes(ctx, attrs, func(attrID int, c *chunk.Chunk) error {
		addr := coord.Address{AttrID: attrID, ChunkCoord: c.FirstPos()}
		key := c.FirstPos().String()

		if attrID == bitmapAttr {
			bitmapCache[key] = c.Bitmap().Clone()
		} else if cached, ok := bitmapCache[key]; ok {
			c.SetBitmap(cached)
		}

		existing := dest.GetChunk(addr)
		if existing == nil {
			dest.PutChunk(c)
			written = append(written, c.FirstPos())
			return nil
		}
		mergeChunk(existing, c, mode, agg)
		written = append(written, c.FirstPos())
		return nil
	})
	return written, err
}

// mergeChunk implements §4.5's destination-side merge: for each live cell
// of incoming, either aggregate-merge or overwrite-merge into existing.
func mergeChunk(existing, incoming *chunk.Chunk, mode MergeMode, agg Aggregator) {
	for idx := 0; idx < incoming.NumCells() && idx < existing.NumCells(); idx++ {
		v, live := incoming.CellAt(idx)
		if !live {
			continue
		}
		if mode == MergeAggregate && agg != nil {
			if prior, ok := existing.CellAt(idx); ok {
				existing.SetCellAt(idx, agg.MergeIfNeeded(prior, v))
			} else {
				existing.SetCellAt(idx, agg.AccumulateIfNeeded(v))
			}
			continue
		}
		existing.SetCellAt(idx, v)
	}
}
