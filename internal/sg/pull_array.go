package sg

import (
	"container/heap"
	"context"
	"strconv"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/scidb-go/arraydb/internal/storage"
	"golang.org/x/sync/singleflight"
)

// RetryException signals that a pull could not make progress right now
// and must be retried by the caller's scheduler (§4.4); it is never a
// user-visible error.
type RetryException struct{ Reason string }

func (e *RetryException) Error() string { return "sg: retry: " + e.Reason }

// IsRetry reports whether err is a RetryException.
func IsRetry(err error) bool {
	_, ok := err.(*RetryException)
	return ok
}

// PullSGArray is a MultiStreamArray specialized for network transport
// (§4.4): it pulls the next chunk for (attribute, sourceInstance) flows on
// demand from a Transport, merges by position, and honors a prefetch
// window per stream.
type PullSGArray struct {
	attrID        int
	transport     Transport
	destStream    int
	prefetchSize  int
	sources       []int
	states        map[int]*streamState // sourceInstance -> state
	dedupe        singleflight.Group
	pending       map[int]*Chunk // sourceInstance -> decoded chunk awaiting consumption, keyed position implicit
	h             minHeap
	cur           int
	ctx           context.Context
}

// Chunk wraps a decoded chunk with the instance it came from, local alias
// to avoid importing chunk.Chunk under a confusing name in this file.
type Chunk = chunk.Chunk

type minHeap struct {
	items []heapItem
}

type heapItem struct {
	source int
	pos    coord.Coordinates
}

func (h *minHeap) Len() int            { return len(h.items) }
func (h *minHeap) Less(i, j int) bool  { return coord.Less(h.items[i].pos, h.items[j].pos) }
func (h *minHeap) Swap(i, j int)       { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *minHeap) Push(x interface{})  { h.items = append(h.items, x.(heapItem)) }
func (h *minHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// NewPullSGArray builds a PullSGArray pulling attrID from every instance in
// sources over transport, with a per-stream prefetch window of
// prefetchSize chunks (§4.4's "reduced per attribute by the number of
// concurrently requested attributes" policy is the caller's to apply when
// sizing prefetchSize).
func NewPullSGArray(ctx context.Context, transport Transport, attrID, destStream, prefetchSize int, sources []int) *PullSGArray {
	p := &PullSGArray{
		attrID:       attrID,
		transport:    transport,
		destStream:   destStream,
		prefetchSize: prefetchSize,
		sources:      sources,
		states:       make(map[int]*streamState, len(sources)),
		pending:      make(map[int]*Chunk, len(sources)),
		cur:          -1,
		ctx:          ctx,
	}
	for _, src := range sources {
		p.states[src] = newStreamState(streamKey{attrID: attrID, sourceInstance: src, destStream: destStream})
	}
	return p
}

// drainInbox moves any messages waiting on the transport's channel into
// their owning stream state, non-blocking.
func (p *PullSGArray) drainInbox() {
	for {
		select {
		case m := <-p.transport.Messages():
			if st, ok := p.states[m.SourceInstance]; ok {
				st.push(m)
			}
		default:
			return
		}
	}
}

// requestNext issues a data-bearing request for source if its prefetch
// window has room, deduping concurrent identical requests via singleflight
// (§4.4's position-only dedupe generalizes to data requests here).
func (p *PullSGArray) requestNext(source int) {
	st := p.states[source]
	if !st.canRequest(p.prefetchSize) {
		return
	}
	key := streamDedupeKey(p.attrID, source, p.destStream, false)
	st.markRequested()
	go p.dedupe.Do(key, func() (interface{}, error) {
		err := p.transport.SendRequest(p.ctx, source, Request{AttrID: p.attrID, SourceInstance: source, DestStream: p.destStream})
		return nil, err
	})
}

func streamDedupeKey(attrID, source, destStream int, positionOnly bool) string {
	suffix := "d"
	if positionOnly {
		suffix = "p"
	}
	return strconv.Itoa(attrID) + ":" + strconv.Itoa(source) + ":" + strconv.Itoa(destStream) + ":" + suffix
}

// pump advances every source stream one step: drains the inbox, requests
// more data where the window allows, and decodes any newly-cached chunk
// message into p.pending. Returns a RetryException if some source is not
// ready yet (§4.4 step 1 of the merge algorithm).
func (p *PullSGArray) pump() error {
	p.drainInbox()
	anyNotReady := false
	for _, src := range p.sources {
		if _, have := p.pending[src]; have {
			continue
		}
		st := p.states[src]
		if st.isEOF() {
			continue
		}
		if err := st.takeErr(); err != nil {
			return err
		}
		m, ok := st.popReady()
		if !ok {
			p.requestNext(src)
			anyNotReady = true
			continue
		}
		switch m.Kind {
		case KindData:
			raw, err := storage.Decompress(storage.CompressionMethod(m.CompressionMethod), m.ChunkPayload, m.DecompressedSize)
			if err != nil {
				return err
			}
			c, err := chunk.DecodeChunk(raw)
			if err != nil {
				return err
			}
			p.pending[src] = c
		case KindPositionOnly:
			// position already absorbed into streamState.knownNext by push();
			// nothing further to do until a data message arrives.
		case KindEOF:
			// state already marked eof by push()
		case KindError:
			return m.Err
		}
	}
	if anyNotReady {
		return &RetryException{Reason: "waiting on SG producer(s)"}
	}
	return nil
}

// rebuildHeap recomputes the merge heap from currently pending chunks.
func (p *PullSGArray) rebuildHeap() {
	p.h.items = p.h.items[:0]
	for src, c := range p.pending {
		heap.Push(&p.h, heapItem{source: src, pos: c.FirstPos()})
	}
	if p.h.Len() > 0 {
		p.cur = p.h.items[0].source
	} else {
		p.cur = -1
	}
}

// End reports whether every source stream is exhausted and nothing is
// pending.
func (p *PullSGArray) End() bool {
	if len(p.pending) > 0 {
		return false
	}
	for _, src := range p.sources {
		if !p.states[src].isEOF() {
			return false
		}
	}
	return true
}

// Next advances past the current minimum-position chunk. Returns false
// together with a *RetryException error when a source is not yet ready;
// the caller's scheduler should retry.
func (p *PullSGArray) Next() (bool, error) {
	if err := p.pump(); err != nil {
		if IsRetry(err) {
			return false, err
		}
		return false, err
	}
	if p.cur >= 0 {
		delete(p.pending, p.cur)
	}
	p.rebuildHeap()
	if p.End() {
		return false, nil
	}
	if p.cur < 0 {
		return false, &RetryException{Reason: "no chunk ready yet"}
	}
	return true, nil
}

func (p *PullSGArray) Position() coord.Coordinates {
	if p.cur < 0 {
		return nil
	}
	return p.pending[p.cur].FirstPos()
}

func (p *PullSGArray) GetChunk() (*Chunk, error) {
	if p.cur < 0 {
		if err := p.pump(); err != nil {
			return nil, err
		}
		p.rebuildHeap()
		if p.cur < 0 {
			return nil, arrerrors.New(arrerrors.ClassSystem, arrerrors.CodeSetPositionFailed, "getChunk: no SG source ready")
		}
	}
	return p.pending[p.cur], nil
}
