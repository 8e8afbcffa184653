package storage

import (
	"container/list"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/coord"
)

// PersistentChunk is the on-disk counterpart of chunk.Chunk: a descriptor
// plus compressed payload bytes, pinned into memory on demand and unpinned
// back into the LRU pool when its reference count drops to zero (§4.2).
type PersistentChunk struct {
	desc ChunkDescriptor
	addr coord.Address

	mu       sync.Mutex
	pinCount int32
	payload  []byte // compressed bytes, valid only while pinCount > 0

	lruElem *list.Element // nil unless resident in the LRU pool
}

// setAddress binds the chunk to its logical array address; called once at
// creation before the descriptor is written (§4.2).
func (pc *PersistentChunk) setAddress(addr coord.Address) {
	pc.addr = addr
	pc.desc.Coordinates = addr.ChunkCoord.Clone()
}

func (pc *PersistentChunk) Address() coord.Address { return pc.addr }

func (pc *PersistentChunk) Descriptor() ChunkDescriptor { return pc.desc }

func hashAddress(addr coord.Address) uint64 {
	h := fnv.New64a()
	h.Write([]byte(addr.String()))
	return h.Sum64()
}

// Storage owns the latch table and LRU pool shared by every PersistentChunk
// it loads, mirroring the teacher's single shared resource-tracking root
// (internal/memory.Tracker) generalized to disk-resident chunk pinning.
type Storage struct {
	latches *latchTable

	lruMu sync.Mutex
	lru   *list.List // most-recently-unpinned at the back
	inLRU map[*PersistentChunk]struct{}

	resident int64 // atomic count of currently-pinned chunks
}

// NewStorage creates an empty Storage with its own latch table and LRU pool.
func NewStorage() *Storage {
	return &Storage{
		latches: newLatchTable(),
		lru:     list.New(),
		inLRU:   make(map[*PersistentChunk]struct{}),
	}
}

// NewPersistentChunk allocates a fresh, unpinned descriptor for addr; the
// caller must Pin it before touching payload bytes.
func (s *Storage) NewPersistentChunk(addr coord.Address, arrID int64, attID int) *PersistentChunk {
	pc := &PersistentChunk{}
	pc.setAddress(addr)
	pc.desc.ArrID = arrID
	pc.desc.AttID = attID
	return pc
}

// pin increments the reference count, removing the chunk from the LRU pool
// if it was idle there (§4.2's "pin/unpin ref-counting").
func (s *Storage) pin(pc *PersistentChunk) {
	latch := s.latches.getChunkLatch(hashAddress(pc.addr))
	latch.Lock()
	defer latch.Unlock()

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.pinCount == 0 {
		s.lruMu.Lock()
		if pc.lruElem != nil {
			s.lru.Remove(pc.lruElem)
			pc.lruElem = nil
			delete(s.inLRU, pc)
		}
		s.lruMu.Unlock()
		atomic.AddInt64(&s.resident, 1)
	}
	pc.pinCount++
}

// unPin decrements the reference count; at zero the chunk becomes eligible
// for LRU eviction but its payload is kept resident until evicted.
func (s *Storage) unPin(pc *PersistentChunk) error {
	latch := s.latches.getChunkLatch(hashAddress(pc.addr))
	latch.Lock()
	defer latch.Unlock()

	pc.mu.Lock()
	defer pc.mu.Unlock()
	if pc.pinCount <= 0 {
		return arrerrors.ErrChunkNotPinned(pc.addr)
	}
	pc.pinCount--
	if pc.pinCount == 0 {
		atomic.AddInt64(&s.resident, -1)
		s.lruMu.Lock()
		pc.lruElem = s.lru.PushBack(pc)
		s.inLRU[pc] = struct{}{}
		s.lruMu.Unlock()
	}
	return nil
}

// Pin pins pc for the duration of the caller's access.
func (s *Storage) Pin(pc *PersistentChunk) { s.pin(pc) }

// Unpin releases a pin taken by Pin.
func (s *Storage) Unpin(pc *PersistentChunk) error { return s.unPin(pc) }

// PinCount reports the current reference count (test/debug use).
func (pc *PersistentChunk) PinCount() int32 {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.pinCount
}

// EvictOldest evicts up to n chunks from the front of the LRU pool (the
// longest-idle unpinned chunks), freeing their payload bytes. Returns the
// number actually evicted.
func (s *Storage) EvictOldest(n int) int {
	s.lruMu.Lock()
	defer s.lruMu.Unlock()
	evicted := 0
	for evicted < n {
		front := s.lru.Front()
		if front == nil {
			break
		}
		pc := front.Value.(*PersistentChunk)
		s.lru.Remove(front)
		delete(s.inLRU, pc)
		pc.mu.Lock()
		pc.lruElem = nil
		pc.payload = nil
		pc.mu.Unlock()
		evicted++
	}
	return evicted
}

// allocate reserves allocatedSize bytes for the chunk's compressed payload
// and records it in the descriptor (§4.2's buddy-block allocation is
// abstracted here to a size bookkeeping step; the bytes themselves live in
// a Go slice rather than a raw mmap'd arena, matching idiomatic Go rather
// than the original's manual allocator).
func (pc *PersistentChunk) allocate(allocatedSize int64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.desc.AllocatedSize = allocatedSize
	pc.payload = make([]byte, 0, allocatedSize)
}

// reallocate grows or shrinks the backing allocation, preserving existing
// payload bytes up to the smaller of the two sizes.
func (pc *PersistentChunk) reallocate(newSize int64) {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	old := pc.payload
	pc.payload = make([]byte, len(old), newSize)
	copy(pc.payload, old)
	pc.desc.AllocatedSize = newSize
}

// free releases the chunk's payload and marks its descriptor a tombstone
// (§3: "Tombstone chunks carry version + data-store id but no payload").
func (pc *PersistentChunk) free() {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.payload = nil
	pc.desc.Flags |= Tombstone
	pc.desc.Size = 0
	pc.desc.CompressedSize = 0
}

// Write compresses raw and stores it as the chunk's payload, updating the
// descriptor's size bookkeeping (§4.2).
func (pc *PersistentChunk) Write(method CompressionMethod, raw []byte) error {
	compressed, err := Compress(method, raw)
	if err != nil {
		return err
	}
	pc.mu.Lock()
	defer pc.mu.Unlock()
	if int64(len(compressed)) > pc.desc.AllocatedSize {
		pc.payload = make([]byte, len(compressed), len(compressed))
		pc.desc.AllocatedSize = int64(len(compressed))
	} else {
		pc.payload = pc.payload[:len(compressed)]
	}
	copy(pc.payload, compressed)
	pc.desc.CompressionMethod = uint8(method)
	pc.desc.CompressedSize = int64(len(compressed))
	pc.desc.Size = int64(len(raw))
	return nil
}

// Read decompresses and returns the chunk's raw payload; the caller must
// hold a pin.
func (pc *PersistentChunk) Read() ([]byte, error) {
	pc.mu.Lock()
	payload := pc.payload
	method := CompressionMethod(pc.desc.CompressionMethod)
	size := int(pc.desc.Size)
	pinned := pc.pinCount > 0
	pc.mu.Unlock()
	if !pinned {
		return nil, arrerrors.ErrChunkNotPinned(pc.addr)
	}
	return Decompress(method, payload, size)
}
