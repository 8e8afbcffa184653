package storage

import "sync"

// nLatches is the size of the fixed per-chunk latch table: address hashes
// into this table so that concurrent access to the *same* chunk is
// serialized without requiring one mutex per chunk (§5).
const nLatches = 257

// latchTable is a fixed array of mutexes shared by every PersistentChunk
// registered with a Storage, addressed by a hash of the chunk's address.
// Grounded on the teacher's pattern of small fixed-size contention-striping
// tables (e.g. util/chunk/row_container.go's per-row-container locking),
// generalized here to a hash-striped latch table per §5.
type latchTable struct {
	mus [nLatches]sync.Mutex
}

func newLatchTable() *latchTable { return &latchTable{} }

func (lt *latchTable) getChunkLatch(key uint64) *sync.Mutex {
	return &lt.mus[key%nLatches]
}
