package chunk

import "github.com/scidb-go/arraydb/internal/coord"

// DelegateArray is the composition primitive every wrapping array embeds
// instead of inheriting from a base Array class (§9's "deep inheritance"
// redesign note): it carries (a) the input array it holds by reference,
// (b) an IsClone flag that, when true, permits a wrapper to shortcut
// straight through to the input for operations it does not need to
// transform (§4.1).
type DelegateArray struct {
	Input   Array
	IsClone bool
}

func (d DelegateArray) Desc() coord.ArrayDesc { return d.Input.Desc() }

func (d DelegateArray) AccessMode() AccessMode { return d.Input.AccessMode() }

// DelegateChunkIterator wraps an existing ChunkIterator, forwarding every
// call by default; embedders override only the methods whose semantics
// they need to change (e.g. MergeArray's cursor re-merge, §4.1).
type DelegateChunkIterator struct {
	ChunkIterator
}
