// Package coord implements the array data model described in the
// execution-core specification §3: coordinates, dimension/attribute
// descriptors, ArrayDesc, and the closed set of partitioning schemes.
//
// Grounded on the teacher's descriptor style (plain structs, no getters
// beyond what callers need, zap-friendly String() methods) as seen in
// util/chunk/row_container.go's use of *types.FieldType.
package coord

import (
	"fmt"
	"strings"
)

// Coordinates is an ordered sequence of signed 64-bit integers identifying
// a cell in n-dimensional space (§3).
type Coordinates []int64

// Less implements strict lexicographic order (§3's CoordinatesLess).
func Less(a, b Coordinates) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// Equal reports componentwise equality.
func Equal(a, b Coordinates) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy.
func (c Coordinates) Clone() Coordinates {
	out := make(Coordinates, len(c))
	copy(out, c)
	return out
}

func (c Coordinates) String() string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Dimension is a dimension descriptor (§3): name, inclusive [startMin,
// endMax], current range [currStart, currEnd], chunkInterval > 0,
// chunkOverlap >= 0.
type Dimension struct {
	Name          string
	StartMin      int64
	EndMax        int64
	CurrStart     int64
	CurrEnd       int64
	ChunkInterval int64
	ChunkOverlap  int64
}

// Length returns the number of addressable positions in [StartMin, EndMax],
// or -1 if EndMax is the "unbounded" sentinel (used by sort output dim n).
func (d Dimension) Length() int64 {
	if d.EndMax < d.StartMin {
		return -1
	}
	return d.EndMax - d.StartMin + 1
}

// IsZeroLength reports the §8 boundary case of a dimension with no valid
// positions at all (CurrEnd < CurrStart).
func (d Dimension) IsZeroLength() bool {
	return d.CurrEnd < d.CurrStart
}

func (d Dimension) String() string {
	return fmt.Sprintf("%s=%d:%d,%d,%d", d.Name, d.StartMin, d.EndMax, d.ChunkInterval, d.ChunkOverlap)
}

// AttrFlag is a bitmask of attribute flags (§3).
type AttrFlag uint8

const (
	AttrNullable      AttrFlag = 1 << iota // value may be SQL NULL
	AttrEmptyIndicator                     // this is the hidden empty-bitmap attribute
)

// Attribute is an attribute descriptor (§3).
type Attribute struct {
	ID                 int
	Name               string
	TypeID             string
	Flags              AttrFlag
	DefaultCompression uint8
	DefaultValue       interface{}
}

// IsNullable reports whether the attribute may hold null.
func (a Attribute) IsNullable() bool { return a.Flags&AttrNullable != 0 }

// IsEmptyIndicator reports whether this is the hidden empty-bitmap attribute.
func (a Attribute) IsEmptyIndicator() bool { return a.Flags&AttrEmptyIndicator != 0 }

func (a Attribute) String() string {
	return fmt.Sprintf("%s:%s", a.Name, a.TypeID)
}

// PartitioningScheme is the closed set of partitioning schemes (§3).
type PartitioningScheme int

const (
	SchemeUndefined PartitioningScheme = iota
	SchemeReplication
	SchemeHashPartitioned
	SchemeLocalInstance
	SchemeByRow
	SchemeByCol
	SchemeGroupBy
	SchemeScaLAPACK
)

func (s PartitioningScheme) String() string {
	switch s {
	case SchemeReplication:
		return "replication"
	case SchemeHashPartitioned:
		return "hashPartitioned"
	case SchemeLocalInstance:
		return "localInstance"
	case SchemeByRow:
		return "byRow"
	case SchemeByCol:
		return "byCol"
	case SchemeGroupBy:
		return "groupBy"
	case SchemeScaLAPACK:
		return "scaLAPACK"
	default:
		return "undefined"
	}
}

// ArrayDesc describes an array at one plan edge (§3): name, id/uaid/version
// triple, ordered attributes (last may be a hidden empty-bitmap attribute),
// ordered dimensions, and the partitioning scheme currently in force.
type ArrayDesc struct {
	Name       string
	ID         int64 // versioned id
	UAID       int64 // unversioned array id
	Version    int64 // >= 0
	Attributes []Attribute
	Dimensions []Dimension
	Scheme     PartitioningScheme
}

// EmptyBitmapAttrID returns the id of the hidden empty-bitmap attribute, or
// -1 if this schema carries none.
func (d ArrayDesc) EmptyBitmapAttrID() int {
	if len(d.Attributes) == 0 {
		return -1
	}
	last := d.Attributes[len(d.Attributes)-1]
	if last.IsEmptyIndicator() {
		return last.ID
	}
	return -1
}

// ChunkIntervals returns the per-dimension chunk interval vector, used
// pervasively by the chunk/address math in internal/chunk.
func (d ArrayDesc) ChunkIntervals() []int64 {
	out := make([]int64, len(d.Dimensions))
	for i, dim := range d.Dimensions {
		out[i] = dim.ChunkInterval
	}
	return out
}

func (d ArrayDesc) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s<", d.Name)
	for i, a := range d.Attributes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteString(">[")
	for i, dim := range d.Dimensions {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(dim.String())
	}
	fmt.Fprintf(&b, "]@%s", d.Scheme)
	return b.String()
}

// Address identifies one chunk: (attrId, chunkCoords); strict order is
// attrId then lexicographic coords (§3).
type Address struct {
	AttrID     int
	ChunkCoord Coordinates
}

// Less implements Address's strict order.
func (a Address) Less(b Address) bool {
	if a.AttrID != b.AttrID {
		return a.AttrID < b.AttrID
	}
	return Less(a.ChunkCoord, b.ChunkCoord)
}

func (a Address) String() string {
	return fmt.Sprintf("(%d,%s)", a.AttrID, a.ChunkCoord)
}

// AlignToChunk returns the first position of the chunk containing pos for
// the given dimensions, per §3's firstPos invariant:
// firstPos[i] % chunkInterval[i] == startMin[i] % chunkInterval[i].
func AlignToChunk(pos Coordinates, dims []Dimension) Coordinates {
	out := make(Coordinates, len(pos))
	for i, v := range pos {
		interval := dims[i].ChunkInterval
		startMin := dims[i].StartMin
		rem := (v - startMin) % interval
		if rem < 0 {
			rem += interval
		}
		out[i] = v - rem
	}
	return out
}

// ChunkLastPos computes lastPos[i] = min(firstPos[i]+chunkInterval[i]-1, endMax[i]) (§3).
// A dimension whose EndMax < StartMin (the sort output's unbounded
// sentinel, see Dimension.Length) is never clamped.
func ChunkLastPos(firstPos Coordinates, dims []Dimension) Coordinates {
	out := make(Coordinates, len(firstPos))
	for i, v := range firstPos {
		last := v + dims[i].ChunkInterval - 1
		if dims[i].EndMax >= dims[i].StartMin && last > dims[i].EndMax {
			last = dims[i].EndMax
		}
		out[i] = last
	}
	return out
}

// ChunkFirstPosWithOverlap computes firstPosWithOverlap[i] =
// max(startMin[i], firstPos[i]-overlap[i]) (§3).
func ChunkFirstPosWithOverlap(firstPos Coordinates, dims []Dimension) Coordinates {
	out := make(Coordinates, len(firstPos))
	for i, v := range firstPos {
		withOverlap := v - dims[i].ChunkOverlap
		if withOverlap < dims[i].StartMin {
			withOverlap = dims[i].StartMin
		}
		out[i] = withOverlap
	}
	return out
}

// ChunkLastPosWithOverlap computes lastPosWithOverlap[i] analogous to
// ChunkFirstPosWithOverlap (§3).
func ChunkLastPosWithOverlap(lastPos Coordinates, dims []Dimension) Coordinates {
	out := make(Coordinates, len(lastPos))
	for i, v := range lastPos {
		withOverlap := v + dims[i].ChunkOverlap
		if dims[i].EndMax >= dims[i].StartMin && withOverlap > dims[i].EndMax {
			withOverlap = dims[i].EndMax
		}
		out[i] = withOverlap
	}
	return out
}
