// Package sortexec implements the external sort engine (§4.6): partition
// the input into in-memory sorted runs bounded by memLimit, seal a run once
// its memory limit is reached (runs stay in memory; nothing is written to
// disk), and merge runs with a k-way heap merge once more than nStreams
// runs accumulate.
//
// Grounded directly on executor/sort.go's SortExec (fetchRowChunks's
// partition-then-spill loop, multiWayMerge's container/heap k-way merge)
// and util/chunk/row_container.go's SortedRowContainer (tuple footprint
// tracking via a memory.Tracker, a spill action that seals the run),
// generalized from row-columnar tuples to this module's chunk.CellValue
// tuples.
package sortexec

import "github.com/scidb-go/arraydb/internal/coord"

// Tuple is one sortable row: the cell values in schema-attribute order,
// plus the source position they were read from (used by preservePositions
// output columns, §4.6).
type Tuple struct {
	Values   []interface{}
	ChunkPos coord.Coordinates
	CellPos  coord.Coordinates
}

// estimatedTupleSize is a fixed per-tuple footprint estimate, mirroring
// the teacher's "8 * cap(RowPtrs)" pointer-table accounting — rather than
// a fine-grained per-type size table (out of scope for this execution
// core's type-agnostic cell model), every attribute value is conservatively
// costed as one machine word.
const wordSize = 8

func estimatedTupleSize(nAttrs int) int64 {
	return int64((nAttrs+4)*wordSize)
}

// TupleComparator orders two Tuples by one or more key columns with
// ascending/descending flags (§4.6's TupleComparator).
type TupleComparator struct {
	KeyColumns []int
	Descending []bool
}

// Less reports whether a sorts before b.
func (c TupleComparator) Less(a, b Tuple) bool {
	for i, col := range c.KeyColumns {
		cmp := compareCell(a.Values[col], b.Values[col])
		if i < len(c.Descending) && c.Descending[i] {
			cmp = -cmp
		}
		if cmp < 0 {
			return true
		}
		if cmp > 0 {
			return false
		}
	}
	return false
}

// compareCell compares two cell values of the same underlying type,
// supporting the numeric and string kinds this execution core's untyped
// CellValue model carries at the iterator boundary.
func compareCell(a, b interface{}) int {
	switch av := a.(type) {
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}
