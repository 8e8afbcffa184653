// Package rowcollection supplements the group-by row buffering mentioned
// only in passing by component C9, per original_source/include/array/
// RowCollection.h/.cpp: a 2-D array simulating a collection of rows keyed
// by an arbitrary group key, with a buffered append mode and a read mode
// that opens per-row iterators. OpenRow takes the collection's lock to
// capture a row's committed items; the iterators themselves take no lock.
//
// The original backs rows with a chunked MemArray and amortizes appends
// across chunk-aligned writes; here the backing store is a plain Go slice
// of rows per group, which is the idiomatic equivalent once chunk-level
// I/O batching is not the point being demonstrated — appendItem still
// buffers before committing, preserving the two-phase append/flush shape
// that gives the type its memory-accounting hook.
package rowcollection

import (
	"sort"
	"sync"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/memory"
	"github.com/scidb-go/arraydb/internal/stringutil"
)

// Mode is RowCollectionModeRead/RowCollectionModeAppend from the original.
type Mode bool

const (
	ModeAppend Mode = false
	ModeRead   Mode = true
)

// UnknownRowID mirrors UNKNOWN_ROW_ID: pass it to AppendItem to have a
// fresh row allocated (or an existing group's row reused) and reported
// back via the rowID out-parameter.
const UnknownRowID = -1

// Row is one buffered/stored item: one value per attribute, matching the
// original's vector<Value> (excluding the implicit empty tag).
type Row []chunk.CellValue

// RowCollection buffers rows-per-group and, once switched to read mode,
// serves them back out through RowIterator. For now it only allows
// single-threaded appends, same restriction the original states.
type RowCollection[Group comparable] struct {
	mu sync.Mutex

	groupToRow map[Group]int
	rows       [][]Row // rows[rowID] is the committed rows for that group

	appendBuffer    map[int][]Row
	sizeBuffered    int64
	maxSizeBuffered int64

	mode Mode

	memTracker *memory.Tracker
}

// NewRowCollection creates an empty collection in append mode. A
// maxSizeBuffered <= 0 means flush only on mode switch or explicit Flush.
func NewRowCollection[Group comparable](maxSizeBuffered int64, parent *memory.Tracker) *RowCollection[Group] {
	rc := &RowCollection[Group]{
		groupToRow:      map[Group]int{},
		appendBuffer:    map[int][]Row{},
		maxSizeBuffered: maxSizeBuffered,
		mode:            ModeAppend,
	}
	rc.memTracker = memory.NewTracker(stringutil.StringerStr("rowCollection"), -1)
	if parent != nil {
		rc.memTracker.AttachTo(parent)
	}
	return rc
}

func estimateRowSize(r Row) int64 { return int64(len(r)) * 16 }

// ExistsGroup reports whether group has a row assigned.
func (rc *RowCollection[Group]) ExistsGroup(group Group) bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	_, ok := rc.groupToRow[group]
	return ok
}

// RowIDFromExistingGroup returns the rowID for a group known to exist.
func (rc *RowCollection[Group]) RowIDFromExistingGroup(group Group) int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	id, ok := rc.groupToRow[group]
	if !ok {
		panic("rowcollection: group does not exist")
	}
	return id
}

// AppendItem appends item to the row for group. If *rowID is
// UnknownRowID, the row is resolved (or created) from group and written
// back into *rowID so subsequent calls for the same group can skip the
// group lookup, mirroring the original's "fast path" usage.
func (rc *RowCollection[Group]) AppendItem(rowID *int, group Group, item Row) {
	if rc.mode != ModeAppend {
		panic("rowcollection: AppendItem called outside append mode")
	}
	rc.mu.Lock()
	if *rowID == UnknownRowID {
		id, ok := rc.groupToRow[group]
		if !ok {
			id = len(rc.rows)
			rc.rows = append(rc.rows, nil)
			rc.groupToRow[group] = id
		}
		*rowID = id
	}
	rc.appendBuffer[*rowID] = append(rc.appendBuffer[*rowID], item)
	sz := estimateRowSize(item)
	rc.sizeBuffered += sz
	rc.memTracker.Consume(sz)
	needFlush := rc.maxSizeBuffered > 0 && rc.sizeBuffered >= rc.maxSizeBuffered
	rc.mu.Unlock()

	if needFlush {
		rc.Flush()
	}
}

// Flush commits every buffered row into its group's backing slice.
func (rc *RowCollection[Group]) Flush() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.flushLocked()
}

func (rc *RowCollection[Group]) flushLocked() {
	for rowID, items := range rc.appendBuffer {
		rc.rows[rowID] = append(rc.rows[rowID], items...)
	}
	rc.appendBuffer = map[int][]Row{}
	rc.sizeBuffered = 0
}

// SwitchMode toggles between append and read mode, flushing the append
// buffer when switching into read mode (the original's switchMode).
func (rc *RowCollection[Group]) SwitchMode(dest Mode) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if dest == rc.mode {
		return
	}
	if dest == ModeRead {
		rc.flushLocked()
	}
	rc.mode = dest
}

// NumRows reports how many distinct rows (groups) exist.
func (rc *RowCollection[Group]) NumRows() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.rows)
}

// OpenRow returns a RowIterator over rowID's committed items. Only valid
// in read mode.
func (rc *RowCollection[Group]) OpenRow(rowID int) *RowIterator {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.mode != ModeRead {
		panic("rowcollection: OpenRow called outside read mode")
	}
	return &RowIterator{rowID: rowID, data: rc.rows[rowID]}
}

// SortAllRows sorts every row's items by column attrIdx (ascending via
// less) and writes the sorted rows into dest, which must be a freshly
// created collection sharing this one's groups, mirroring the original's
// "sequential write into a new array is faster" rationale.
func (rc *RowCollection[Group]) SortAllRows(attrIdx int, less func(a, b chunk.CellValue) bool, dest *RowCollection[Group]) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	dest.mu.Lock()
	defer dest.mu.Unlock()

	for group, rowID := range rc.groupToRow {
		dest.groupToRow[group] = rowID
	}
	dest.rows = make([][]Row, len(rc.rows))
	for rowID, items := range rc.rows {
		sorted := append([]Row(nil), items...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return less(sorted[i][attrIdx], sorted[j][attrIdx])
		})
		dest.rows[rowID] = sorted
	}
}

// RowIterator walks one row's items in order. It holds the row's item slice
// as captured by OpenRow and does not take the collection's mutex; its
// methods are not synchronized with each other or with the collection.
type RowIterator struct {
	rowID int
	data  []Row
	pos   int
}

func (it *RowIterator) End() bool { return it.pos >= len(it.data) }

func (it *RowIterator) GetItem() Row {
	if it.End() {
		panic("rowcollection: GetItem called at end")
	}
	return it.data[it.pos]
}

func (it *RowIterator) Next() {
	if it.End() {
		panic("rowcollection: Next called at end")
	}
	it.pos++
}

func (it *RowIterator) Position() int { return it.pos }

func (it *RowIterator) SetPosition(pos int) bool {
	if pos < 0 || pos > len(it.data) {
		return false
	}
	it.pos = pos
	return true
}

func (it *RowIterator) Reset() { it.pos = 0 }

func (it *RowIterator) RowID() int { return it.rowID }
