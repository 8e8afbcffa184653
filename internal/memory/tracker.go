// Package memory ports the teacher's memory accounting idiom
// (util/memory/action.go's ActionOnExceed interface, and the Tracker type
// referenced throughout util/chunk/row_container.go) into a
// self-contained tree of byte counters used by the external sort engine
// and the SG flow-control layer.
package memory

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Tracker is a node in a tree of byte counters. Consuming bytes on a child
// also consumes them on every ancestor, the way row_container.go attaches
// a RowContainer's memTracker to its owning executor's tracker.
type Tracker struct {
	label      fmt.Stringer
	bytesLimit int64 // <= 0 means unlimited

	consumed int64 // atomic

	mu       sync.Mutex
	parent   *Tracker
	children map[*Tracker]struct{}
	actions  []ActionOnExceed
}

// NewTracker creates a tracker with an optional byte limit (<=0 means
// unbounded), mirroring memory.NewTracker(label, bytesLimit) as called
// from executor/sort.go's SortExec.Open.
func NewTracker(label fmt.Stringer, bytesLimit int64) *Tracker {
	return &Tracker{label: label, bytesLimit: bytesLimit, children: map[*Tracker]struct{}{}}
}

// SetLabel renames the tracker, as row_container.go does via
// rowChunks.GetMemTracker().SetLabel(rowChunksLabel).
func (t *Tracker) SetLabel(label fmt.Stringer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.label = label
}

// Label returns the tracker's current label.
func (t *Tracker) Label() fmt.Stringer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.label
}

// AttachTo reparents t under parent, propagating t's current consumption.
func (t *Tracker) AttachTo(parent *Tracker) {
	t.mu.Lock()
	oldParent := t.parent
	t.mu.Unlock()
	if oldParent != nil {
		oldParent.removeChild(t)
		oldParent.Consume(-atomic.LoadInt64(&t.consumed))
	}

	t.mu.Lock()
	t.parent = parent
	t.mu.Unlock()
	if parent != nil {
		parent.addChild(t)
		parent.Consume(atomic.LoadInt64(&t.consumed))
	}
}

func (t *Tracker) addChild(c *Tracker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.children[c] = struct{}{}
}

func (t *Tracker) removeChild(c *Tracker) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.children, c)
}

// ReplaceChild swaps an old child tracker for a new one in place, carrying
// over the new child's consumption delta to the parent chain. Mirrors
// TopNExec.doCompaction's memTracker.ReplaceChild call in executor/sort.go.
func (t *Tracker) ReplaceChild(oldChild, newChild *Tracker) {
	t.mu.Lock()
	delete(t.children, oldChild)
	t.children[newChild] = struct{}{}
	t.mu.Unlock()

	newChild.mu.Lock()
	newChild.parent = t
	newChild.mu.Unlock()

	t.Consume(atomic.LoadInt64(&newChild.consumed) - atomic.LoadInt64(&oldChild.consumed))
}

// Consume adds bytes (negative to release) to this tracker and every
// ancestor, firing ActionOnExceed handlers (most specific first) if the
// new total breaches this tracker's limit.
func (t *Tracker) Consume(bytes int64) {
	if bytes == 0 {
		return
	}
	for tr := t; tr != nil; tr = tr.parentOf() {
		total := atomic.AddInt64(&tr.consumed, bytes)
		if tr.bytesLimit > 0 && total > tr.bytesLimit {
			tr.runActions()
		}
	}
}

func (t *Tracker) parentOf() *Tracker {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.parent
}

// BytesConsumed returns the current consumption of this tracker alone.
func (t *Tracker) BytesConsumed() int64 {
	return atomic.LoadInt64(&t.consumed)
}

// GetBytesLimit returns the configured limit (<=0 means unlimited).
func (t *Tracker) GetBytesLimit() int64 {
	return t.bytesLimit
}

// SetBytesLimit adjusts the tracker's limit at runtime.
func (t *Tracker) SetBytesLimit(limit int64) {
	atomic.StoreInt64(&t.bytesLimit, limit)
}

// FallbackOldAndSetNewAction installs action as the tracker's primary
// handler, chaining any existing handler as its fallback — mirrors
// StmtCtx.MemTracker.FallbackOldAndSetNewAction(e.spillAction) in
// executor/sort.go's fetchRowChunks.
func (t *Tracker) FallbackOldAndSetNewAction(action ActionOnExceed) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.actions) > 0 {
		action.SetFallback(t.actions[len(t.actions)-1])
	}
	t.actions = append(t.actions, action)
}

// runActions fires only the primary (most recently installed) action; older
// actions are reached through that action's own fallback chain.
func (t *Tracker) runActions() {
	t.mu.Lock()
	var primary ActionOnExceed
	if n := len(t.actions); n > 0 {
		primary = t.actions[n-1]
	}
	t.mu.Unlock()
	if primary != nil {
		primary.Action(t)
	}
}

func (t *Tracker) String() string {
	label := ""
	if t.label != nil {
		label = t.label.String()
	}
	return fmt.Sprintf("tracker(%s consumed=%d limit=%d)", label, t.BytesConsumed(), t.bytesLimit)
}
