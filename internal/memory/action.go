package memory

import (
	"fmt"
	"sync"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/logutil"
	"go.uber.org/zap"
)

// ActionOnExceed is the action taken when a Tracker's consumption exceeds
// its limit. Ported verbatim in shape from util/memory/action.go; all
// implementors must be thread-safe (same requirement as the teacher).
type ActionOnExceed interface {
	Action(t *Tracker)
	SetLogHook(hook func(connID uint64))
	SetFallback(a ActionOnExceed)
	GetFallback() ActionOnExceed
	GetPriority() int64
}

// Priority order, same as the teacher's DefPanicPriority..DefRateLimitPriority.
const (
	PriorityPanic = iota
	PriorityLog
	PrioritySpill
	PriorityRateLimit
)

// BaseAction is embedded by every ActionOnExceed implementation to get the
// fallback bookkeeping for free (teacher's BaseOOMAction).
type BaseAction struct {
	mu       sync.Mutex
	fallback ActionOnExceed
}

func (b *BaseAction) SetFallback(a ActionOnExceed) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fallback = a
}

func (b *BaseAction) GetFallback() ActionOnExceed {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fallback
}

// LogOnExceed logs a warning once when the tracker's quota is exceeded.
type LogOnExceed struct {
	BaseAction
	mu      sync.Mutex
	acted   bool
	ConnID  uint64
	logHook func(uint64)
}

func (a *LogOnExceed) SetLogHook(hook func(uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logHook = hook
}

func (a *LogOnExceed) Action(t *Tracker) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.acted {
		return
	}
	a.acted = true
	if a.logHook == nil {
		logutil.BgLogger().Warn("memory exceeds quota",
			zap.Stringer("tracker", t), zap.Int64("consumed", t.BytesConsumed()), zap.Int64("limit", t.GetBytesLimit()))
		return
	}
	a.logHook(a.ConnID)
}

func (a *LogOnExceed) GetPriority() int64 { return PriorityLog }

// PanicOnExceed panics once the tracker's quota is exceeded, the last
// resort when no spill/rate-limit fallback is configured.
type PanicOnExceed struct {
	BaseAction
	mu      sync.Mutex
	acted   bool
	ConnID  uint64
	logHook func(uint64)
}

func (a *PanicOnExceed) SetLogHook(hook func(uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logHook = hook
}

func (a *PanicOnExceed) Action(t *Tracker) {
	a.mu.Lock()
	if a.acted {
		a.mu.Unlock()
		return
	}
	a.acted = true
	a.mu.Unlock()
	if a.logHook != nil {
		a.logHook(a.ConnID)
	}
	panic(arrerrors.New(arrerrors.ClassResource, arrerrors.CodeOutOfMemory,
		"memory quota exceeded [conn_id=%d]", a.ConnID))
}

func (a *PanicOnExceed) GetPriority() int64 { return PriorityPanic }

// SpillOnExceed invokes a callback to flush an in-memory structure to disk
// once the tracker's quota is exceeded, mirroring
// chunk.SortAndSpillDiskAction from executor/sort.go: the sort engine's
// TupleArray registers one of these on its memTracker so a full run spills
// instead of growing unbounded.
type SpillOnExceed struct {
	BaseAction
	mu      sync.Mutex
	logHook func(uint64)
	spill   func() error
}

// NewSpillOnExceed wraps spill, which must flush enough consumption that a
// subsequent Consume call no longer exceeds the tracker's limit.
func NewSpillOnExceed(spill func() error) *SpillOnExceed {
	return &SpillOnExceed{spill: spill}
}

func (a *SpillOnExceed) SetLogHook(hook func(uint64)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logHook = hook
}

func (a *SpillOnExceed) Action(t *Tracker) {
	a.mu.Lock()
	spill := a.spill
	hook := a.logHook
	a.mu.Unlock()
	if hook != nil {
		hook(0)
	}
	if spill == nil {
		return
	}
	if err := spill(); err != nil {
		logutil.BgLogger().Warn("spill to disk failed, falling back",
			zap.Stringer("tracker", t), zap.Error(err))
		if fb := a.GetFallback(); fb != nil {
			fb.Action(t)
		}
	}
}

func (a *SpillOnExceed) GetPriority() int64 { return PrioritySpill }

var _ fmt.Stringer = (*Tracker)(nil)
