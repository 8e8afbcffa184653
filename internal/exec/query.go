package exec

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/config"
	"github.com/scidb-go/arraydb/internal/memory"
	"github.com/scidb-go/arraydb/internal/stringutil"
)

// Query is the per-query execution context threaded through operator
// execution, the idiomatic substitute for the original's weak_ptr<Query>
// back-references (§5, §9): a plain struct with a context.Context for
// cancellation instead of shared/weak pointer plumbing.
type Query struct {
	ctx         context.Context
	cancel      context.CancelFunc
	ID          string
	Coordinator bool
	Cfg         *config.Config
	MemTracker  *memory.Tracker
	DiskTracker *memory.Tracker

	aggregating int32 // guards nested aggregate operator contexts (§9 Open Question 1)
}

// NewQuery creates a cancellable query context derived from parent (no
// deadline is set on it); cfg's DeadlockTimeoutSec is read separately by
// DeadlockTimeout for the coordinator/worker handshake.
func NewQuery(parent context.Context, id string, coordinator bool, cfg *config.Config) *Query {
	ctx, cancel := context.WithCancel(parent)
	q := &Query{ctx: ctx, cancel: cancel, ID: id, Coordinator: coordinator, Cfg: cfg}
	q.MemTracker = memory.NewTracker(stringutil.StringerStr("query:"+id), -1)
	q.DiskTracker = memory.NewTracker(stringutil.StringerStr("query:"+id+":disk"), -1)
	return q
}

// Context returns the query's cancellation context.
func (q *Query) Context() context.Context { return q.ctx }

// Cancel invalidates the query; callbacks that captured q should revalidate
// via Context().Err() before acting (§5, §9's weak-reference substitute).
func (q *Query) Cancel() { q.cancel() }

// DeadlockTimeout returns the coordinator/worker notify timeout (§4.7).
func (q *Query) DeadlockTimeout() time.Duration {
	return time.Duration(q.Cfg.DeadlockTimeoutSec) * time.Second
}

// EnterAggregateContext marks q as running inside an aggregate operator
// context. It returns ErrNestedAggregateContext if one is already active,
// resolving §9 Open Question 1: the executor rejects nested aggregation
// rather than silently nesting it.
func (q *Query) EnterAggregateContext() error {
	if !atomic.CompareAndSwapInt32(&q.aggregating, 0, 1) {
		return arrerrors.ErrNestedAggregateContext()
	}
	return nil
}

// ExitAggregateContext clears the aggregate operator context entered by a
// prior, successful EnterAggregateContext call.
func (q *Query) ExitAggregateContext() {
	atomic.StoreInt32(&q.aggregating, 0)
}
