package exec

import (
	"strconv"
	"sync"

	"github.com/scidb-go/arraydb/internal/arrerrors"
	"github.com/scidb-go/arraydb/internal/chunk"
)

// aggregateRegistry maps a (query, worker) pair to the local result array a
// worker has exposed to the coordinator, the remote-array context of §4.7.
type aggregateRegistry struct {
	mu      sync.Mutex
	results map[string]chunk.Array
	ready   map[string]chan struct{}
}

func newAggregateRegistry() *aggregateRegistry {
	return &aggregateRegistry{results: map[string]chunk.Array{}, ready: map[string]chan struct{}{}}
}

func regKey(queryID string, workerID int) string {
	return queryID + ":" + strconv.Itoa(workerID)
}

// AggregationCoordinator drives the two-phase aggregation handshake of
// §4.7: workers compute a local result and notify; the coordinator waits
// up to deadlockTimeout per worker, builds one proxy array per worker, and
// hands them to the physical operator as its inputs.
type AggregationCoordinator struct {
	reg *aggregateRegistry
}

// NewAggregationCoordinator creates a fresh handshake registry for one
// aggregation phase of one query.
func NewAggregationCoordinator() *AggregationCoordinator {
	return &AggregationCoordinator{reg: newAggregateRegistry()}
}

// NotifyWorkerResult is called by a worker once its local result array is
// ready: it publishes the array and signals the coordinator (§4.7: "expose
// it to the coordinator via a remote-array context, then wait").
func (a *AggregationCoordinator) NotifyWorkerResult(q *Query, workerID int, result chunk.Array) {
	key := regKey(q.ID, workerID)
	a.reg.mu.Lock()
	a.reg.results[key] = result
	ch, ok := a.reg.ready[key]
	if !ok {
		ch = make(chan struct{})
		a.reg.ready[key] = ch
	}
	a.reg.mu.Unlock()
	close(ch)
}

// waitChan returns (creating if necessary) the notify channel for a worker,
// so a coordinator awaiting it races cleanly against a not-yet-arrived
// NotifyWorkerResult call.
func (a *AggregationCoordinator) waitChan(queryID string, workerID int) chan struct{} {
	key := regKey(queryID, workerID)
	a.reg.mu.Lock()
	defer a.reg.mu.Unlock()
	ch, ok := a.reg.ready[key]
	if !ok {
		ch = make(chan struct{})
		a.reg.ready[key] = ch
	}
	return ch
}

// AwaitWorkers blocks until every worker in workerIDs has notified or q's
// deadlock timeout expires, returning one proxy chunk.Array per worker in
// the same order (§4.7's deadlock-avoidance handshake): on expiry the
// query fails with SCIDB_LE_RESOURCE_BUSY (arrerrors.CodeResourceBusy).
func (a *AggregationCoordinator) AwaitWorkers(q *Query, workerIDs []int) ([]chunk.Array, error) {
	if err := q.EnterAggregateContext(); err != nil {
		return nil, err
	}
	defer q.ExitAggregateContext()

	proxies := make([]chunk.Array, len(workerIDs))
	timeout := q.DeadlockTimeout()
	for i, wid := range workerIDs {
		ch := a.waitChan(q.ID, wid)
		select {
		case <-ch:
			a.reg.mu.Lock()
			proxies[i] = a.reg.results[regKey(q.ID, wid)]
			a.reg.mu.Unlock()
		case <-q.Context().Done():
			return nil, q.Context().Err()
		case <-afterTimeout(timeout):
			return nil, arrerrors.ErrResourceBusy(q.ID)
		}
	}
	return proxies, nil
}
