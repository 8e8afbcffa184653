package exec

import (
	"context"
	"testing"
	"time"

	"github.com/scidb-go/arraydb/internal/chunk"
	"github.com/scidb-go/arraydb/internal/config"
	"github.com/scidb-go/arraydb/internal/coord"
	"github.com/stretchr/testify/require"
)

type noopOperator struct{ BaseOperator }

func (noopOperator) Execute(q *Query, inputs []chunk.Array) (chunk.Array, error) {
	return inputs[0], nil
}

func TestBaseOperatorDefaults(t *testing.T) {
	var op PhysicalOperator = noopOperator{}
	require.False(t, op.IsAgg())
	require.True(t, op.OutputFullChunks(nil))
	require.False(t, op.ChangesDistribution(nil))
}

func TestAggregationCoordinatorHappyPath(t *testing.T) {
	cfg := config.Default()
	cfg.DeadlockTimeoutSec = 1
	q := NewQuery(context.Background(), "q1", true, cfg)

	ac := NewAggregationCoordinator()
	desc := coord.ArrayDesc{Name: "local"}
	result := chunk.NewMemArray(desc)

	go func() {
		time.Sleep(5 * time.Millisecond)
		ac.NotifyWorkerResult(q, 1, result)
	}()

	proxies, err := ac.AwaitWorkers(q, []int{1})
	require.NoError(t, err)
	require.Len(t, proxies, 1)
	require.Equal(t, result, proxies[0])
}

func TestAggregationCoordinatorTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.DeadlockTimeoutSec = 0 // overridden to 1s through q.Cfg (the same config) below
	q := NewQuery(context.Background(), "q2", true, cfg)
	q.Cfg.DeadlockTimeoutSec = 1

	ac := NewAggregationCoordinator()
	start := time.Now()
	_, err := ac.AwaitWorkers(q, []int{42})
	require.Error(t, err)
	require.GreaterOrEqual(t, time.Since(start), 900*time.Millisecond)
}

func TestQueryRejectsNestedAggregateContext(t *testing.T) {
	cfg := config.Default()
	q := NewQuery(context.Background(), "q3", true, cfg)

	require.NoError(t, q.EnterAggregateContext())
	err := q.EnterAggregateContext()
	require.Error(t, err)

	q.ExitAggregateContext()
	require.NoError(t, q.EnterAggregateContext())
}

func TestWatchdogStartStop(t *testing.T) {
	w := NewWatchdog(0)
	go w.Run()
	time.Sleep(10 * time.Millisecond)
	w.Stop()
}
