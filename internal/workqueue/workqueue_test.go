package workqueue

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type inlinePool struct{}

func (inlinePool) Submit(fn func()) { go fn() }

func TestWorkQueueEnqueueOverflow(t *testing.T) {
	q := NewWorkQueue("q", inlinePool{}, 1, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	block := make(chan struct{})
	require.NoError(t, q.Enqueue(Item{Fn: func() {
		wg.Done()
		<-block
	}}))

	require.NoError(t, q.Enqueue(Item{Fn: func() {}}))
	err := q.Enqueue(Item{Fn: func() {}})
	require.Error(t, err)
	var overflow *OverflowException
	require.ErrorAs(t, err, &overflow)

	wg.Wait()
	close(block)
}

func TestWorkQueueReserveUnreserve(t *testing.T) {
	q := NewWorkQueue("q", inlinePool{}, 4, 1)
	require.NoError(t, q.Reserve())
	require.Equal(t, 1, q.Len())

	err := q.Enqueue(Item{Fn: func() {}})
	require.Error(t, err)

	q.Unreserve()
	require.Equal(t, 0, q.Len())
	require.NoError(t, q.Enqueue(Item{Fn: func() {}}))
}

func TestWorkQueueEnqueueReserved(t *testing.T) {
	q := NewWorkQueue("q", inlinePool{}, 4, 1)
	require.NoError(t, q.Reserve())

	done := make(chan struct{})
	q.EnqueueReserved(Item{Fn: func() { close(done) }})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reserved item never ran")
	}
}

func TestWorkQueueReEnqueueSameQueue(t *testing.T) {
	q := NewWorkQueue("q", inlinePool{}, 4, 4)
	done := make(chan struct{})
	err := q.ReEnqueue(Item{Fn: func() { close(done) }}, q)
	require.NoError(t, err)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("item never ran")
	}
}

func TestWorkQueueReEnqueueCrossQueuePushBack(t *testing.T) {
	from := NewWorkQueue("from", inlinePool{}, 4, 4)
	to := NewWorkQueue("to", inlinePool{}, 1, 1)

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, to.Enqueue(Item{Fn: func() {
		close(started)
		<-block
	}}))
	<-started

	err := to.ReEnqueue(Item{Fn: func() {}}, from)
	require.Error(t, err)
	var pushBack *PushBackException
	require.ErrorAs(t, err, &pushBack)
	close(block)
}

func TestSerializationCtxReleaseOrder(t *testing.T) {
	s := NewSerializationCtx()
	var order []int

	q1 := NewWorkQueue("q1", inlinePool{}, 1, 1)
	q2 := NewWorkQueue("q2", inlinePool{}, 1, 1)
	s.Hold(q1, func() { order = append(order, 1) })
	s.Hold(q2, func() { order = append(order, 2) })

	s.Close()
	require.Equal(t, []int{1, 2}, order)

	// Close is idempotent: a second call must not release again.
	s.Close()
	require.Equal(t, []int{1, 2}, order)
}
