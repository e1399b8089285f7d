package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkQueueFIFO(t *testing.T) {
	q := NewWorkQueue()
	for _, u := range []string{"a", "b", "c"} {
		q.Push(&Task{URL: u})
	}
	assert.Equal(t, []string{"a", "b", "c"}, q.Pending())

	ctx := context.Background()
	for _, want := range []string{"a", "b", "c"} {
		task, ok := q.Pop(ctx)
		require.True(t, ok)
		assert.Equal(t, want, task.URL)
		q.Done(task)
	}

	_, ok := q.Pop(ctx)
	assert.False(t, ok, "empty queue with nothing in flight is drained")
}

func TestWorkQueueRequeueAtHead(t *testing.T) {
	q := NewWorkQueue()
	q.Push(&Task{URL: "a"})
	q.Push(&Task{URL: "b"})

	ctx := context.Background()
	task, ok := q.Pop(ctx)
	require.True(t, ok)
	q.Requeue(task)

	assert.Equal(t, []string{"a", "b"}, q.Pending())
}

func TestWorkQueuePopWaitsForInflight(t *testing.T) {
	q := NewWorkQueue()
	q.Push(&Task{URL: "a"})

	ctx := context.Background()
	task, ok := q.Pop(ctx)
	require.True(t, ok)

	got := make(chan string, 1)
	go func() {
		next, ok := q.Pop(ctx)
		if ok {
			got <- next.URL
		}
		close(got)
	}()

	time.Sleep(20 * time.Millisecond)
	q.Requeue(task)

	select {
	case u := <-got:
		assert.Equal(t, "a", u)
	case <-time.After(time.Second):
		t.Fatal("Pop did not return the requeued task")
	}
}

func TestWorkQueuePopCancelled(t *testing.T) {
	q := NewWorkQueue()
	q.Push(&Task{URL: "a"})
	ctx, cancel := context.WithCancel(context.Background())
	_, ok := q.Pop(ctx)
	require.True(t, ok)

	done := make(chan bool, 1)
	go func() {
		_, ok := q.Pop(ctx)
		done <- ok
	}()
	cancel()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Pop did not observe cancellation")
	}
}

func TestWorkQueueClose(t *testing.T) {
	q := NewWorkQueue()
	q.Push(&Task{URL: "a"})
	q.Close()

	_, ok := q.Pop(context.Background())
	assert.False(t, ok)
	q.Push(&Task{URL: "b"})
	assert.Equal(t, 1, q.Len())
}
