package crawler

import (
	"context"
	"sync"
)

// Task is one URL waiting to be visited.
type Task struct {
	URL string

	// Position is the index of the URL in the deduplicated seed list.
	Position int

	// StaleRetries counts how often the visit was retried after the page
	// went stale.
	StaleRetries int
}

// WorkQueue is a FIFO of tasks shared by the workers. A task taken with Pop
// is in flight until the worker calls Done or Requeue; Pop blocks while the
// queue is empty but tasks are still in flight, since a requeue may follow.
type WorkQueue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	items    []*Task
	inflight int
	closed   bool
}

// NewWorkQueue creates an empty WorkQueue.
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends a task to the tail.
func (q *WorkQueue) Push(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.items = append(q.items, t)
	q.cond.Signal()
}

// Pop takes the task at the head. It returns false once the queue is empty
// with nothing in flight, after Close, or when ctx is done.
func (q *WorkQueue) Pop(ctx context.Context) (*Task, bool) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		defer q.mu.Unlock()
		q.cond.Broadcast()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && q.inflight > 0 && !q.closed && ctx.Err() == nil {
		q.cond.Wait()
	}
	if q.closed || ctx.Err() != nil || len(q.items) == 0 {
		return nil, false
	}

	t := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	q.inflight++
	return t, true
}

// Done marks an in-flight task as finished.
func (q *WorkQueue) Done(*Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	q.cond.Broadcast()
}

// Requeue puts an in-flight task back at the head, ahead of every task that
// was still pending, so it keeps its place in the crawl order.
func (q *WorkQueue) Requeue(t *Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if !q.closed {
		q.items = append([]*Task{t}, q.items...)
	}
	q.cond.Broadcast()
}

// Close stops the queue. Pop returns false from then on and Push is ignored.
func (q *WorkQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of pending tasks.
func (q *WorkQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Pending returns the URLs still waiting, head first.
func (q *WorkQueue) Pending() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.items))
	for i, t := range q.items {
		out[i] = t.URL
	}
	return out
}
