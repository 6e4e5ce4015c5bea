package taskrunner

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/altmount-labs/streamio/ioerr"
)

// TaskQueue guarantees at most one of its own tasks runs at a time (spec
// §4.6 per-queue invariant), while letting the owning TaskRunner's shared
// worker pool execute tasks from many queues concurrently.
type TaskQueue struct {
	name   string
	runner *TaskRunner

	mu         sync.Mutex
	future     []*Task // FIFO-pending, not yet promoted to the runner
	scheduled  taskHeap
	activeTask *Task
	draining   bool
	idleWaiters []chan struct{}

	cancelActiveTask atomic.Bool
}

// Name returns the queue's diagnostic name.
func (q *TaskQueue) Name() string { return q.name }

// Execute enqueues run for immediate FIFO execution. If the queue has no
// task currently running, run is promoted straight into the runner's
// global FIFO; otherwise it waits behind the queue's active task.
func (q *TaskQueue) Execute(run func(ctx context.Context) error, opts ...TaskOption) (*Task, error) {
	return q.execute(run, true, opts)
}

// ExecuteNonCancellable is Execute for a task that must still run even
// after Shutdown/cancelAll, per spec §4.6: "refuses new submissions
// except for non-cancellable tasks".
func (q *TaskQueue) ExecuteNonCancellable(run func(ctx context.Context) error, opts ...TaskOption) (*Task, error) {
	return q.execute(run, false, opts)
}

func (q *TaskQueue) execute(run func(ctx context.Context) error, cancellable bool, opts []TaskOption) (*Task, error) {
	t := &Task{ID: uuid.New(), run: run, queue: q, Cancellable: cancellable, qIndex: -1, rIndex: -1}
	for _, opt := range opts {
		opt(t)
	}

	q.mu.Lock()
	if q.draining && cancellable {
		q.mu.Unlock()
		return nil, ioerr.ErrClosed
	}
	promote := q.activeTask == nil
	if promote {
		q.activeTask = t
	} else {
		q.future = append(q.future, t)
	}
	q.mu.Unlock()

	if promote {
		q.runner.submitFIFO(t)
	}
	return t, nil
}

// Schedule runs run once after delay elapses. If run returns a
// non-negative duration, it is rescheduled that far in the future
// (spec §4.6: "runOnce() returns -1 to stop, else a delayNanos for its
// next firing").
func (q *TaskQueue) Schedule(run func(ctx context.Context) (time.Duration, error), delay time.Duration, opts ...TaskOption) (*Task, error) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return nil, ioerr.ErrClosed
	}
	t := &Task{ID: uuid.New(), runOnce: run, queue: q, Cancellable: true, qIndex: -1, rIndex: -1}
	for _, opt := range opts {
		opt(t)
	}
	t.nextAt = time.Now().Add(delay)
	t.seq = q.runner.nextSeq()
	heap.Push(&q.scheduled, t)
	q.mu.Unlock()

	q.runner.promoteScheduled(t)
	return t, nil
}

// rescheduleOrDrop is invoked by the runner once a scheduled task's wake
// time is reached and its runOnce has returned; it reschedules the task
// into both the queue's and the runner's scheduled heaps if it asked to
// repeat (nextDelay >= 0 and stop is false).
func (q *TaskQueue) rescheduleOrDrop(t *Task, nextDelay time.Duration, stop bool) {
	requeue := !stop && !q.draining
	q.mu.Lock()
	if requeue {
		t.nextAt = time.Now().Add(nextDelay)
		t.seq = q.runner.nextSeq()
		heap.Push(&q.scheduled, t)
	}
	q.checkIdleLocked()
	q.mu.Unlock()

	if requeue {
		q.runner.promoteScheduled(t)
	}
}

// popScheduledHead removes t from the queue's own scheduled heap, used by
// the runner right before executing a task it popped from its global heap.
func (q *TaskQueue) popScheduledHead(t *Task) {
	q.mu.Lock()
	if t.qIndex >= 0 {
		heap.Remove(&q.scheduled, t.qIndex)
	}
	q.mu.Unlock()
}

// onFIFODone is called by the runner after a FIFO task finishes, and
// promotes the queue's next pending FIFO task, preserving the per-queue
// single-active-task invariant.
func (q *TaskQueue) onFIFODone(t *Task) {
	q.mu.Lock()
	if q.activeTask == t {
		q.activeTask = nil
	}
	var next *Task
	if len(q.future) > 0 {
		next = q.future[0]
		q.future = q.future[1:]
		q.activeTask = next
	}
	q.checkIdleLocked()
	q.mu.Unlock()

	if next != nil {
		q.runner.submitFIFO(next)
	}
}

func (q *TaskQueue) checkIdleLocked() {
	if q.activeTask == nil && len(q.future) == 0 && len(q.scheduled) == 0 {
		for _, w := range q.idleWaiters {
			close(w)
		}
		q.idleWaiters = nil
	}
}

// IdleLatch returns a channel that closes once the queue has no more
// scheduled or running tasks (spec §4.6).
func (q *TaskQueue) IdleLatch() <-chan struct{} {
	q.mu.Lock()
	defer q.mu.Unlock()
	ch := make(chan struct{})
	if q.activeTask == nil && len(q.future) == 0 && len(q.scheduled) == 0 {
		close(ch)
		return ch
	}
	q.idleWaiters = append(q.idleWaiters, ch)
	return ch
}

// CancelAll removes every cancellable pending task from this queue's FIFO
// and scheduled heaps. A currently-running task is not interrupted here;
// it observes cancellation at its own throwIfReached points via
// CancelRequested.
func (q *TaskQueue) CancelAll() {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.future[:0]
	for _, t := range q.future {
		if !t.Cancellable {
			kept = append(kept, t)
		}
	}
	q.future = kept

	var remaining taskHeap
	for _, t := range q.scheduled {
		if !t.Cancellable {
			remaining = append(remaining, t)
		}
	}
	heap.Init(&remaining)
	q.scheduled = remaining

	if q.activeTask != nil && q.activeTask.Cancellable {
		q.cancelActiveTask.Store(true)
	}
	q.checkIdleLocked()
}

// CancelRequested reports whether the currently running task should
// observe a cancellation request at its next cooperative check point.
func (q *TaskQueue) CancelRequested() bool {
	return q.cancelActiveTask.Load()
}

// Shutdown marks the queue drained: new cancellable submissions are
// refused, and pending cancellable tasks are dropped.
func (q *TaskQueue) Shutdown() {
	q.mu.Lock()
	q.draining = true
	q.mu.Unlock()
	q.CancelAll()
}
