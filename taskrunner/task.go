// Package taskrunner implements the FIFO-plus-scheduled coordinator pair
// from spec §4.6: one TaskRunner backs many TaskQueues, each queue
// guarantees at most one of its own tasks runs at a time, and a shared
// worker pool executes whatever is ready across every queue. It is
// grounded on altmount's internal/health worker.go (ticker-driven cycles,
// conc.WaitGroup fan-out, panic-recovering cycle wrapper, start/stop with
// a stopChan and sync.WaitGroup) generalized from one hardcoded health-check
// loop into the spec's general-purpose immediate/scheduled task model.
package taskrunner

import (
	"context"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
)

// Task is a unit of work submitted to a TaskQueue, either via Execute
// (one-shot, FIFO order) or Schedule (runs once at a future time, or
// repeatedly if its Run returns a non-negative next delay).
type Task struct {
	ID          uuid.UUID
	Name        string
	Cancellable bool

	run     func(ctx context.Context) error
	runOnce func(ctx context.Context) (time.Duration, error)

	retryOpts []retry.Option

	queue  *TaskQueue
	nextAt time.Time
	seq    uint64

	qIndex int // index within the owning queue's scheduled heap, -1 if absent
	rIndex int // index within the runner's global scheduled heap, -1 if absent
}

// TaskOption configures optional Task behavior at submission time.
type TaskOption func(*Task)

// WithRetry makes the runner retry a failing task in place, using
// avast/retry-go's backoff policy, before the failure is surfaced to the
// queue's logs.
func WithRetry(opts ...retry.Option) TaskOption {
	return func(t *Task) { t.retryOpts = opts }
}

// WithName sets a task's diagnostic name.
func WithName(name string) TaskOption {
	return func(t *Task) { t.Name = name }
}

// Queue returns the TaskQueue this task was submitted to.
func (t *Task) Queue() *TaskQueue { return t.queue }

// taskHeap is a container/heap priority queue ordered by nextAt, ties
// broken by insertion sequence number (spec §5: "ties in scheduled queues
// break by insertion order").
type taskHeap []*Task

func (h taskHeap) Len() int { return len(h) }
func (h taskHeap) Less(i, j int) bool {
	if !h[i].nextAt.Equal(h[j].nextAt) {
		return h[i].nextAt.Before(h[j].nextAt)
	}
	return h[i].seq < h[j].seq
}
func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].qIndex, h[j].qIndex = i, j
}
func (h *taskHeap) Push(x interface{}) {
	t := x.(*Task)
	t.qIndex = len(*h)
	*h = append(*h, t)
}
func (h *taskHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.qIndex = -1
	*h = old[:n-1]
	return t
}

// globalHeap mirrors taskHeap but tracks rIndex instead of qIndex, for the
// runner's cross-queue scheduled heap.
type globalHeap []*Task

func (h globalHeap) Len() int { return len(h) }
func (h globalHeap) Less(i, j int) bool {
	if !h[i].nextAt.Equal(h[j].nextAt) {
		return h[i].nextAt.Before(h[j].nextAt)
	}
	return h[i].seq < h[j].seq
}
func (h globalHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].rIndex, h[j].rIndex = i, j
}
func (h *globalHeap) Push(x interface{}) {
	t := x.(*Task)
	t.rIndex = len(*h)
	*h = append(*h, t)
}
func (h *globalHeap) Pop() interface{} {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.rIndex = -1
	*h = old[:n-1]
	return t
}
