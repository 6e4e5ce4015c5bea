package taskrunner

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/altmount-labs/streamio/ioerr"
)

// TaskRunner is the shared executor behind every TaskQueue it owns: one
// global FIFO for immediate work, one global priority heap for scheduled
// work, and a bounded pool of worker goroutines spun up lazily as
// outstanding work exceeds running workers (spec §4.6: "starts another
// worker thread iff the number of outstanding execute calls exceeds the
// number of run entries"). Grounded on altmount's health worker.go
// start/stop/wg shutdown shape, generalized from one ticker-driven loop
// into a general-purpose immediate+scheduled coordinator.
type TaskRunner struct {
	maxWorkers int

	mu            sync.Mutex
	fifo          []*Task
	globalSched   globalHeap
	activeWorkers int
	outstanding   int
	closed        bool

	seq atomic.Uint64

	wakeSched chan struct{}
	stop      chan struct{}
	// eg tracks every background goroutine the runner spawns (the scheduled
	// coordinator, FIFO workers, scheduled-task runners) the way
	// golang.org/x/sync/errgroup lets Shutdown wait on a dynamically
	// growing set of goroutines without a separate Add/Done at each call
	// site. None of these goroutines ever return a non-nil error — panics
	// are contained by runSafely/runScheduledSafely before they'd reach
	// the group — so Wait's error return is always nil here.
	eg *errgroup.Group

	logger *slog.Logger
}

// NewRunner starts a TaskRunner allowing up to maxWorkers concurrent FIFO
// workers (scheduled tasks each run on their own transient goroutine, so
// a burst of simultaneous timers is never serialized behind maxWorkers).
func NewRunner(maxWorkers int) *TaskRunner {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	r := &TaskRunner{
		maxWorkers: maxWorkers,
		wakeSched:  make(chan struct{}, 1),
		stop:       make(chan struct{}),
		eg:         &errgroup.Group{},
		logger:     slog.Default().With("component", "taskrunner"),
	}
	r.eg.Go(func() error {
		r.scheduledCoordinator()
		return nil
	})
	return r
}

func (r *TaskRunner) nextSeq() uint64 { return r.seq.Add(1) }

// NewQueue creates a TaskQueue backed by this runner.
func (r *TaskRunner) NewQueue(name string) *TaskQueue {
	return &TaskQueue{name: name, runner: r}
}

func (r *TaskRunner) pokeSched() {
	select {
	case r.wakeSched <- struct{}{}:
	default:
	}
}

// submitFIFO enqueues t onto the global FIFO and starts another worker if
// the pool is under-provisioned and below maxWorkers.
func (r *TaskRunner) submitFIFO(t *Task) {
	r.mu.Lock()
	r.fifo = append(r.fifo, t)
	r.outstanding++
	needWorker := r.outstanding > r.activeWorkers && r.activeWorkers < r.maxWorkers
	if needWorker {
		r.activeWorkers++
	}
	r.mu.Unlock()

	if needWorker {
		r.eg.Go(func() error {
			r.fifoWorker()
			return nil
		})
	}
}

func (r *TaskRunner) fifoWorker() {
	for {
		r.mu.Lock()
		if len(r.fifo) == 0 || r.closed {
			r.activeWorkers--
			r.mu.Unlock()
			return
		}
		t := r.fifo[0]
		r.fifo = r.fifo[1:]
		r.outstanding--
		r.mu.Unlock()

		r.runFIFOTask(t)
	}
}

func (r *TaskRunner) runFIFOTask(t *Task) {
	if err := r.runSafely(context.Background(), t, t.run); err != nil {
		r.logger.Error("task failed", "task", t.ID, "queue", t.queue.name, "error", err)
	}
	t.queue.onFIFODone(t)
}

// runSafely recovers from a panicking task (spec §4.6: "a task that
// throws does not kill the worker") and, when the task carries retry
// options, retries transient failures with backoff before surfacing the
// final error.
func (r *TaskRunner) runSafely(ctx context.Context, t *Task, fn func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("task panicked", "task", t.ID, "queue", t.queue.name, "panic", rec)
			err = ioerr.Wrap(ioerr.GenericIO, "task panicked", fmt.Errorf("%v", rec))
		}
	}()
	if len(t.retryOpts) == 0 {
		return fn(ctx)
	}
	return retry.Do(func() error { return fn(ctx) }, t.retryOpts...)
}

// promoteScheduled inserts t into the runner's global scheduled heap (or
// re-fixes its position if already present) and wakes the coordinator if
// t became the new global-earliest task.
func (r *TaskRunner) promoteScheduled(t *Task) {
	r.mu.Lock()
	if t.rIndex == -1 {
		heap.Push(&r.globalSched, t)
	} else {
		heap.Fix(&r.globalSched, t.rIndex)
	}
	becameEarliest := r.globalSched[0] == t
	r.mu.Unlock()

	if becameEarliest {
		r.pokeSched()
	}
}

func (r *TaskRunner) scheduledCoordinator() {
	for {
		r.mu.Lock()
		if r.closed {
			r.mu.Unlock()
			return
		}
		if len(r.globalSched) == 0 {
			r.mu.Unlock()
			select {
			case <-r.wakeSched:
			case <-r.stop:
				return
			}
			continue
		}
		earliest := r.globalSched[0]
		d := time.Until(earliest.nextAt)
		r.mu.Unlock()

		if d <= 0 {
			r.fireScheduled(earliest)
			continue
		}

		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-r.wakeSched:
			timer.Stop()
		case <-r.stop:
			timer.Stop()
			return
		}
	}
}

func (r *TaskRunner) fireScheduled(t *Task) {
	r.mu.Lock()
	if t.rIndex == -1 {
		r.mu.Unlock()
		return
	}
	heap.Remove(&r.globalSched, t.rIndex)
	r.mu.Unlock()

	t.queue.popScheduledHead(t)

	r.eg.Go(func() error {
		nextDelay, stop := r.runScheduledSafely(t)
		t.queue.rescheduleOrDrop(t, nextDelay, stop)
		return nil
	})
}

func (r *TaskRunner) runScheduledSafely(t *Task) (nextDelay time.Duration, stop bool) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("scheduled task panicked", "task", t.ID, "queue", t.queue.name, "panic", rec)
			stop = true
		}
	}()
	var d time.Duration
	var err error
	if len(t.retryOpts) == 0 {
		d, err = t.runOnce(context.Background())
	} else {
		err = retry.Do(func() error {
			var innerErr error
			d, innerErr = t.runOnce(context.Background())
			return innerErr
		}, t.retryOpts...)
	}
	if err != nil {
		r.logger.Error("scheduled task failed", "task", t.ID, "queue", t.queue.name, "error", err)
	}
	if d < 0 {
		return 0, true
	}
	return d, false
}

// Diagnostics reports this runner's live worker/queue shape for a log
// hook to attach to every record. Satisfies internal/slogutil's
// DiagnosticsSource by structural typing, the same way segment.Pool does.
func (r *TaskRunner) Diagnostics() []slog.Attr {
	r.mu.Lock()
	defer r.mu.Unlock()
	return []slog.Attr{
		slog.Int("active_workers", r.activeWorkers),
		slog.Int("outstanding_fifo", r.outstanding),
		slog.Int("pending_scheduled", len(r.globalSched)),
	}
}

// Shutdown stops accepting new scheduled wake-ups and waits for
// in-flight tasks to finish. It does not itself cancel pending tasks;
// callers that want that should call TaskQueue.Shutdown on each queue
// first.
func (r *TaskRunner) Shutdown() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	close(r.stop)
	_ = r.eg.Wait()
}
