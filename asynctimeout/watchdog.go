// Package asynctimeout implements the process-wide watchdog from spec
// §4.5 that turns wall-clock deadlines into asynchronous aborts on
// blocking I/O that cannot cooperatively check a cancel.Scope itself
// (e.g. a socket read stuck in the kernel). The node list is a
// container/heap priority queue ordered by wake time, the same structure
// SagerNet/smux's session.go uses for its write-request scheduling,
// generalized here to timer nodes instead of frames.
package asynctimeout

import (
	"container/heap"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/ioerr"
)

// Node is a scheduled watchdog entry. A Node returned for a scope with no
// effective deadline or timeout has a zero wake time and never enters the
// watchdog's heap:
// Exit on such a node is always a cheap no-op, matching spec §4.5's
// "value 0 meaning no timeout".
type Node struct {
	ID        uuid.UUID
	wake      time.Time
	onTimeout func()
	fired     bool
	index     int
}

type nodeHeap []*Node

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].wake.Before(h[j].wake) }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index, h[j].index = i, j }
func (h *nodeHeap) Push(x interface{}) {
	n := x.(*Node)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// Watchdog is a background goroutine enforcing timeouts registered via
// Enter/Exit. Construct one with NewWatchdog; call Close to shut down the
// goroutine, unblocking it the way spec §9 requires ("shutting down the
// TaskRunner must unblock it").
type Watchdog struct {
	mu     sync.Mutex
	h      nodeHeap
	wake   chan struct{}
	stop   chan struct{}
	closed bool
}

// NewWatchdog starts a watchdog goroutine and returns a handle to it.
func NewWatchdog() *Watchdog {
	w := &Watchdog{wake: make(chan struct{}, 1), stop: make(chan struct{})}
	go w.loop()
	return w
}

// Close stops the watchdog goroutine. Pending nodes are left un-fired;
// callers are expected to have already Exit'd them.
func (w *Watchdog) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()
	close(w.stop)
}

func (w *Watchdog) poke() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *Watchdog) loop() {
	for {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		if len(w.h) == 0 {
			w.mu.Unlock()
			select {
			case <-w.wake:
			case <-w.stop:
				return
			}
			continue
		}
		earliest := w.h[0]
		d := time.Until(earliest.wake)
		w.mu.Unlock()

		if d <= 0 {
			w.fire(earliest)
			continue
		}

		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-w.wake:
			timer.Stop()
		case <-w.stop:
			timer.Stop()
			return
		}
	}
}

// fire detaches n (if it is still the node we think it is — Exit may have
// raced ahead of us and already removed it) and runs its callback. Per
// spec §4.5, onTimeout must never run long-running code: it is expected
// to be something like "close the socket".
func (w *Watchdog) fire(n *Node) {
	w.mu.Lock()
	if n.index == -1 {
		w.mu.Unlock()
		return
	}
	heap.Remove(&w.h, n.index)
	n.fired = true
	w.mu.Unlock()
	n.onTimeout()
}

// computeWake returns the earliest of scope's effective deadline and
// now+defaultTimeout, or the zero Time if neither applies.
func computeWake(scope *cancel.Scope, defaultTimeout time.Duration) time.Time {
	var earliest time.Time
	if scope != nil {
		if d := scope.Deadline(); !d.IsZero() {
			earliest = d
		}
	}
	if defaultTimeout > 0 {
		candidate := time.Now().Add(defaultTimeout)
		if earliest.IsZero() || candidate.Before(earliest) {
			earliest = candidate
		}
	}
	return earliest
}

// Enter registers onTimeout to run at the earliest of scope's deadline,
// scope's timeout budget, and defaultTimeout (spec §4.5). Every Enter
// must be paired with Exit on every exit path — typically via defer.
func (w *Watchdog) Enter(scope *cancel.Scope, defaultTimeout time.Duration, onTimeout func()) *Node {
	wake := computeWake(scope, defaultTimeout)
	n := &Node{ID: uuid.New(), wake: wake, onTimeout: onTimeout, index: -1}
	if wake.IsZero() {
		return n
	}

	w.mu.Lock()
	heap.Push(&w.h, n)
	becameEarliest := w.h[0] == n
	w.mu.Unlock()

	if becameEarliest {
		w.poke()
	}
	return n
}

// Exit deregisters n and reports whether the watchdog already fired it.
func (w *Watchdog) Exit(n *Node) bool {
	if n.wake.IsZero() {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if n.index == -1 {
		return n.fired
	}
	heap.Remove(&w.h, n.index)
	return false
}

// WithTimeout runs block under a registered timeout, closing the resource
// via onClose if the watchdog fires before block returns, and upgrading a
// downstream Closed/GenericIO error to Timeout when that happens (spec
// §4.5/§7: "AsyncTimeout upgrades a downstream CLOSED to TIMEOUT if it
// previously fired for that node"). It also runs scope.ThrowIfReached
// after block returns so a cooperative cancellation is never masked by a
// successful-looking I/O result.
func (w *Watchdog) WithTimeout(scope *cancel.Scope, defaultTimeout time.Duration, onClose func(), block func() error) error {
	n := w.Enter(scope, defaultTimeout, onClose)
	err := block()
	fired := w.Exit(n)

	if fired && (err == nil || ioerr.Is(err, ioerr.Closed) || ioerr.Is(err, ioerr.GenericIO)) {
		return ioerr.ErrTimeout
	}
	if err == nil {
		if scopeErr := scope.ThrowIfReached(); scopeErr != nil {
			return scopeErr
		}
	}
	return err
}
