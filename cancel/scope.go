// Package cancel implements the cooperative cancellation/deadline/timeout
// context described in spec §4.5: CancelScope composes by nesting,
// shielding suppresses inherited deadlines without blocking manual cancel,
// and ThrowIfReached is the single check every blocking boundary must
// call. Design note §9 describes the source's thread-local stack of
// scopes; this module instead threads *Scope explicitly the way
// context.Context is threaded through idiomatic Go, and can wrap a real
// context.Context so blocking selects can still observe it.
package cancel

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/altmount-labs/streamio/ioerr"
)

// Scope is a block-scoped deadline/timeout/cancel context. The zero value
// is not valid; use Root or RootFromContext to start a chain and
// WithDeadline/WithTimeout/Shield to nest.
type Scope struct {
	parent   *Scope
	ctx      context.Context
	shielded bool

	start    time.Time
	deadline time.Time // absolute; zero means "no deadline set directly on this scope"
	timeout  time.Duration

	cancelled atomic.Bool
}

// Root returns a fresh top-level Scope with no deadline, timeout, or
// cancellation, wrapping context.Background().
func Root() *Scope {
	return RootFromContext(context.Background())
}

// RootFromContext returns a top-level Scope that also observes ctx's own
// cancellation as an "interrupted" condition, letting CancelScope compose
// with the rest of the Go ecosystem's context-based cancellation.
func RootFromContext(ctx context.Context) *Scope {
	return &Scope{ctx: ctx, start: time.Now()}
}

// WithDeadline returns a child scope whose effective deadline is the
// earlier of d and the parent's effective deadline, per spec §4.5:
// "nested scopes compose by taking the earliest deadline".
func (s *Scope) WithDeadline(d time.Time) *Scope {
	return &Scope{parent: s, ctx: s.ctx, start: time.Now(), deadline: d}
}

// WithTimeout is WithDeadline(time.Now().Add(d)), additionally composing
// the narrower of this scope's and the parent's timeout budgets.
func (s *Scope) WithTimeout(d time.Duration) *Scope {
	return &Scope{parent: s, ctx: s.ctx, start: time.Now(), timeout: d}
}

// Shield returns a child scope that suppresses inherited deadlines and
// timeouts, but not manual cancellation from an ancestor (spec §4.5).
func (s *Scope) Shield() *Scope {
	return &Scope{parent: s, ctx: s.ctx, start: time.Now(), shielded: true}
}

// Cancel marks this scope (and, transitively, everything nested under it)
// as cancelled. Cancellation is permanent: once set it is never cleared.
func (s *Scope) Cancel() {
	s.cancelled.Store(true)
}

// Cancelled reports whether this scope or any ancestor was cancelled.
// Shielding does not suppress this check.
func (s *Scope) Cancelled() bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.cancelled.Load() {
			return true
		}
	}
	return false
}

// ownDeadline returns this scope's own absolute deadline (from either
// WithDeadline or WithTimeout), or the zero Time if neither was set here.
func (s *Scope) ownDeadline() time.Time {
	if !s.deadline.IsZero() {
		return s.deadline
	}
	if s.timeout > 0 {
		return s.start.Add(s.timeout)
	}
	return time.Time{}
}

// Deadline returns the scope's effective absolute deadline: the earliest
// deadline among this scope and its ancestors, stopping at the first
// shielded scope encountered (inclusive of that scope's own deadline).
// The zero Time means no deadline applies.
func (s *Scope) Deadline() time.Time {
	var earliest time.Time
	for sc := s; sc != nil; sc = sc.parent {
		if d := sc.ownDeadline(); !d.IsZero() && (earliest.IsZero() || d.Before(earliest)) {
			earliest = d
		}
		if sc.shielded {
			break
		}
	}
	return earliest
}

// ThrowIfReached is the core cooperative check from spec §4.5, to be
// called at every suspension point and every blocking call:
//  1. if the wrapped context was externally cancelled, fail Interrupted.
//  2. if the scope chain was manually cancelled, fail Interrupted.
//  3. if the effective deadline is in the past, fail Timeout.
func (s *Scope) ThrowIfReached() error {
	if s.ctx != nil {
		select {
		case <-s.ctx.Done():
			return ioerr.Wrap(ioerr.Interrupted, "context cancelled", s.ctx.Err())
		default:
		}
	}
	if s.Cancelled() {
		return ioerr.ErrInterrupted
	}
	if d := s.Deadline(); !d.IsZero() && !time.Now().Before(d) {
		return ioerr.ErrTimeout
	}
	return nil
}

// Context returns the context.Context this scope was rooted from, for
// interop with APIs (select statements, errgroup, x/sync) that expect
// one. It does not itself observe this scope's deadline/cancel state;
// call ThrowIfReached for that.
func (s *Scope) Context() context.Context {
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}
