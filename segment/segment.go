// Package segment implements the fixed-capacity recyclable byte blocks that
// back buffer.Buffer and the segmented bytestring variants. It is grounded
// on altmount's internal/usenet segment type (lazily-allocated backing
// storage, explicit Close/share bookkeeping) generalized from a
// download-buffer to a generic pooled byte block.
package segment

import (
	"sync/atomic"
)

// Size is the fixed capacity of every Segment's storage, matching Okio's
// 8 KiB design constant.
const Size = 8192

// Segment is a fixed-capacity byte block with a readable window
// [Pos, Limit) into Data. A Segment may be linked into at most one Buffer's
// list at a time; Next/Prev are owned by that list, not by Segment itself.
type Segment struct {
	Data []byte

	Pos   int
	Limit int

	// shared is true when Data is referenced by more than one Segment
	// (a ByteString snapshot, or a split produced by splice). Writers
	// must not extend Limit on a shared segment. Pointer-shared across
	// every Segment that aliases the same Data, the same way refs is,
	// so marking one sharer shared marks all of them.
	shared *atomic.Bool

	// owner is true when this Segment's Limit may be extended by writes,
	// i.e. it is the sole owner of the tail of Data beyond Limit.
	owner bool

	// refs counts live sharers of Data. A fresh, pool-issued segment has
	// refs == 1 (itself). Sharing increments refs on the *new* segment
	// that points at the same Data; dropping a share decrements it and
	// returns the backing array to the pool only when it hits zero.
	refs *atomic.Int32

	Next, Prev *Segment

	pool *Pool
}

func newOwned(pool *Pool) *Segment {
	s := &Segment{
		Data:   make([]byte, Size),
		owner:  true,
		refs:   new(atomic.Int32),
		shared: new(atomic.Bool),
		pool:   pool,
	}
	s.refs.Store(1)
	return s
}

// Shared reports whether this segment's Data is referenced elsewhere.
func (s *Segment) Shared() bool { return s.shared.Load() }

// Owner reports whether this segment may extend Limit via writes.
func (s *Segment) Owner() bool { return s.owner }

// Len returns the number of readable bytes currently held.
func (s *Segment) Len() int { return s.Limit - s.Pos }

// WritableCapacity returns how many more bytes may be appended to Limit
// without violating the shared-segment invariant.
func (s *Segment) WritableCapacity() int {
	if !s.owner {
		return 0
	}
	return Size - s.Limit
}

// Share returns a new Segment that aliases this one's Data over
// [pos, limit), marking both segments shared and incrementing the
// reference count. Used by Buffer.Snapshot and by splice when a source
// segment is only partially consumed by the destination.
func (s *Segment) Share(pos, limit int) *Segment {
	s.shared.Store(true)
	s.refs.Add(1)
	return &Segment{
		Data:   s.Data,
		Pos:    pos,
		Limit:  limit,
		owner:  false,
		refs:   s.refs,
		shared: s.shared,
		pool:   s.pool,
	}
}

// UnsharedCopy returns a new owned Segment with its own backing array
// holding a copy of [Pos, Limit). Used when a write must extend past the
// Limit of a shared segment.
func (s *Segment) UnsharedCopy() *Segment {
	fresh := s.pool.Take()
	n := copy(fresh.Data, s.Data[s.Pos:s.Limit])
	fresh.Pos = 0
	fresh.Limit = n
	return fresh
}

// Release drops this segment's reference to its backing array. When the
// last reference drops, the array is returned to the originating Pool iff
// this segment was the sole owner (never itself shared further); shared
// copies whose refs reach zero are simply discarded for GC, matching the
// spec's "shared segments are returned to the pool / storage released"
// lifecycle distinction.
func (s *Segment) Release() {
	if s.pool == nil {
		return
	}
	remaining := s.refs.Add(-1)
	if remaining > 0 {
		return
	}
	if s.owner {
		s.pool.recycle(s)
	}
}

// compactsWith reports whether two adjacent owned segments are cheap to
// merge: neither shared, and their combined payload fits in one Segment
// with room to spare (spec §4.2 compaction: combined payload <= Size/2).
func compactsWith(a, b *Segment) bool {
	if a.shared.Load() || b.shared.Load() || !a.owner || !b.owner {
		return false
	}
	return a.Len()+b.Len() <= Size/2
}

// CompactInto copies b's readable bytes onto the end of a (which must have
// room) and reports true if it did so, letting the caller unlink b.
func CompactInto(a, b *Segment) bool {
	if !compactsWith(a, b) {
		return false
	}
	if a.WritableCapacity() < b.Len() {
		return false
	}
	n := copy(a.Data[a.Limit:], b.Data[b.Pos:b.Limit])
	a.Limit += n
	return true
}
