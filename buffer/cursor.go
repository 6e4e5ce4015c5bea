package buffer

import "github.com/altmount-labs/streamio/segment"

// Cursor is the scoped, low-level escape hatch from spec §4.4: direct
// (data, pos, limit) access to a Buffer's segments for iteration and
// in-place mutation, letting a caller transform bytes without copying
// them through an intermediate slice. While a Cursor is open, only the
// Cursor may mutate the underlying Buffer (spec §4.4); callers must
// guarantee Close runs on every exit path, typically via defer.
type Cursor struct {
	buf     *Buffer
	cur     *segment.Segment
	started bool
	closed  bool
}

// Cursor acquires a new Cursor over b. The Buffer must not be mutated by
// any other means until the Cursor is closed.
func (b *Buffer) Cursor() *Cursor {
	return &Cursor{buf: b}
}

// Next advances to the next non-empty segment and returns a mutable slice
// directly into its storage window, or ok=false once iteration is
// exhausted. If the current segment is shared, Next transparently
// replaces it with an unshared copy first so in-place writes never
// corrupt another ByteString's view of the same storage.
func (c *Cursor) Next() (data []byte, ok bool) {
	if c.closed {
		panic("buffer: use of Cursor after Close")
	}
	if !c.started {
		c.started = true
		c.cur = c.buf.head
	} else if c.cur != nil {
		c.cur = c.cur.Next
	}
	for c.cur != nil && c.cur.Len() == 0 {
		c.cur = c.cur.Next
	}
	if c.cur == nil {
		return nil, false
	}
	if c.cur.Shared() {
		c.cur = c.replaceWithUnshared(c.cur)
	}
	return c.cur.Data[c.cur.Pos:c.cur.Limit], true
}

func (c *Cursor) replaceWithUnshared(s *segment.Segment) *segment.Segment {
	fresh := s.UnsharedCopy()
	fresh.Prev, fresh.Next = s.Prev, s.Next
	if s.Prev != nil {
		s.Prev.Next = fresh
	} else {
		c.buf.head = fresh
	}
	if s.Next != nil {
		s.Next.Prev = fresh
	} else {
		c.buf.tail = fresh
	}
	s.Release()
	return fresh
}

// Close releases the Cursor. It is idempotent.
func (c *Cursor) Close() error {
	c.closed = true
	c.cur = nil
	return nil
}
