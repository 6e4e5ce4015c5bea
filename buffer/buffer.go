// Package buffer implements the segmented in-memory byte container at the
// heart of the core: a doubly-linked list of segment.Segment values plus
// the mutation primitives (write, read, skip, splice, snapshot, hashing)
// described in spec §4.2. It is grounded on altmount's internal/usenet
// segment/buffer_pool types, generalized from a single usenet-download
// scratch buffer into the general-purpose deque described by the spec.
package buffer

import (
	"github.com/altmount-labs/streamio/bytestring"
	"github.com/altmount-labs/streamio/ioerr"
	"github.com/altmount-labs/streamio/segment"
)

// Buffer is an ordered list of Segments forming a single logical byte
// stream. It is not safe for concurrent mutation (spec §5: "single-owner
// resource, no internal locking").
type Buffer struct {
	head, tail *segment.Segment // head is the read end, tail is the write end
	size       int64
	pool       *segment.Pool
}

// New returns an empty Buffer drawing segments from pool. Pass nil to use
// the process-wide default pool (segment.Default()).
func New(pool *segment.Pool) *Buffer {
	if pool == nil {
		pool = segment.Default()
	}
	return &Buffer{pool: pool}
}

// Len returns the number of readable bytes currently buffered. This is
// spec §4/§8's byteSize invariant: always equal to the sum of
// (Limit - Pos) across segments.
func (b *Buffer) Len() int64 { return b.size }

// Empty reports whether the buffer currently holds no bytes.
func (b *Buffer) Empty() bool { return b.size == 0 }

// HotTailLen returns the length of the current tail segment, the "hot"
// partial segment a Writer keeps open for more appends (spec §4.4's
// emit/flush distinction). It is 0 for an empty buffer.
func (b *Buffer) HotTailLen() int64 {
	if b.tail == nil {
		return 0
	}
	return int64(b.tail.Len())
}

func (b *Buffer) pushTail(s *segment.Segment) {
	s.Prev, s.Next = b.tail, nil
	if b.tail != nil {
		b.tail.Next = s
	} else {
		b.head = s
	}
	b.tail = s
}

func (b *Buffer) pushHead(s *segment.Segment) {
	s.Next, s.Prev = b.head, nil
	if b.head != nil {
		b.head.Prev = s
	} else {
		b.tail = s
	}
	b.head = s
}

func (b *Buffer) unlink(s *segment.Segment) {
	if s.Prev != nil {
		s.Prev.Next = s.Next
	} else {
		b.head = s.Next
	}
	if s.Next != nil {
		s.Next.Prev = s.Prev
	} else {
		b.tail = s.Prev
	}
	s.Next, s.Prev = nil, nil
}

// writableTail returns a tail segment with at least one free byte,
// acquiring a fresh one from the pool when the current tail is full,
// unowned (shared), or absent — spec §4.2's "writable tail acquisition".
func (b *Buffer) writableTail(minCapacity int) *segment.Segment {
	if b.tail != nil && b.tail.Owner() && b.tail.WritableCapacity() >= minCapacity {
		return b.tail
	}
	s := b.pool.Take()
	b.pushTail(s)
	return s
}

// AppendBytes implements bytestring.Sink: it copies p onto the buffer's
// tail, acquiring fresh segments as needed.
func (b *Buffer) AppendBytes(p []byte) {
	for len(p) > 0 {
		tail := b.writableTail(1)
		n := copy(tail.Data[tail.Limit:], p)
		tail.Limit += n
		b.size += int64(n)
		p = p[n:]
	}
	b.compactTail()
}

// AppendShared implements bytestring.Sink: it links an already-shared
// Segment directly onto the tail, a pointer move rather than a copy.
func (b *Buffer) AppendShared(s *segment.Segment) {
	b.pushTail(s)
	b.size += int64(s.Len())
}

// Write appends len(p) bytes to the buffer's write end.
func (b *Buffer) Write(p []byte) (int, error) {
	b.AppendBytes(p)
	return len(p), nil
}

// WriteByteString appends bs, sharing its underlying segments rather than
// copying when bs is itself segmented (spec §4.2: "Appends, sharing
// segments if the ByteString is segmented").
func (b *Buffer) WriteByteString(bs bytestring.ByteString) {
	bs.WriteTo(b)
}

// compactTail opportunistically merges the last two segments when doing so
// keeps their combined payload small, per spec §4.2's compaction rule
// (tie-break: prefer compaction at the tail over the middle, which this
// buffer only ever attempts at the tail).
func (b *Buffer) compactTail() {
	if b.tail == nil || b.tail.Prev == nil {
		return
	}
	prev := b.tail.Prev
	if segment.CompactInto(prev, b.tail) {
		dead := b.tail
		b.unlink(dead)
		dead.Release()
	}
}

// Skip drops n bytes from the head of the buffer, failing with EOF if
// fewer than n bytes are available.
func (b *Buffer) Skip(n int64) error {
	if n < 0 {
		return ioerr.Wrap(ioerr.Bounds, "negative skip count", nil)
	}
	if n > b.size {
		return ioerr.ErrEOF
	}
	for n > 0 {
		head := b.head
		avail := int64(head.Len())
		if avail > n {
			head.Pos += int(n)
			b.size -= n
			return nil
		}
		b.unlink(head)
		b.size -= avail
		n -= avail
		head.Release()
	}
	return nil
}

// Clear drops all buffered bytes, releasing every segment.
func (b *Buffer) Clear() {
	_ = b.Skip(b.size)
}

// ReadAtMostTo moves up to n bytes from the head of b onto the tail of
// dst, preferring to splice whole or partial segments by pointer rather
// than copying (spec §4.2 "segment write-splice"). It returns the number
// of bytes moved, or -1 if b is empty (mirroring the RawReader contract
// in spec §6 so Buffer itself can serve as a RawReader/RawWriter in tests).
func (b *Buffer) ReadAtMostTo(dst *Buffer, n int64) int64 {
	if n < 0 {
		return 0
	}
	if b.size == 0 {
		return -1
	}
	if n > b.size {
		n = b.size
	}
	moved := int64(0)
	for moved < n {
		head := b.head
		avail := int64(head.Len())
		remaining := n - moved

		switch {
		case head.Shared() && remaining >= avail:
			// Whole shared segment moves by pointer: unlink then relink.
			b.unlink(head)
			b.size -= avail
			dst.pushTail(head)
			dst.size += avail
			moved += avail

		case head.Shared():
			// Partial move of a shared segment: split via Share so both
			// sides point at the same storage with disjoint windows.
			cut := head.Pos + int(remaining)
			front := head.Share(head.Pos, cut)
			dst.pushTail(front)
			dst.size += remaining
			head.Pos = cut
			b.size -= remaining
			moved += remaining

		default:
			// Owned segment: copy into dst's writable tail.
			toCopy := remaining
			if toCopy > avail {
				toCopy = avail
			}
			tail := dst.writableTail(1)
			room := int64(tail.WritableCapacity())
			if toCopy > room {
				toCopy = room
			}
			n2 := copy(tail.Data[tail.Limit:], head.Data[head.Pos:head.Pos+int(toCopy)])
			tail.Limit += n2
			dst.size += int64(n2)
			head.Pos += n2
			b.size -= int64(n2)
			moved += int64(n2)
			if head.Pos == head.Limit {
				b.unlink(head)
				head.Release()
			}
		}

		if b.size == 0 {
			break
		}
	}
	dst.compactTail()
	return moved
}

// Snapshot returns a Segmented bytestring.ByteString sharing storage with
// b's current contents, marking every contributing segment shared (spec
// §4.2/§8 property 2 & 9: mutating b afterward must not be observed by the
// snapshot, i.e. copy-on-write).
func (b *Buffer) Snapshot() bytestring.ByteString {
	var refs []bytestring.SegRef
	for s := b.head; s != nil; s = s.Next {
		if s.Len() == 0 {
			continue
		}
		shared := s.Share(s.Pos, s.Limit)
		refs = append(refs, bytestring.SegRef{Seg: shared, Pos: shared.Pos, Limit: shared.Limit})
	}
	return bytestring.FromSegments(refs)
}

// Clone returns a new Buffer whose segments alias b's storage
// (copy-on-write): writes to either buffer past the shared window never
// touch the other's bytes.
func (b *Buffer) Clone() *Buffer {
	out := New(b.pool)
	for s := b.head; s != nil; s = s.Next {
		if s.Len() == 0 {
			continue
		}
		shared := s.Share(s.Pos, s.Limit)
		out.pushTail(shared)
		out.size += int64(shared.Len())
	}
	return out
}

// Copy is an alias for Clone matching spec §4.2's operation table, which
// lists both names for the same copy-on-write duplication primitive.
func (b *Buffer) Copy() *Buffer { return b.Clone() }

// ReadByteArray drains and returns every buffered byte.
func (b *Buffer) ReadByteArray() []byte {
	out := make([]byte, 0, b.size)
	for b.size > 0 {
		head := b.head
		out = append(out, head.Data[head.Pos:head.Limit]...)
		b.unlink(head)
		b.size -= int64(head.Len())
		head.Release()
	}
	return out
}

// ReadByteArrayN reads exactly n bytes, failing with EOF if fewer remain.
func (b *Buffer) ReadByteArrayN(n int64) ([]byte, error) {
	if n > b.size {
		return nil, ioerr.ErrEOF
	}
	out := make([]byte, n)
	if err := b.readFully(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (b *Buffer) readFully(p []byte) error {
	if int64(len(p)) > b.size {
		return ioerr.ErrEOF
	}
	for len(p) > 0 {
		head := b.head
		n := copy(p, head.Data[head.Pos:head.Limit])
		p = p[n:]
		head.Pos += n
		b.size -= int64(n)
		if head.Pos == head.Limit {
			b.unlink(head)
			head.Release()
		}
	}
	return nil
}

// ReadByteString reads exactly n bytes and returns them as a Segmented
// ByteString sharing storage with the buffer, rather than copying.
func (b *Buffer) ReadByteString(n int64) (bytestring.ByteString, error) {
	if n > b.size {
		return bytestring.ByteString{}, ioerr.ErrEOF
	}
	var refs []bytestring.SegRef
	remaining := n
	for remaining > 0 {
		head := b.head
		avail := int64(head.Len())
		take := remaining
		if take > avail {
			take = avail
		}
		shared := head.Share(head.Pos, head.Pos+int(take))
		refs = append(refs, bytestring.SegRef{Seg: shared, Pos: shared.Pos, Limit: shared.Limit})
		head.Pos += int(take)
		b.size -= take
		remaining -= take
		if head.Pos == head.Limit {
			b.unlink(head)
			head.Release()
		}
	}
	return bytestring.FromSegments(refs), nil
}
