// Package bytestring implements the immutable, value-equal byte sequence
// family described in spec §4.3: dense (single owned array), segmented
// (a snapshot sharing storage with a buffer.Buffer), and UTF-8/ASCII-tagged
// variants of either. Rather than four separate dynamically-dispatched
// types, the variants are folded into one tagged-union struct per design
// note §9 ("dynamic dispatch over ByteString variants becomes a sum type").
package bytestring

import (
	"sort"

	"github.com/altmount-labs/streamio/ioerr"
	"github.com/altmount-labs/streamio/segment"
)

type kind int

const (
	kindDense kind = iota
	kindSegmented
)

// SegRef is one contributing slice of a segmented ByteString: the window
// [Pos, Limit) of a Segment whose storage is shared with whatever produced
// the snapshot (normally buffer.Buffer.Snapshot).
type SegRef struct {
	Seg   *segment.Segment
	Pos   int
	Limit int
}

func (r SegRef) bytes() []byte { return r.Seg.Data[r.Pos:r.Limit] }
func (r SegRef) len() int      { return r.Limit - r.Pos }

// Sink is the narrow surface a destination must expose to receive a
// ByteString's contents without bytestring importing buffer (which would
// create an import cycle, since buffer.Buffer.Snapshot returns a
// ByteString). buffer.Buffer implements Sink.
type Sink interface {
	// AppendBytes copies p onto the sink's tail.
	AppendBytes(p []byte)
	// AppendShared links an already-shared Segment onto the sink's tail
	// without copying; seg's ref count has already been incremented by
	// the caller (via Segment.Share).
	AppendShared(seg *segment.Segment)
}

// ByteString is an immutable, value-equal byte sequence. The zero value is
// not valid; construct one with FromBytes, FromString, or FromSegments.
type ByteString struct {
	kind kind

	dense []byte
	segs  []SegRef
	dir   []int64 // dir[i] = cumulative length through segs[i], inclusive

	isUTF8  bool
	isASCII bool

	// runeLen memoizes the UTF-8 code point count once Utf8Length is
	// called on a UTF-8-tagged value; -1 means not yet computed.
	runeLen int64

	hashOnce bool
	hashVal  uint64
}

// FromBytes builds a Dense ByteString that copies p, so later mutation of p
// by the caller cannot violate ByteString's immutability.
func FromBytes(p []byte) ByteString {
	cp := make([]byte, len(p))
	copy(cp, p)
	return ByteString{kind: kindDense, dense: cp, runeLen: -1}
}

// fromBytesNoCopy is used internally when the caller already handed over
// exclusive ownership of p (e.g. a freshly produced digest).
func fromBytesNoCopy(p []byte) ByteString {
	return ByteString{kind: kindDense, dense: p, runeLen: -1}
}

// FromSegments builds a Segmented ByteString snapshotting refs. refs must
// already carry incremented share counts (buffer.Buffer.Snapshot does this
// via Segment.Share before calling FromSegments).
func FromSegments(refs []SegRef) ByteString {
	dir := make([]int64, len(refs))
	var total int64
	for i, r := range refs {
		total += int64(r.len())
		dir[i] = total
	}
	return ByteString{kind: kindSegmented, segs: refs, dir: dir, runeLen: -1}
}

// ByteSize returns the number of bytes in the string.
func (b ByteString) ByteSize() int64 {
	switch b.kind {
	case kindDense:
		return int64(len(b.dense))
	default:
		if len(b.dir) == 0 {
			return 0
		}
		return b.dir[len(b.dir)-1]
	}
}

// GetByte returns the byte at logical index i, failing with a Bounds error
// if i is outside [0, ByteSize()).
func (b ByteString) GetByte(i int64) (byte, error) {
	if i < 0 || i >= b.ByteSize() {
		return 0, ioerr.Wrap(ioerr.Bounds, "byte index out of range", nil)
	}
	switch b.kind {
	case kindDense:
		return b.dense[i], nil
	default:
		segIdx := sort.Search(len(b.dir), func(k int) bool { return b.dir[k] > i })
		ref := b.segs[segIdx]
		var prevEnd int64
		if segIdx > 0 {
			prevEnd = b.dir[segIdx-1]
		}
		offset := i - prevEnd
		return ref.Seg.Data[ref.Pos+int(offset)], nil
	}
}

// forEachRun invokes fn with successive contiguous byte runs that make up
// the string, in order, stopping early if fn returns false. It is the
// primitive every streaming operation (equality, hashing, hex/base64,
// WriteTo) builds on so segmented strings are never flattened just to be
// read once.
func (b ByteString) forEachRun(fn func([]byte) bool) {
	switch b.kind {
	case kindDense:
		if len(b.dense) > 0 {
			fn(b.dense)
		}
	default:
		for _, r := range b.segs {
			if r.len() == 0 {
				continue
			}
			if !fn(r.bytes()) {
				return
			}
		}
	}
}

// Bytes materializes the full contents as a single slice. Prefer forEachRun
// internally; Bytes exists for callers that need a flat []byte (e.g.
// handing data to an external API).
func (b ByteString) Bytes() []byte {
	if b.kind == kindDense {
		cp := make([]byte, len(b.dense))
		copy(cp, b.dense)
		return cp
	}
	out := make([]byte, 0, b.ByteSize())
	b.forEachRun(func(p []byte) bool {
		out = append(out, p...)
		return true
	})
	return out
}

// Substring returns the ByteString covering the half-open range
// [begin, end). It shares storage with the receiver when the receiver is
// segmented; dense substrings copy.
func (b ByteString) Substring(begin, end int64) (ByteString, error) {
	size := b.ByteSize()
	if begin < 0 || end > size || begin > end {
		return ByteString{}, ioerr.Wrap(ioerr.Bounds, "substring range out of bounds", nil)
	}
	if begin == end {
		return FromBytes(nil), nil
	}
	switch b.kind {
	case kindDense:
		return FromBytes(b.dense[begin:end]), nil
	default:
		var out []SegRef
		var pos int64
		for _, r := range b.segs {
			segEnd := pos + int64(r.len())
			if segEnd > begin && pos < end {
				lo := begin - pos
				if lo < 0 {
					lo = 0
				}
				hi := end - pos
				if hi > int64(r.len()) {
					hi = int64(r.len())
				}
				shared := r.Seg.Share(r.Pos+int(lo), r.Pos+int(hi))
				out = append(out, SegRef{Seg: shared, Pos: shared.Pos, Limit: shared.Limit})
			}
			pos = segEnd
			if pos >= end {
				break
			}
		}
		return FromSegments(out), nil
	}
}

// WriteTo feeds the string's contents into sink, sharing segments rather
// than copying whenever the receiver is segmented (spec §4.3: "writing a
// segmented ByteString into a Buffer must share segments... not by
// copying").
func (b ByteString) WriteTo(sink Sink) {
	switch b.kind {
	case kindDense:
		sink.AppendBytes(b.dense)
	default:
		for _, r := range b.segs {
			sink.AppendShared(r.Seg.Share(r.Pos, r.Limit))
		}
	}
}

// IsUTF8 reports whether this value was constructed as UTF-8-tagged.
func (b ByteString) IsUTF8() bool { return b.isUTF8 }

// IsASCII reports whether this value was constructed as ASCII-tagged.
func (b ByteString) IsASCII() bool { return b.isASCII }
