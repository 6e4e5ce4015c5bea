package bytestring

// cursor walks a ByteString's runs one byte-slice at a time without
// materializing the whole value, used by Equal/RangeEquals/IndexOf so a
// Dense/Segmented comparison never pays the O(n log n) random-access cost
// the spec warns against.
type cursor struct {
	b       ByteString
	segIdx  int
	segOff  int
	denseOK bool
}

func newCursor(b ByteString) *cursor {
	return &cursor{b: b, denseOK: b.kind == kindDense}
}

// next returns up to max bytes of the next contiguous run and advances.
func (c *cursor) next(max int) []byte {
	switch c.b.kind {
	case kindDense:
		if !c.denseOK || c.segOff >= len(c.b.dense) {
			return nil
		}
		end := c.segOff + max
		if end > len(c.b.dense) {
			end = len(c.b.dense)
		}
		out := c.b.dense[c.segOff:end]
		c.segOff = end
		return out
	default:
		for c.segIdx < len(c.b.segs) {
			r := c.b.segs[c.segIdx]
			avail := r.len() - c.segOff
			if avail <= 0 {
				c.segIdx++
				c.segOff = 0
				continue
			}
			n := avail
			if n > max {
				n = max
			}
			out := r.bytes()[c.segOff : c.segOff+n]
			c.segOff += n
			return out
		}
		return nil
	}
}

// RangeEquals reports whether b[offset:offset+count] equals
// other[otherOffset:otherOffset+count], without materializing either side.
func (b ByteString) RangeEquals(offset int64, other ByteString, otherOffset, count int64) bool {
	if offset < 0 || otherOffset < 0 || count < 0 {
		return false
	}
	if offset+count > b.ByteSize() || otherOffset+count > other.ByteSize() {
		return false
	}
	left, _ := b.Substring(offset, offset+count)
	right, _ := other.Substring(otherOffset, otherOffset+count)
	lc, rc := newCursor(left), newCursor(right)
	for {
		lrun := lc.next(4096)
		if lrun == nil {
			rrun := rc.next(4096)
			return rrun == nil
		}
		need := len(lrun)
		for need > 0 {
			rrun := rc.next(need)
			if rrun == nil || len(rrun) > need {
				return false
			}
			if string(lrun[:len(rrun)]) != string(rrun) {
				return false
			}
			lrun = lrun[len(rrun):]
			need -= len(rrun)
		}
	}
}

// Equal reports byte-for-byte content equality, regardless of which
// variant either side is (spec §4.3 invariant: "content-equality across
// variants").
func (b ByteString) Equal(other ByteString) bool {
	if b.ByteSize() != other.ByteSize() {
		return false
	}
	return b.RangeEquals(0, other, 0, b.ByteSize())
}

// fnvOffset/fnvPrime fix the seed and polynomial so Dense and Segmented
// values with identical content always hash identically (spec §4.3:
// "hash codes are computed as if over a flat byte array").
const (
	fnvOffset = uint64(14695981039346656037)
	fnvPrime  = uint64(1099511628211)
)

// HashCode returns an FNV-1a 64-bit hash over the string's content.
func (b ByteString) HashCode() uint64 {
	if b.hashOnce {
		return b.hashVal
	}
	h := fnvOffset
	b.forEachRun(func(p []byte) bool {
		for _, c := range p {
			h ^= uint64(c)
			h *= fnvPrime
		}
		return true
	})
	return h
}

// IndexOf returns the first offset at or after fromIndex where other
// occurs as a contiguous subsequence, or -1 if it does not occur.
func (b ByteString) IndexOf(other ByteString, fromIndex int64) int64 {
	size, otherSize := b.ByteSize(), other.ByteSize()
	if fromIndex < 0 {
		fromIndex = 0
	}
	if otherSize == 0 {
		if fromIndex > size {
			return -1
		}
		return fromIndex
	}
	for start := fromIndex; start+otherSize <= size; start++ {
		if b.RangeEquals(start, other, 0, otherSize) {
			return start
		}
	}
	return -1
}
