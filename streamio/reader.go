package streamio

import (
	"strings"

	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/bytestring"
	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/ioerr"
)

// pullChunk bounds a single upstream pull so request(n) for a very large n
// doesn't demand the RawReader hand back its entire remainder in one call.
const pullChunk = 8192

// Reader is the buffered façade over a RawReader described by spec §4.4:
// operations first consume from its own readahead Buffer, pulling more
// from upstream only when request/require need to.
type Reader struct {
	buf       *buffer.Buffer
	src       RawReader
	scope     *cancel.Scope
	exhausted bool
	closed    bool
}

// NewReader wraps src in a buffered Reader. A nil scope means no
// cooperative cancellation is observed.
func NewReader(src RawReader, scope *cancel.Scope) *Reader {
	return &Reader{buf: buffer.New(nil), src: src, scope: scope}
}

func (r *Reader) throwIfReached() error {
	if r.closed {
		return ioerr.ErrClosed
	}
	if r.scope != nil {
		return r.scope.ThrowIfReached()
	}
	return nil
}

// Request fills the readahead buffer until it holds at least n bytes or
// upstream is exhausted, returning whether the target was met.
func (r *Reader) Request(n int64) (bool, error) {
	if n < 0 {
		return false, ioerr.Wrap(ioerr.Bounds, "negative byte count", nil)
	}
	for r.buf.Len() < n {
		if r.exhausted {
			return false, nil
		}
		if err := r.throwIfReached(); err != nil {
			return false, err
		}
		want := n - r.buf.Len()
		if want > pullChunk {
			want = pullChunk
		}
		got, err := r.src.ReadAtMostTo(r.buf, want)
		if err != nil {
			return false, err
		}
		if got < 0 {
			r.exhausted = true
			return r.buf.Len() >= n, nil
		}
		if err := r.throwIfReached(); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Require is Request(n) that fails with EOF instead of returning false.
func (r *Reader) Require(n int64) error {
	ok, err := r.Request(n)
	if err != nil {
		return err
	}
	if !ok {
		return ioerr.ErrEOF
	}
	return nil
}

// Exhausted reports whether the readahead buffer is empty and upstream has
// signaled end-of-stream.
func (r *Reader) Exhausted() (bool, error) {
	if !r.buf.Empty() {
		return false, nil
	}
	ok, err := r.Request(1)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

// ReadByte consumes one byte.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.Require(1); err != nil {
		return 0, err
	}
	return r.buf.ReadByte()
}

func (r *Reader) ReadShortBE() (int16, error) {
	if err := r.Require(2); err != nil {
		return 0, err
	}
	return r.buf.ReadShortBE()
}

func (r *Reader) ReadShortLE() (int16, error) {
	if err := r.Require(2); err != nil {
		return 0, err
	}
	return r.buf.ReadShortLE()
}

func (r *Reader) ReadIntBE() (int32, error) {
	if err := r.Require(4); err != nil {
		return 0, err
	}
	return r.buf.ReadIntBE()
}

func (r *Reader) ReadIntLE() (int32, error) {
	if err := r.Require(4); err != nil {
		return 0, err
	}
	return r.buf.ReadIntLE()
}

func (r *Reader) ReadLongBE() (int64, error) {
	if err := r.Require(8); err != nil {
		return 0, err
	}
	return r.buf.ReadLongBE()
}

func (r *Reader) ReadLongLE() (int64, error) {
	if err := r.Require(8); err != nil {
		return 0, err
	}
	return r.buf.ReadLongLE()
}

// ReadByteArray drains the upstream entirely and returns it as a []byte.
func (r *Reader) ReadByteArray() ([]byte, error) {
	for {
		if err := r.throwIfReached(); err != nil {
			return nil, err
		}
		if r.exhausted {
			break
		}
		got, err := r.src.ReadAtMostTo(r.buf, pullChunk)
		if err != nil {
			return nil, err
		}
		if got < 0 {
			r.exhausted = true
		}
	}
	return r.buf.ReadByteArray(), nil
}

// ReadByteArrayN reads exactly n bytes.
func (r *Reader) ReadByteArrayN(n int64) ([]byte, error) {
	if err := r.Require(n); err != nil {
		return nil, err
	}
	return r.buf.ReadByteArrayN(n)
}

// ReadByteString reads exactly n bytes, sharing segments rather than
// copying.
func (r *Reader) ReadByteString(n int64) (bytestring.ByteString, error) {
	if err := r.Require(n); err != nil {
		return bytestring.ByteString{}, err
	}
	return r.buf.ReadByteString(n)
}

// ReadUTF8 drains the upstream entirely, decoding it as UTF-8.
func (r *Reader) ReadUTF8() (string, error) {
	p, err := r.ReadByteArray()
	if err != nil {
		return "", err
	}
	tmp := buffer.New(nil)
	tmp.AppendBytes(p)
	return tmp.ReadUTF8(), nil
}

// ReadUTF8N reads exactly n bytes and decodes them as UTF-8.
func (r *Reader) ReadUTF8N(n int64) (string, error) {
	if err := r.Require(n); err != nil {
		return "", err
	}
	return r.buf.ReadUTF8N(n)
}

// ReadUTF8Line reads up to and consuming a "\n" or "\r\n" terminator,
// returning the line without the terminator. Once upstream is exhausted
// with no bytes left, it returns ok=false and a nil error; a final
// unterminated line is still returned with ok=true, the way
// bufio.Scanner's last-token behavior works, matching okio's readUtf8Line.
func (r *Reader) ReadUTF8Line() (string, bool, error) {
	idx, err := r.IndexOfByte('\n', 0)
	if err != nil {
		return "", false, err
	}
	if idx == -1 {
		exhausted, err := r.Exhausted()
		if err != nil {
			return "", false, err
		}
		if exhausted {
			return "", false, nil
		}
		p, err := r.ReadByteArray()
		if err != nil {
			return "", false, err
		}
		return strings.TrimSuffix(string(p), "\r"), true, nil
	}
	line, err := r.ReadUTF8N(idx)
	if err != nil {
		return "", false, err
	}
	if _, err := r.ReadByte(); err != nil { // consume '\n'
		return "", false, err
	}
	return strings.TrimSuffix(line, "\r"), true, nil
}

// ReadLatin1 drains the upstream entirely, decoding it as Latin-1.
func (r *Reader) ReadLatin1() (string, error) {
	p, err := r.ReadByteArray()
	if err != nil {
		return "", err
	}
	tmp := buffer.New(nil)
	tmp.AppendBytes(p)
	return tmp.ReadLatin1(), nil
}

// IndexOfByte scans for target starting at fromIndex, pulling more from
// upstream as needed, without materializing a flat view of the buffer
// (spec §4.4).
func (r *Reader) IndexOfByte(target byte, fromIndex int64) (int64, error) {
	if fromIndex < 0 {
		return -1, ioerr.Wrap(ioerr.Bounds, "negative fromIndex", nil)
	}
	for {
		result := r.buf.IndexOfByte(target, fromIndex, -1)
		if result >= 0 {
			return result, nil
		}
		lastLen := r.buf.Len()
		ok, err := r.Request(lastLen + 1)
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, nil
		}
	}
}

// IndexOf scans for the first occurrence of other starting at fromIndex,
// pulling more from upstream as needed. This performs a straightforward
// scan over progressively larger materialized windows rather than a true
// streaming Boyer-Moore; callers searching very large haystacks for very
// long needles should chunk manually.
func (r *Reader) IndexOf(other bytestring.ByteString, fromIndex int64) (int64, error) {
	needleLen := other.ByteSize()
	if needleLen == 0 {
		return fromIndex, nil
	}
	firstByte, err := other.GetByte(0)
	if err != nil {
		return -1, err
	}
	for {
		candidate, err := r.IndexOfByte(firstByte, fromIndex)
		if err != nil || candidate == -1 {
			return candidate, err
		}
		ok, err := r.Request(candidate + needleLen)
		if err != nil {
			return -1, err
		}
		if !ok {
			return -1, nil
		}
		snap := r.buf.Snapshot()
		if snap.RangeEquals(candidate, other, 0, needleLen) {
			return candidate, nil
		}
		fromIndex = candidate + 1
	}
}

// Peek returns a Reader that shares this Reader's upstream but consumes
// nothing: bytes it reads are also cached into this Reader's buffer so a
// subsequent real read sees the same bytes again.
func (r *Reader) Peek() *Reader {
	return &Reader{buf: buffer.New(nil), src: &peekSource{r: r}, scope: r.scope}
}

type peekSource struct {
	r   *Reader
	pos int64
}

func (p *peekSource) ReadAtMostTo(dst *buffer.Buffer, maxBytes int64) (int64, error) {
	if maxBytes <= 0 {
		return 0, nil
	}
	ok, err := p.r.Request(p.pos + 1)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, nil
	}
	avail := p.r.buf.Len() - p.pos
	if avail > maxBytes {
		avail = maxBytes
	}
	snap := p.r.buf.Snapshot()
	piece, err := snap.Substring(p.pos, p.pos+avail)
	if err != nil {
		return 0, err
	}
	piece.WriteTo(dst)
	p.pos += avail
	return avail, nil
}

// Close closes the underlying RawReader if it implements io.Closer-like
// Close. Subsequent operations fail with a closed-resource error.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if c, ok := r.src.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
