package streamio

import (
	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/bytestring"
	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/ioerr"
)

// Writer is the buffered façade over a RawWriter from spec §4.4: typed
// write methods accumulate into a writebehind Buffer, which Emit/Flush
// drain downstream.
type Writer struct {
	buf    *buffer.Buffer
	dst    RawWriter
	scope  *cancel.Scope
	closed bool
}

// NewWriter wraps dst in a buffered Writer.
func NewWriter(dst RawWriter, scope *cancel.Scope) *Writer {
	return &Writer{buf: buffer.New(nil), dst: dst, scope: scope}
}

func (w *Writer) throwIfReached() error {
	if w.closed {
		return ioerr.ErrClosed
	}
	if w.scope != nil {
		return w.scope.ThrowIfReached()
	}
	return nil
}

func (w *Writer) WriteByte(v byte) error  { w.buf.WriteByteValue(v); return w.throwIfReached() }
func (w *Writer) WriteShortBE(v int16)    { w.buf.WriteShortBE(v) }
func (w *Writer) WriteShortLE(v int16)    { w.buf.WriteShortLE(v) }
func (w *Writer) WriteIntBE(v int32)      { w.buf.WriteIntBE(v) }
func (w *Writer) WriteIntLE(v int32)      { w.buf.WriteIntLE(v) }
func (w *Writer) WriteLongBE(v int64)     { w.buf.WriteLongBE(v) }
func (w *Writer) WriteLongLE(v int64)     { w.buf.WriteLongLE(v) }
func (w *Writer) WriteByteArray(p []byte) { w.buf.AppendBytes(p) }
func (w *Writer) WriteUTF8(s string)      { w.buf.WriteUTF8(s) }

func (w *Writer) WriteLatin1(s string) error { return w.buf.WriteLatin1(s) }
func (w *Writer) WriteASCII(s string)        { w.buf.WriteASCII(s) }

// WriteByteString appends bs, sharing segments rather than copying when bs
// is itself segmented (spec §4.2/§4.4).
func (w *Writer) WriteByteString(bs bytestring.ByteString) {
	w.buf.WriteByteString(bs)
}

// Emit writes every complete segment downstream, keeping the current hot
// partial tail segment open for further appends (spec §4.4: "enabling high
// throughput with minimal syscalls").
func (w *Writer) Emit() error {
	if err := w.throwIfReached(); err != nil {
		return err
	}
	complete := w.buf.Len() - w.buf.HotTailLen()
	if complete <= 0 {
		return nil
	}
	if err := w.dst.Write(w.buf, complete); err != nil {
		return err
	}
	return w.throwIfReached()
}

// Flush drains the entire writebehind buffer downstream and calls the
// underlying RawWriter's Flush.
func (w *Writer) Flush() error {
	if err := w.throwIfReached(); err != nil {
		return err
	}
	if w.buf.Len() > 0 {
		if err := w.dst.Write(w.buf, w.buf.Len()); err != nil {
			return err
		}
	}
	if err := w.dst.Flush(); err != nil {
		return err
	}
	return w.throwIfReached()
}

// WriteAllFrom pulls from src until exhaustion, writing through to
// downstream as it goes, and returns the total byte count moved.
func (w *Writer) WriteAllFrom(src RawReader) (int64, error) {
	var total int64
	for {
		if err := w.throwIfReached(); err != nil {
			return total, err
		}
		got, err := src.ReadAtMostTo(w.buf, pullChunk)
		if err != nil {
			return total, err
		}
		if got < 0 {
			break
		}
		total += got
		if err := w.Emit(); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Close flushes and closes the underlying RawWriter. It is idempotent.
// After Close, WriteByte, Emit, Flush and WriteAllFrom fail with a
// closed-resource error; the write methods that return no error (and
// WriteLatin1) do not check for Close and only append to the buffer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	flushErr := w.Flush()
	w.closed = true
	closeErr := w.dst.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
