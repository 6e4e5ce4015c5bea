// Package gzipio gzip-wraps the streamio.RawReader/RawWriter collaborator
// interfaces using klauspost/compress/gzip, demonstrating the core's
// Reader/Writer façade working transparently over a compressed transport.
package gzipio

import (
	"io"

	"github.com/klauspost/compress/gzip"

	"github.com/altmount-labs/streamio/buffer"
)

const chunkSize = 32 * 1024

// Writer gzip-compresses whatever bytes are written through it before
// forwarding them to the wrapped io.Writer.
type Writer struct {
	gz *gzip.Writer
}

// NewWriter starts a new gzip stream over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{gz: gzip.NewWriter(w)}
}

func (w *Writer) Write(src *buffer.Buffer, byteCount int64) error {
	data, err := src.ReadByteArrayN(byteCount)
	if err != nil {
		return err
	}
	_, err = w.gz.Write(data)
	return err
}

func (w *Writer) Flush() error { return w.gz.Flush() }
func (w *Writer) Close() error { return w.gz.Close() }

// Reader decompresses a gzip stream read from the wrapped io.Reader.
type Reader struct {
	gz  *gzip.Reader
	buf []byte
}

// NewReader opens a gzip stream over r, reading and validating its header
// immediately (mirroring gzip.NewReader's own contract).
func NewReader(r io.Reader) (*Reader, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	return &Reader{gz: gz, buf: make([]byte, chunkSize)}, nil
}

func (r *Reader) ReadAtMostTo(dst *buffer.Buffer, maxBytes int64) (int64, error) {
	if maxBytes <= 0 {
		return 0, nil
	}
	want := int64(len(r.buf))
	if maxBytes < want {
		want = maxBytes
	}
	n, err := r.gz.Read(r.buf[:want])
	if n > 0 {
		dst.AppendBytes(r.buf[:n])
	}
	if err == io.EOF {
		if n == 0 {
			return -1, nil
		}
		return int64(n), nil
	}
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// Close releases the underlying gzip reader.
func (r *Reader) Close() error { return r.gz.Close() }
