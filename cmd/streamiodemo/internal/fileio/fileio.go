// Package fileio adapts *os.File to the streamio.RawReader/RawWriter
// collaborator interfaces, the plain uncompressed transport the demo CLI
// layers its buffered Reader/Writer façade over.
package fileio

import (
	"io"
	"os"

	"github.com/altmount-labs/streamio/buffer"
)

const chunkSize = 32 * 1024

// Reader adapts an *os.File for reading into a streamio.RawReader.
type Reader struct {
	f   *os.File
	buf []byte
}

// NewReader wraps f for streaming reads in chunkSize-sized pulls.
func NewReader(f *os.File) *Reader {
	return &Reader{f: f, buf: make([]byte, chunkSize)}
}

func (r *Reader) ReadAtMostTo(dst *buffer.Buffer, maxBytes int64) (int64, error) {
	if maxBytes <= 0 {
		return 0, nil
	}
	want := int64(len(r.buf))
	if maxBytes < want {
		want = maxBytes
	}
	n, err := r.f.Read(r.buf[:want])
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

// Writer adapts an *os.File for writing into a streamio.RawWriter.
type Writer struct {
	f *os.File
}

// NewWriter wraps f for streaming writes.
func NewWriter(f *os.File) *Writer {
	return &Writer{f: f}
}

func (w *Writer) Write(src *buffer.Buffer, byteCount int64) error {
	data, err := src.ReadByteArrayN(byteCount)
	if err != nil {
		return err
	}
	_, err = w.f.Write(data)
	return err
}

func (w *Writer) Flush() error { return w.f.Sync() }
func (w *Writer) Close() error { return w.f.Close() }
