package streamio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/streamio"
)

func newWriterOver(wire *buffer.Buffer) *streamio.Writer {
	return streamio.NewWriter(streamio.BufferRawWriter{Buf: wire}, cancel.Root())
}

func TestWriterWriteByteArrayThenFlush(t *testing.T) {
	wire := buffer.New(nil)
	w := newWriterOver(wire)

	w.WriteByteArray([]byte("hello"))
	assert.Equal(t, int64(0), wire.Len(), "bytes must stay writebehind until Flush/Emit")

	require.NoError(t, w.Flush())
	assert.Equal(t, "hello", string(wire.ReadByteArray()))
}

func TestWriterEmitKeepsHotTailOpen(t *testing.T) {
	wire := buffer.New(nil)
	w := newWriterOver(wire)

	payload := make([]byte, 8192+10)
	for i := range payload {
		payload[i] = byte(i)
	}
	w.WriteByteArray(payload)

	require.NoError(t, w.Emit())
	// Emit only pushes complete segments; the hot tail (last 10 bytes'
	// worth of partial segment) stays buffered until Flush/Close.
	require.NoError(t, w.Flush())
	assert.Equal(t, payload, wire.ReadByteArray())
}

func TestWriterTypedWrites(t *testing.T) {
	wire := buffer.New(nil)
	w := newWriterOver(wire)

	w.WriteIntBE(42)
	w.WriteShortLE(7)
	require.NoError(t, w.Flush())

	v, err := wire.ReadIntBE()
	require.NoError(t, err)
	assert.Equal(t, int32(42), v)

	s, err := wire.ReadShortLE()
	require.NoError(t, err)
	assert.Equal(t, int16(7), s)
}

func TestWriterWriteAllFromCountsBytes(t *testing.T) {
	src := buffer.New(nil)
	src.AppendBytes([]byte("source content to copy through"))

	wire := buffer.New(nil)
	w := newWriterOver(wire)

	n, err := w.WriteAllFrom(streamio.BufferRawReader{Buf: src})
	require.NoError(t, err)
	assert.Equal(t, int64(len("source content to copy through")), n)

	require.NoError(t, w.Close())
	assert.Equal(t, "source content to copy through", string(wire.ReadByteArray()))
}

func TestWriterCloseIsIdempotentAndFailsSubsequentWrites(t *testing.T) {
	wire := buffer.New(nil)
	w := newWriterOver(wire)
	w.WriteByteArray([]byte("x"))

	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "Close must be idempotent")

	err := w.WriteByte('y')
	assert.Error(t, err)
}

func TestWriteLatin1RejectsOutOfRangeCodeUnit(t *testing.T) {
	wire := buffer.New(nil)
	w := newWriterOver(wire)

	err := w.WriteLatin1("café Ā")
	assert.Error(t, err)
}

func TestWriteASCIISubstitutesNonASCII(t *testing.T) {
	wire := buffer.New(nil)
	w := newWriterOver(wire)

	w.WriteASCII("héllo")
	require.NoError(t, w.Flush())
	assert.Equal(t, "h?llo", string(wire.ReadByteArray()))
}
