package streamio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/bytestring"
	"github.com/altmount-labs/streamio/cancel"
	"github.com/altmount-labs/streamio/ioerr"
	"github.com/altmount-labs/streamio/streamio"
)

func newReaderOver(t *testing.T, content string) *streamio.Reader {
	t.Helper()
	src := buffer.New(nil)
	src.AppendBytes([]byte(content))
	return streamio.NewReader(streamio.BufferRawReader{Buf: src}, cancel.Root())
}

func TestReaderReadByteArrayDrainsEverything(t *testing.T) {
	r := newReaderOver(t, "hello world")
	p, err := r.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(p))
}

func TestReaderReadByteArrayNExactCount(t *testing.T) {
	r := newReaderOver(t, "abcdefgh")
	p, err := r.ReadByteArrayN(3)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(p))

	rest, err := r.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, "defgh", string(rest))
}

func TestReaderReadByteArrayNFailsOnShortUpstream(t *testing.T) {
	r := newReaderOver(t, "ab")
	_, err := r.ReadByteArrayN(10)
	assert.True(t, ioerr.Is(err, ioerr.EOF))
}

func TestReaderTypedIntegerReads(t *testing.T) {
	src := buffer.New(nil)
	src.WriteIntBE(123456)
	r := streamio.NewReader(streamio.BufferRawReader{Buf: src}, cancel.Root())

	v, err := r.ReadIntBE()
	require.NoError(t, err)
	assert.Equal(t, int32(123456), v)
}

func TestReaderIndexOfByteAcrossPulls(t *testing.T) {
	r := newReaderOver(t, "prefixXmarkersuffix")
	idx, err := r.IndexOfByte('X', 0)
	require.NoError(t, err)
	assert.Equal(t, int64(6), idx)
}

func TestReaderIndexOfByteNotFound(t *testing.T) {
	r := newReaderOver(t, "no markers here")
	idx, err := r.IndexOfByte('Z', 0)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), idx)
}

func TestReaderIndexOfSubsequence(t *testing.T) {
	r := newReaderOver(t, "the quick brown fox")
	needle := bytestring.FromBytes([]byte("brown"))
	idx, err := r.IndexOf(needle, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), idx)
}

func TestReaderReadUTF8LineSplitsOnLF(t *testing.T) {
	r := newReaderOver(t, "line one\nline two\nline three")

	line, ok, err := r.ReadUTF8Line()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "line one", line)

	line, ok, err = r.ReadUTF8Line()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "line two", line)

	line, ok, err = r.ReadUTF8Line()
	require.NoError(t, err)
	require.True(t, ok, "a final unterminated line is still returned")
	assert.Equal(t, "line three", line)

	_, ok, err = r.ReadUTF8Line()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReaderReadUTF8LineStripsCR(t *testing.T) {
	r := newReaderOver(t, "windows line\r\nunix line\n")

	line, ok, err := r.ReadUTF8Line()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "windows line", line)
}

func TestReaderExhaustedReflectsEmptyUpstream(t *testing.T) {
	r := newReaderOver(t, "x")
	exhausted, err := r.Exhausted()
	require.NoError(t, err)
	assert.False(t, exhausted)

	_, err = r.ReadByte()
	require.NoError(t, err)

	exhausted, err = r.Exhausted()
	require.NoError(t, err)
	assert.True(t, exhausted)
}

func TestReaderCloseFailsSubsequentOperations(t *testing.T) {
	r := newReaderOver(t, "data")
	require.NoError(t, r.Close())

	_, err := r.ReadByteArray()
	assert.True(t, ioerr.Is(err, ioerr.Closed))
}

// Peek must share upstream bytes with the underlying Reader without
// advancing its consumption position: a later real read on the original
// Reader must still observe everything the peek saw.
func TestPeekDoesNotAdvanceUnderlyingConsumption(t *testing.T) {
	r := newReaderOver(t, "peek me then read me fully")

	peeked := r.Peek()
	peekedBytes, err := peeked.ReadByteArrayN(8)
	require.NoError(t, err)
	assert.Equal(t, "peek me ", string(peekedBytes))

	full, err := r.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, "peek me then read me fully", string(full),
		"peeking must not consume bytes from the underlying Reader")
}

func TestPeekObservesBytesReadAfterThePeekBegan(t *testing.T) {
	r := newReaderOver(t, "abcdefgh")

	peeked := r.Peek()
	first, err := peeked.ReadByteArrayN(4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(first))

	// The underlying Reader reads past what was peeked; the peek must be
	// able to follow along since it shares the same upstream state.
	consumed, err := r.ReadByteArrayN(4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(consumed))

	second, err := peeked.ReadByteArrayN(4)
	require.NoError(t, err)
	assert.Equal(t, "efgh", string(second))
}

func TestMultiplePeeksAreIndependent(t *testing.T) {
	r := newReaderOver(t, "shared upstream content")

	peekA := r.Peek()
	peekB := r.Peek()

	a, err := peekA.ReadByteArrayN(6)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(a))

	// peekB started independently and must still see from its own start.
	b, err := peekB.ReadByteArrayN(6)
	require.NoError(t, err)
	assert.Equal(t, "shared", string(b))

	full, err := r.ReadByteArray()
	require.NoError(t, err)
	assert.Equal(t, "shared upstream content", string(full))
}
