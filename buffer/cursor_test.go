package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/segment"
)

func TestCursorIteratesAllSegments(t *testing.T) {
	b := buffer.New(nil)
	payload := make([]byte, segment.Size*2+10)
	for i := range payload {
		payload[i] = byte(i)
	}
	b.AppendBytes(payload)

	var seen []byte
	cur := b.Cursor()
	for {
		data, ok := cur.Next()
		if !ok {
			break
		}
		seen = append(seen, data...)
	}
	require.NoError(t, cur.Close())

	assert.Equal(t, payload, seen)
}

func TestCursorMutationIsVisibleAfterClose(t *testing.T) {
	b := buffer.New(nil)
	b.AppendBytes([]byte("abcdef"))

	cur := b.Cursor()
	data, ok := cur.Next()
	require.True(t, ok)
	for i := range data {
		data[i] = 'x'
	}
	require.NoError(t, cur.Close())

	assert.Equal(t, "xxxxxx", string(b.ReadByteArray()))
}

func TestCursorDoesNotCorruptSharedSnapshot(t *testing.T) {
	b := buffer.New(nil)
	b.AppendBytes([]byte("original"))
	snap := b.Snapshot()

	cur := b.Cursor()
	for {
		data, ok := cur.Next()
		if !ok {
			break
		}
		for i := range data {
			data[i] = 'z'
		}
	}
	require.NoError(t, cur.Close())

	assert.Equal(t, "original", string(snap.Bytes()), "writing through a Cursor must copy-on-write away from any shared snapshot")
	assert.Equal(t, "zzzzzzzz", string(b.ReadByteArray()))
}

func TestCursorPanicsAfterClose(t *testing.T) {
	b := buffer.New(nil)
	b.AppendBytes([]byte("x"))
	cur := b.Cursor()
	require.NoError(t, cur.Close())

	assert.Panics(t, func() {
		cur.Next()
	})
}
