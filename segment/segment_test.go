package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegmentTakeResetsState(t *testing.T) {
	pool := NewPool("test")
	s := pool.Take()

	assert.Equal(t, 0, s.Pos)
	assert.Equal(t, 0, s.Limit)
	assert.True(t, s.Owner())
	assert.False(t, s.Shared())
	assert.Equal(t, Size, len(s.Data))
}

func TestSegmentWritableCapacity(t *testing.T) {
	pool := NewPool("test")
	s := pool.Take()
	assert.Equal(t, Size, s.WritableCapacity())

	s.Limit = 100
	assert.Equal(t, Size-100, s.WritableCapacity())
}

func TestSegmentShareMarksBothShared(t *testing.T) {
	pool := NewPool("test")
	s := pool.Take()
	s.Limit = 10

	shared := s.Share(0, 10)

	assert.True(t, s.Shared())
	assert.True(t, shared.Shared())
	assert.False(t, shared.Owner())
	assert.Equal(t, 0, shared.WritableCapacity(), "a non-owner segment can never extend Limit")
}

func TestSegmentUnsharedCopyIsIndependent(t *testing.T) {
	pool := NewPool("test")
	s := pool.Take()
	copy(s.Data, []byte("hello"))
	s.Limit = 5

	fresh := s.UnsharedCopy()
	require.Equal(t, "hello", string(fresh.Data[fresh.Pos:fresh.Limit]))
	assert.True(t, fresh.Owner())
	assert.False(t, fresh.Shared())

	fresh.Data[0] = 'H'
	assert.Equal(t, byte('h'), s.Data[0], "mutating the copy must not touch the original's storage")
}

func TestSegmentReleaseRecyclesOwnedSoleRef(t *testing.T) {
	pool := NewPool("test")
	s := pool.Take()
	before := pool.Len()

	s.Release()

	assert.Equal(t, before+1, pool.Len())
}

func TestSegmentReleaseDoesNotRecycleWhileShared(t *testing.T) {
	pool := NewPool("test")
	s := pool.Take()
	s.Limit = 10
	shared := s.Share(0, 10)
	before := pool.Len()

	s.Release()
	assert.Equal(t, before, pool.Len(), "a segment with live sharers must not be recycled")

	shared.Release()
	assert.Equal(t, before, pool.Len(), "a shared copy's storage is discarded for GC, not recycled")
}

func TestCompactIntoMergesSmallAdjacentSegments(t *testing.T) {
	pool := NewPool("test")
	a := pool.Take()
	copy(a.Data, []byte("abc"))
	a.Limit = 3

	b := pool.Take()
	copy(b.Data, []byte("def"))
	b.Limit = 3

	ok := CompactInto(a, b)
	require.True(t, ok)
	assert.Equal(t, "abcdef", string(a.Data[a.Pos:a.Limit]))
}

func TestCompactIntoRefusesSharedSegments(t *testing.T) {
	pool := NewPool("test")
	a := pool.Take()
	a.Limit = 3
	b := pool.Take()
	b.Limit = 3
	_ = a.Share(0, 3)

	ok := CompactInto(a, b)
	assert.False(t, ok, "a shared segment's Limit must never be extended")
}

func TestCompactIntoRefusesOversizedCombination(t *testing.T) {
	pool := NewPool("test")
	a := pool.Take()
	a.Limit = Size / 2
	b := pool.Take()
	b.Limit = Size/2 + 1

	ok := CompactInto(a, b)
	assert.False(t, ok, "combined payload over Size/2 is not cheap to merge")
}
