package bytestring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmount-labs/streamio/buffer"
	"github.com/altmount-labs/streamio/bytestring"
)

func TestSegmentedSnapshotEqualsDenseOfSameContent(t *testing.T) {
	b := buffer.New(nil)
	b.AppendBytes([]byte("segmented content"))
	segmented := b.Snapshot()

	dense := bytestring.FromBytes([]byte("segmented content"))

	assert.True(t, segmented.Equal(dense))
	assert.Equal(t, dense.HashCode(), segmented.HashCode(), "hash codes must agree across variants for identical content")
}

func TestSegmentedSnapshotSurvivesSourceMutation(t *testing.T) {
	b := buffer.New(nil)
	b.AppendBytes([]byte("frozen"))
	snap := b.Snapshot()

	b.AppendBytes([]byte(" plus extra"))
	b.Clear()

	require.Equal(t, "frozen", string(snap.Bytes()))
}

func TestSegmentedSubstringShares(t *testing.T) {
	b := buffer.New(nil)
	b.AppendBytes([]byte("hello world"))
	snap := b.Snapshot()

	sub, err := snap.Substring(6, 11)
	require.NoError(t, err)
	assert.Equal(t, "world", string(sub.Bytes()))
}
