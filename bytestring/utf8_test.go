package bytestring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/altmount-labs/streamio/bytestring"
)

func TestFromStringIsUTF8Tagged(t *testing.T) {
	bs := bytestring.FromString("héllo")
	assert.True(t, bs.IsUTF8())
	assert.False(t, bs.IsASCII())
	assert.Equal(t, "héllo", bs.String())
}

func TestUtf8LengthCountsCodePointsNotBytes(t *testing.T) {
	bs := bytestring.FromString("héllo")
	n, err := bs.Utf8Length()
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestUtf8LengthRejectsMalformedInput(t *testing.T) {
	bs := bytestring.FromBytes([]byte{'a', 0xFF, 'b'}).AsUTF8()
	_, err := bs.Utf8Length()
	assert.Error(t, err)
}

func TestStringSubstitutesMalformedSequences(t *testing.T) {
	bs := bytestring.FromBytes([]byte{'a', 0xFF, 'b'})
	assert.Equal(t, "a�b", bs.String())
}

func TestNewASCIIRejectsNonASCII(t *testing.T) {
	_, err := bytestring.NewASCII([]byte{0x80})
	assert.Error(t, err)

	bs, err := bytestring.NewASCII([]byte("plain"))
	require.NoError(t, err)
	assert.True(t, bs.IsASCII())
	assert.True(t, bs.IsUTF8())
}

func TestASCIIFromStringReplacesNonASCII(t *testing.T) {
	bs := bytestring.ASCIIFromString("héllo")
	assert.Equal(t, "h?llo", string(bs.Bytes()))
	assert.True(t, bs.IsASCII())
}
