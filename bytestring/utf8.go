package bytestring

import (
	"unicode/utf8"

	"github.com/altmount-labs/streamio/ioerr"
)

// FromString builds a Dense, UTF-8-tagged ByteString from s.
func FromString(s string) ByteString {
	b := FromBytes([]byte(s))
	b.isUTF8 = true
	return b
}

// AsUTF8 returns a copy of b tagged as UTF-8, without touching its bytes.
// Use Utf8Length to validate and memoize the code point count.
func (b ByteString) AsUTF8() ByteString {
	b.isUTF8 = true
	b.runeLen = -1
	return b
}

// Utf8Length validates the string is well-formed UTF-8 and returns its
// code point count, memoizing the result on first call. Malformed input
// fails with a CharacterCoding error (spec §4.3: "fails with a
// character-coding error if validation fails").
func (b *ByteString) Utf8Length() (int64, error) {
	if b.runeLen >= 0 {
		return b.runeLen, nil
	}
	var count int64
	var bad bool
	b.forEachRun(func(p []byte) bool {
		for len(p) > 0 {
			r, size := utf8.DecodeRune(p)
			if r == utf8.RuneError && size <= 1 {
				bad = true
				return false
			}
			count++
			p = p[size:]
		}
		return true
	})
	if bad {
		return 0, ioerr.Wrap(ioerr.CharacterCoding, "invalid UTF-8 sequence", nil)
	}
	b.runeLen = count
	return count, nil
}

// String decodes the value as UTF-8, substituting U+FFFD for malformed
// sequences per the W3C best-practice rule also used by buffer's UTF-8
// reader, so ByteString.String() and Reader.ReadUTF8() always agree.
func (b ByteString) String() string {
	var out []byte
	b.forEachRun(func(p []byte) bool {
		out = append(out, p...)
		return true
	})
	if utf8.Valid(out) {
		return string(out)
	}
	// Re-decode substituting invalid runs, matching the core's UTF-8
	// reader semantics (one byte consumed per malformed sequence).
	var sb []rune
	for len(out) > 0 {
		r, size := utf8.DecodeRune(out)
		sb = append(sb, r)
		out = out[size:]
	}
	return string(sb)
}

// NewASCII builds an ASCII-tagged ByteString, validating every byte is
// < 0x80 (spec §4.3: "construction from bytes validates byte < 0x80").
func NewASCII(p []byte) (ByteString, error) {
	for _, c := range p {
		if c >= 0x80 {
			return ByteString{}, ioerr.Wrap(ioerr.CharacterCoding, "non-ASCII byte in ASCII-tagged string", nil)
		}
	}
	b := FromBytes(p)
	b.isASCII = true
	b.isUTF8 = true
	return b, nil
}

// ASCIIFromString builds an ASCII-tagged ByteString from s, replacing any
// non-ASCII rune with '?' rather than failing (spec §4.3: "construction
// from a string replaces any non-ASCII character with '?'").
func ASCIIFromString(s string) ByteString {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
		} else {
			out = append(out, '?')
		}
	}
	b := fromBytesNoCopy(out)
	b.isASCII = true
	b.isUTF8 = true
	b.runeLen = int64(len(out))
	return b
}
