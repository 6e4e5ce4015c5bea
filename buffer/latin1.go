package buffer

import "github.com/altmount-labs/streamio/ioerr"

// WriteLatin1 appends s as Latin-1 (ISO-8859-1): one byte per code unit,
// no validation beyond range-checking, per spec §4.2. Code units >= 0x100
// fail with a character-coding error.
func (b *Buffer) WriteLatin1(s string) error {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r >= 0x100 {
			return ioerr.Wrap(ioerr.CharacterCoding, "code unit out of Latin-1 range", nil)
		}
		out = append(out, byte(r))
	}
	b.AppendBytes(out)
	return nil
}

// ReadLatin1 drains the buffer and decodes it as Latin-1 (1:1 byte to
// rune mapping, never fails).
func (b *Buffer) ReadLatin1() string {
	p := b.ReadByteArray()
	out := make([]rune, len(p))
	for i, c := range p {
		out[i] = rune(c)
	}
	return string(out)
}

// WriteASCII appends s, substituting '?' for any non-ASCII rune, matching
// bytestring.ASCIIFromString's construction rule.
func (b *Buffer) WriteASCII(s string) {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		if r < 0x80 {
			out = append(out, byte(r))
		} else {
			out = append(out, '?')
		}
	}
	b.AppendBytes(out)
}
