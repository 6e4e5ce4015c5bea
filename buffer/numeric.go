package buffer

import "github.com/altmount-labs/streamio/ioerr"

// ReadDecimalLong drains the buffer and parses it as a decimal integer:
// an optional leading '-' then one or more digits, rejecting overflow,
// per spec §4.2's integer-codec rules.
func (b *Buffer) ReadDecimalLong() (int64, error) {
	p := b.ReadByteArray()
	return parseDecimal(p)
}

func parseDecimal(p []byte) (int64, error) {
	if len(p) == 0 {
		return 0, ioerr.Wrap(ioerr.NumericFormat, "empty decimal integer", nil)
	}
	i := 0
	neg := false
	if p[i] == '-' {
		neg = true
		i++
	}
	if i == len(p) {
		return 0, ioerr.Wrap(ioerr.NumericFormat, "missing digits after sign", nil)
	}
	var v int64
	for ; i < len(p); i++ {
		c := p[i]
		if c < '0' || c > '9' {
			return 0, ioerr.Wrap(ioerr.NumericFormat, "non-digit character in decimal integer", nil)
		}
		d := int64(c - '0')
		if v > (1<<63-1-d)/10 {
			return 0, ioerr.Wrap(ioerr.NumericFormat, "decimal integer overflow", nil)
		}
		v = v*10 + d
	}
	if neg {
		v = -v
	}
	return v, nil
}

// ReadHexadecimalUnsignedLong drains the buffer and parses it as an
// unsigned hexadecimal integer matching [0-9a-fA-F]+.
func (b *Buffer) ReadHexadecimalUnsignedLong() (uint64, error) {
	p := b.ReadByteArray()
	if len(p) == 0 {
		return 0, ioerr.Wrap(ioerr.NumericFormat, "empty hexadecimal integer", nil)
	}
	var v uint64
	for _, c := range p {
		var d uint64
		switch {
		case c >= '0' && c <= '9':
			d = uint64(c - '0')
		case c >= 'a' && c <= 'f':
			d = uint64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = uint64(c-'A') + 10
		default:
			return 0, ioerr.Wrap(ioerr.NumericFormat, "non-hex-digit character", nil)
		}
		v = v<<4 | d
	}
	return v, nil
}
