package buffer

// WriteByteValue appends a single byte.
func (b *Buffer) WriteByteValue(v byte) {
	b.AppendBytes([]byte{v})
}

// WriteShortBE appends v as two big-endian bytes.
func (b *Buffer) WriteShortBE(v int16) {
	b.AppendBytes([]byte{byte(v >> 8), byte(v)})
}

// WriteShortLE appends v as two little-endian bytes.
func (b *Buffer) WriteShortLE(v int16) {
	b.AppendBytes([]byte{byte(v), byte(v >> 8)})
}

// WriteIntBE appends v as four big-endian bytes.
func (b *Buffer) WriteIntBE(v int32) {
	b.AppendBytes([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}

// WriteIntLE appends v as four little-endian bytes.
func (b *Buffer) WriteIntLE(v int32) {
	b.AppendBytes([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
}

// WriteLongBE appends v as eight big-endian bytes.
func (b *Buffer) WriteLongBE(v int64) {
	b.AppendBytes([]byte{
		byte(v >> 56), byte(v >> 48), byte(v >> 40), byte(v >> 32),
		byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v),
	})
}

// WriteLongLE appends v as eight little-endian bytes.
func (b *Buffer) WriteLongLE(v int64) {
	b.AppendBytes([]byte{
		byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
		byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
	})
}

// ReadByte consumes and returns one byte, failing with EOF if empty.
func (b *Buffer) ReadByte() (byte, error) {
	p, err := b.ReadByteArrayN(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// ReadShortBE consumes two bytes as a big-endian int16.
func (b *Buffer) ReadShortBE() (int16, error) {
	p, err := b.ReadByteArrayN(2)
	if err != nil {
		return 0, err
	}
	return int16(p[0])<<8 | int16(p[1]), nil
}

// ReadShortLE consumes two bytes as a little-endian int16.
func (b *Buffer) ReadShortLE() (int16, error) {
	p, err := b.ReadByteArrayN(2)
	if err != nil {
		return 0, err
	}
	return int16(p[1])<<8 | int16(p[0]), nil
}

// ReadIntBE consumes four bytes as a big-endian int32.
func (b *Buffer) ReadIntBE() (int32, error) {
	p, err := b.ReadByteArrayN(4)
	if err != nil {
		return 0, err
	}
	return int32(p[0])<<24 | int32(p[1])<<16 | int32(p[2])<<8 | int32(p[3]), nil
}

// ReadIntLE consumes four bytes as a little-endian int32.
func (b *Buffer) ReadIntLE() (int32, error) {
	p, err := b.ReadByteArrayN(4)
	if err != nil {
		return 0, err
	}
	return int32(p[3])<<24 | int32(p[2])<<16 | int32(p[1])<<8 | int32(p[0]), nil
}

// ReadLongBE consumes eight bytes as a big-endian int64.
func (b *Buffer) ReadLongBE() (int64, error) {
	p, err := b.ReadByteArrayN(8)
	if err != nil {
		return 0, err
	}
	var v int64
	for _, c := range p {
		v = v<<8 | int64(c)
	}
	return v, nil
}

// ReadLongLE consumes eight bytes as a little-endian int64.
func (b *Buffer) ReadLongLE() (int64, error) {
	p, err := b.ReadByteArrayN(8)
	if err != nil {
		return 0, err
	}
	var v int64
	for i := 7; i >= 0; i-- {
		v = v<<8 | int64(p[i])
	}
	return v, nil
}
