package buffer

// IndexOfByte scans forward from fromIndex for the first occurrence of target,
// across segments, without materializing a flat view.
func (buf *Buffer) IndexOfByte(target byte, fromIndex, toIndex int64) int64 {
	if fromIndex < 0 {
		fromIndex = 0
	}
	if toIndex < 0 || toIndex > buf.size {
		toIndex = buf.size
	}
	if fromIndex >= toIndex {
		return -1
	}

	var pos int64
	for s := buf.head; s != nil && pos < toIndex; s = s.Next {
		segLen := int64(s.Len())
		segEnd := pos + segLen
		if segEnd > fromIndex {
			lo := int64(0)
			if fromIndex > pos {
				lo = fromIndex - pos
			}
			hi := segLen
			if segEnd > toIndex {
				hi = toIndex - pos
			}
			for i := lo; i < hi; i++ {
				if s.Data[s.Pos+int(i)] == target {
					return pos + i
				}
			}
		}
		pos = segEnd
	}
	return -1
}
