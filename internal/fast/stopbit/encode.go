package stopbit

// AppendUint64 appends v as a stop-bit encoded unsigned integer.
func AppendUint64(dst []byte, v uint64) []byte {
	var tmp [Int64MaxBytes]byte
	i := len(tmp)
	for {
		i--
		tmp[i] = byte(v) & PayloadMask
		v >>= bitsPerByte
		if v == 0 {
			break
		}
	}
	tmp[len(tmp)-1] |= StopBit
	return append(dst, tmp[i:]...)
}

func AppendUint32(dst []byte, v uint32) []byte {
	return AppendUint64(dst, uint64(v))
}

// AppendInt64 appends v using the minimal number of bytes that keeps the
// sign bit of the first byte correct.
func AppendInt64(dst []byte, v int64) []byte {
	var tmp [Int64MaxBytes]byte
	i := len(tmp)
	for {
		i--
		b := byte(v) & PayloadMask
		tmp[i] = b
		v >>= bitsPerByte
		if (v == 0 && b&SignBit == 0) || (v == -1 && b&SignBit != 0) {
			break
		}
	}
	tmp[len(tmp)-1] |= StopBit
	return append(dst, tmp[i:]...)
}

func AppendInt32(dst []byte, v int32) []byte {
	return AppendInt64(dst, int64(v))
}

func AppendNull(dst []byte) []byte {
	return append(dst, NullByte)
}

// AppendNullableUint64 appends v shifted by one, leaving 0 for null.
func AppendNullableUint64(dst []byte, v uint64) []byte {
	return AppendUint64(dst, v+1)
}

// AppendNullableInt64 shifts non-negative values by one, leaving 0 for null.
func AppendNullableInt64(dst []byte, v int64) []byte {
	if v >= 0 {
		v++
	}
	return AppendInt64(dst, v)
}

// AppendASCII appends s as a mandatory stop-bit string.
func AppendASCII(dst []byte, s []byte) []byte {
	if len(s) == 0 {
		return append(dst, StopBit)
	}
	if zeros(s) {
		dst = append(dst, 0)
	}
	return appendRun(dst, s)
}

// AppendNullableASCII appends s as an optional stop-bit string.
func AppendNullableASCII(dst []byte, s []byte) []byte {
	if len(s) == 0 {
		return append(dst, 0, StopBit)
	}
	if zeros(s) {
		dst = append(dst, 0, 0)
	}
	return appendRun(dst, s)
}

// zeros reports whether s is made only of 0x00 bytes, the one case that
// needs the preamble.
func zeros(s []byte) bool {
	for _, b := range s {
		if b != 0 {
			return false
		}
	}
	return true
}

func appendRun(dst []byte, s []byte) []byte {
	start := len(dst)
	dst = append(dst, s...)
	for i := start; i < len(dst); i++ {
		dst[i] &= PayloadMask
	}
	dst[len(dst)-1] |= StopBit
	return dst
}

// AppendBytes appends a length-prefixed byte vector.
func AppendBytes(dst []byte, b []byte, nullable bool) []byte {
	if nullable {
		dst = AppendNullableUint64(dst, uint64(len(b)))
	} else {
		dst = AppendUint64(dst, uint64(len(b)))
	}
	return append(dst, b...)
}

// AppendPMap packs bits seven per byte. An empty map still takes one byte.
func AppendPMap(dst []byte, bits []bool) []byte {
	n := (len(bits) + bitsPerByte - 1) / bitsPerByte
	if n == 0 {
		n = 1
	}
	start := len(dst)
	dst = append(dst, make([]byte, n)...)
	for i, bit := range bits {
		if bit {
			dst[start+i/bitsPerByte] |= SignBit >> (i % bitsPerByte)
		}
	}
	dst[len(dst)-1] |= StopBit
	return dst
}
