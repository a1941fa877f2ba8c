package stopbit

import "errors"

const (
	// StopBit marks the last byte of a stop-bit encoded entity.
	StopBit     byte = 0x80
	PayloadMask byte = 0x7F
	// NullByte is the single-byte encoding of null for nullable fields.
	NullByte byte = 0x80
	// SignBit is the sign of the first payload byte of a signed integer.
	SignBit byte = 0x40

	Int32MaxBytes = 5
	Int64MaxBytes = 10

	// Bits of the first byte that fall outside the type width at max length.
	Int32ExtraBits byte = 0x70
	Int64ExtraBits byte = 0x7E
	// Position of the two's-complement sign bit in the first byte at max length.
	Int32SignBit byte = 0x08
	Int64SignBit byte = 0x01

	bitsPerByte = 7
)

var (
	ErrTruncated = errors.New("stopbit: buffer ends before stop bit")
	ErrOverlong  = errors.New("stopbit: encoded length exceeds type width")
	ErrOverflow  = errors.New("stopbit: value bits exceed type width")
)

// Count returns the number of bytes up to and including the first byte with
// the stop bit set. It returns 0 when buf ends first.
func Count(buf []byte) int {
	for i, b := range buf {
		if b&StopBit != 0 {
			return i + 1
		}
	}
	return 0
}

// DecodedBits is the number of payload bits carried by n encoded bytes.
func DecodedBits(n int) int {
	return n * bitsPerByte
}

// IsNull reports whether buf starts with the null byte.
func IsNull(buf []byte) bool {
	return len(buf) > 0 && buf[0] == NullByte
}

func accumulate(buf []byte) uint64 {
	var v uint64
	for _, b := range buf {
		v = v<<bitsPerByte | uint64(b&PayloadMask)
	}
	return v
}

// Uint32 decodes an unsigned 32-bit integer. The consumed byte count is
// returned alongside ErrOverlong and ErrOverflow so callers can step past
// the malformed field.
func Uint32(buf []byte) (uint32, int, error) {
	n := Count(buf)
	if n == 0 {
		return 0, 0, ErrTruncated
	}
	v := uint32(accumulate(buf[:n]))
	if n > Int32MaxBytes {
		return v, n, ErrOverlong
	}
	if n == Int32MaxBytes && buf[0]&Int32ExtraBits != 0 {
		return v, n, ErrOverflow
	}
	return v, n, nil
}

// Uint64 decodes an unsigned 64-bit integer.
func Uint64(buf []byte) (uint64, int, error) {
	n := Count(buf)
	if n == 0 {
		return 0, 0, ErrTruncated
	}
	v := accumulate(buf[:n])
	if n > Int64MaxBytes {
		return v, n, ErrOverlong
	}
	if n == Int64MaxBytes && buf[0]&Int64ExtraBits != 0 {
		return v, n, ErrOverflow
	}
	return v, n, nil
}

func signExtend(v uint64, n int, first byte) uint64 {
	nbits := DecodedBits(n)
	if first&SignBit != 0 && nbits < 64 {
		v |= ^uint64(0) << nbits
	}
	return v
}

// signConsistent checks the extra bits of a max-length signed integer: all
// ones when the sign bit is set, all zeros otherwise.
func signConsistent(first, signBit, extraBits byte) bool {
	if first&signBit != 0 {
		return first&extraBits == extraBits
	}
	return first&extraBits == 0
}

// Int32 decodes a signed 32-bit integer.
func Int32(buf []byte) (int32, int, error) {
	n := Count(buf)
	if n == 0 {
		return 0, 0, ErrTruncated
	}
	v := int32(uint32(signExtend(accumulate(buf[:n]), n, buf[0])))
	if n > Int32MaxBytes {
		return v, n, ErrOverlong
	}
	if n == Int32MaxBytes && !signConsistent(buf[0], Int32SignBit, Int32ExtraBits) {
		return v, n, ErrOverflow
	}
	return v, n, nil
}

// Int64 decodes a signed 64-bit integer.
func Int64(buf []byte) (int64, int, error) {
	n := Count(buf)
	if n == 0 {
		return 0, 0, ErrTruncated
	}
	v := int64(signExtend(accumulate(buf[:n]), n, buf[0]))
	if n > Int64MaxBytes {
		return v, n, ErrOverlong
	}
	if n == Int64MaxBytes && !signConsistent(buf[0], Int64SignBit, Int64ExtraBits) {
		return v, n, ErrOverflow
	}
	return v, n, nil
}

// ASCII decodes a stop-bit terminated string. The returned slice is a copy
// with the stop bit of the final byte cleared.
func ASCII(buf []byte) ([]byte, int, error) {
	n := Count(buf)
	if n == 0 {
		return nil, 0, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	out[n-1] &^= StopBit
	return out, n, nil
}

// TrimASCII applies the zero-preamble rule to a decoded ASCII run: a
// leading 0x00 introduces the empty string (mandatory) and 0x00 0x00 does
// so for nullable fields. The preamble is only stripped from runs made of
// zero bytes; any other run starting with 0x00 is returned unchanged.
func TrimASCII(raw []byte, nullable bool) []byte {
	skip := 1
	if nullable {
		skip = 2
	}
	if len(raw) < skip {
		return raw
	}
	for _, b := range raw {
		if b != 0 {
			return raw
		}
	}
	return raw[skip:]
}

// Bytes copies n raw bytes from buf.
func Bytes(buf []byte, n int) ([]byte, error) {
	if n < 0 || n > len(buf) {
		return nil, ErrTruncated
	}
	out := make([]byte, n)
	copy(out, buf[:n])
	return out, nil
}

// PMapBits expands a presence map into its bits, seven per byte from weight
// 0x40 down to 0x01. The scan is bounded by len(buf).
func PMapBits(buf []byte) ([]bool, int, error) {
	n := Count(buf)
	if n == 0 {
		return nil, 0, ErrTruncated
	}
	bits := make([]bool, 0, DecodedBits(n))
	for _, b := range buf[:n] {
		for mask := SignBit; mask != 0; mask >>= 1 {
			bits = append(bits, b&mask != 0)
		}
	}
	return bits, n, nil
}
