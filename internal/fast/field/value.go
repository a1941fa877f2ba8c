package field

import (
	"bytes"
	"encoding/hex"
	"strconv"
)

// Value is a decoded field value. The zero Value has KindInvalid. Values are
// built through the constructors below; byte payloads are copied on the way
// in, and Clone is the only way to duplicate one.
type Value struct {
	kind Kind
	u    uint64
	i    int64
	exp  int32
	b    []byte
}

func Uint32Value(v uint32) Value { return Value{kind: KindUInt32, u: uint64(v)} }
func Uint64Value(v uint64) Value { return Value{kind: KindUInt64, u: v} }
func Int32Value(v int32) Value   { return Value{kind: KindInt32, i: int64(v)} }
func Int64Value(v int64) Value   { return Value{kind: KindInt64, i: v} }

// DecimalValue is mantissa * 10^exponent.
func DecimalValue(mantissa int64, exponent int32) Value {
	return Value{kind: KindDecimal, i: mantissa, exp: exponent}
}

func ASCIIValue(b []byte) Value   { return Value{kind: KindASCII, b: copyBytes(b)} }
func UnicodeValue(b []byte) Value { return Value{kind: KindUnicode, b: copyBytes(b)} }
func BytesValue(b []byte) Value   { return Value{kind: KindByteVector, b: copyBytes(b)} }

// BytesOf builds a value of one of the byte kinds.
func BytesOf(kind Kind, b []byte) Value {
	switch kind {
	case KindUnicode:
		return UnicodeValue(b)
	case KindByteVector:
		return BytesValue(b)
	default:
		return ASCIIValue(b)
	}
}

// Zero returns the zero value of kind.
func Zero(kind Kind) Value {
	if kind.IsBytes() {
		return Value{kind: kind, b: []byte{}}
	}
	return Value{kind: kind}
}

func copyBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func (v Value) Uint32() uint32 {
	if v.kind != KindUInt32 {
		return 0
	}
	return uint32(v.u)
}

func (v Value) Uint64() uint64 {
	if v.kind != KindUInt64 && v.kind != KindUInt32 {
		return 0
	}
	return v.u
}

func (v Value) Int32() int32 {
	if v.kind != KindInt32 {
		return 0
	}
	return int32(v.i)
}

func (v Value) Int64() int64 {
	if v.kind != KindInt64 && v.kind != KindInt32 {
		return 0
	}
	return v.i
}

func (v Value) Mantissa() int64 {
	if v.kind != KindDecimal {
		return 0
	}
	return v.i
}

func (v Value) Exponent() int32 {
	if v.kind != KindDecimal {
		return 0
	}
	return v.exp
}

// Bytes returns the payload of a byte kind. The slice is owned by v and must
// not be modified.
func (v Value) Bytes() []byte {
	if !v.kind.IsBytes() {
		return nil
	}
	return v.b
}

// Len is the payload length for byte kinds and 0 otherwise.
func (v Value) Len() int {
	return len(v.Bytes())
}

func (v Value) Clone() Value {
	out := v
	if v.b != nil {
		out.b = copyBytes(v.b)
	}
	return out
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindUInt32, KindUInt64:
		return v.u == o.u
	case KindInt32, KindInt64:
		return v.i == o.i
	case KindDecimal:
		return v.i == o.i && v.exp == o.exp
	case KindASCII, KindUnicode, KindByteVector:
		return bytes.Equal(v.b, o.b)
	}
	return true
}

// Add returns v+delta for integer kinds, wrapping at the kind's width.
// Non-integer values are returned unchanged.
func (v Value) Add(delta int64) Value {
	switch v.kind {
	case KindUInt32:
		return Uint32Value(uint32(v.u) + uint32(delta))
	case KindUInt64:
		return Uint64Value(v.u + uint64(delta))
	case KindInt32:
		return Int32Value(int32(v.i) + int32(delta))
	case KindInt64:
		return Int64Value(v.i + delta)
	}
	return v
}

// String renders the value the way it appears in dissector output: integers
// in base 10, decimals as <mantissa>e<exponent>, strings verbatim and byte
// vectors as lowercase hex.
func (v Value) String() string {
	switch v.kind {
	case KindUInt32, KindUInt64:
		return strconv.FormatUint(v.u, 10)
	case KindInt32, KindInt64:
		return strconv.FormatInt(v.i, 10)
	case KindDecimal:
		return strconv.FormatInt(v.i, 10) + "e" + strconv.FormatInt(int64(v.exp), 10)
	case KindASCII, KindUnicode:
		return string(v.b)
	case KindByteVector:
		return hex.EncodeToString(v.b)
	}
	return ""
}
