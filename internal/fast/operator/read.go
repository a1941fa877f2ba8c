package operator

import (
	"errors"
	"fmt"

	"github.com/danmuck/fastdissect/internal/fast/cursor"
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/fast/stopbit"
)

func codecError(ft *field.Type, err error) *field.DynamicError {
	code := field.CodeD2
	if errors.Is(err, stopbit.ErrTruncated) {
		code = field.CodeTruncated
	}
	return &field.DynamicError{Code: code, Detail: ft.Kind.String(), Cause: err}
}

func exponentError(exp int64) *field.DynamicError {
	return field.NewDynamic(field.CodeD3, fmt.Sprintf("exponent %d outside [%d, %d]", exp, field.MinExponent, field.MaxExponent))
}

func exponentInRange(exp int64) bool {
	return exp >= field.MinExponent && exp <= field.MaxExponent
}

// nullableSigned undoes the nullable shift of a signed integer. ok is false
// for null.
func nullableSigned(v int64) (int64, bool) {
	switch {
	case v == 0:
		return 0, false
	case v > 0:
		return v - 1, true
	}
	return v, true
}

// read decodes the wire representation of ft at pos. null is true when a
// nullable field carries null.
func read(ft *field.Type, pos *cursor.Position, nullable bool) (field.Value, bool, *field.DynamicError) {
	var v field.Value
	if nullable && pos.PeekNull() {
		pos.Skip(1)
		return v, true, nil
	}
	switch ft.Kind {
	case field.KindUInt32:
		u, err := pos.Uint32()
		if err != nil {
			return v, false, codecError(ft, err)
		}
		if nullable {
			if u == 0 {
				return v, true, nil
			}
			u--
		}
		return field.Uint32Value(u), false, nil

	case field.KindUInt64:
		u, err := pos.Uint64()
		if err != nil {
			return v, false, codecError(ft, err)
		}
		if nullable {
			if u == 0 {
				return v, true, nil
			}
			u--
		}
		return field.Uint64Value(u), false, nil

	case field.KindInt32:
		i, err := pos.Int32()
		if err != nil {
			return v, false, codecError(ft, err)
		}
		n := int64(i)
		if nullable {
			var ok bool
			if n, ok = nullableSigned(n); !ok {
				return v, true, nil
			}
		}
		return field.Int32Value(int32(n)), false, nil

	case field.KindInt64:
		i, err := pos.Int64()
		if err != nil {
			return v, false, codecError(ft, err)
		}
		if nullable {
			var ok bool
			if i, ok = nullableSigned(i); !ok {
				return v, true, nil
			}
		}
		return field.Int64Value(i), false, nil

	case field.KindDecimal:
		exp, isNull, derr := readDelta32(ft, pos, nullable)
		if derr != nil {
			if derr.Code != field.CodeTruncated {
				pos.Int64()
			}
			return v, false, derr
		}
		if isNull {
			return v, true, nil
		}
		if !exponentInRange(exp) {
			// step over the mantissa so the next field lines up
			pos.Int64()
			return v, false, exponentError(exp)
		}
		mant, err := pos.Int64()
		if err != nil {
			return v, false, codecError(ft, err)
		}
		return field.DecimalValue(mant, int32(exp)), false, nil

	case field.KindASCII:
		raw, err := pos.ASCII()
		if err != nil {
			return v, false, codecError(ft, err)
		}
		return field.ASCIIValue(stopbit.TrimASCII(raw, nullable)), false, nil

	case field.KindUnicode, field.KindByteVector:
		b, isNull, derr := readVector(ft, pos, nullable)
		if derr != nil || isNull {
			return v, isNull, derr
		}
		return field.BytesOf(ft.Kind, b), false, nil
	}
	return v, false, precondition(ft)
}

// readVector reads a length-prefixed byte run.
func readVector(ft *field.Type, pos *cursor.Position, nullable bool) ([]byte, bool, *field.DynamicError) {
	n, err := pos.Uint32()
	if err != nil {
		return nil, false, codecError(ft, err)
	}
	if nullable {
		if n == 0 {
			return nil, true, nil
		}
		n--
	}
	b, err := pos.Raw(int(n))
	if err != nil {
		return nil, false, codecError(ft, err)
	}
	return b, false, nil
}

// readDelta32 reads a signed 32-bit quantity such as an exponent or a
// subtraction length.
func readDelta32(ft *field.Type, pos *cursor.Position, nullable bool) (int64, bool, *field.DynamicError) {
	if nullable && pos.PeekNull() {
		pos.Skip(1)
		return 0, true, nil
	}
	i, err := pos.Int32()
	if err != nil {
		return 0, false, codecError(ft, err)
	}
	n := int64(i)
	if nullable {
		var ok bool
		if n, ok = nullableSigned(n); !ok {
			return 0, true, nil
		}
	}
	return n, false, nil
}

func readDelta64(ft *field.Type, pos *cursor.Position, nullable bool) (int64, bool, *field.DynamicError) {
	if nullable && pos.PeekNull() {
		pos.Skip(1)
		return 0, true, nil
	}
	i, err := pos.Int64()
	if err != nil {
		return 0, false, codecError(ft, err)
	}
	if nullable {
		var ok bool
		if i, ok = nullableSigned(i); !ok {
			return 0, true, nil
		}
	}
	return i, false, nil
}

// readDiff reads the string part of a byte delta.
func readDiff(ft *field.Type, pos *cursor.Position) ([]byte, *field.DynamicError) {
	if ft.Kind == field.KindASCII {
		raw, err := pos.ASCII()
		if err != nil {
			return nil, codecError(ft, err)
		}
		return stopbit.TrimASCII(raw, false), nil
	}
	b, _, derr := readVector(ft, pos, false)
	return b, derr
}
