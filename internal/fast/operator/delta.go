package operator

import (
	"errors"
	"fmt"

	"github.com/danmuck/fastdissect/internal/fast/cursor"
	"github.com/danmuck/fastdissect/internal/fast/dictionary"
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/fast/stopbit"
)

// deltaBase is the value a delta applies to: the previous value, else the
// initial value, else zero. An empty previous value has no base.
func deltaBase(ft *field.Type, dict *dictionary.Set) (field.Value, *field.DynamicError) {
	prev, derr := lookup(ft, dict)
	if derr != nil {
		return field.Value{}, derr
	}
	switch prev.Status {
	case field.StatusExists:
		return prev.Value, nil
	case field.StatusEmpty:
		return field.Value{}, field.NewDynamic(field.CodeD6, "delta base is empty")
	}
	return initial(ft), nil
}

func deltaInteger(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	d, null, derr := readDelta64(ft, pos, ft.Nullable())
	if derr != nil {
		return failed(ft, derr)
	}
	if null {
		return empty(ft)
	}
	base, derr := deltaBase(ft, dict)
	if derr != nil {
		return failed(ft, derr)
	}
	out := exists(base.Add(d))
	store(ft, dict, out)
	return out
}

// deltaDecimal applies independent exponent and mantissa deltas.
func deltaDecimal(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	de, null, derr := readDelta32(ft, pos, ft.Nullable())
	if derr != nil {
		if derr.Code != field.CodeTruncated {
			pos.Int64()
		}
		return failed(ft, derr)
	}
	if null {
		return empty(ft)
	}
	dm, _, derr := readDelta64(ft, pos, false)
	if derr != nil {
		return failed(ft, derr)
	}
	base, derr := deltaBase(ft, dict)
	if derr != nil {
		return failed(ft, derr)
	}
	exp := int64(base.Exponent()) + de
	if !exponentInRange(exp) {
		return failed(ft, exponentError(exp))
	}
	out := exists(field.DecimalValue(base.Mantissa()+dm, int32(exp)))
	store(ft, dict, out)
	return out
}

// deltaBytes applies a subtraction length and a diff to the previous string.
// A negative length removes from and prepends to the front.
func deltaBytes(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	sub, null, derr := readDelta32(ft, pos, ft.Nullable())
	if derr != nil {
		if errors.Is(derr, stopbit.ErrOverlong) || errors.Is(derr, stopbit.ErrOverflow) {
			return failed(ft, field.WrapDynamic(field.CodeD7, derr.Cause))
		}
		return failed(ft, derr)
	}
	if null {
		return empty(ft)
	}
	diff, derr := readDiff(ft, pos)
	if derr != nil {
		return failed(ft, derr)
	}
	base, derr := deltaBase(ft, dict)
	if derr != nil {
		return failed(ft, derr)
	}
	prev := base.Bytes()
	front := sub < 0
	if front {
		sub = -(sub + 1)
	}
	if sub > int64(len(prev)) {
		return failed(ft, field.NewDynamic(field.CodeD7,
			fmt.Sprintf("subtract %d from %d bytes", sub, len(prev))))
	}
	keep := len(prev) - int(sub)
	joined := make([]byte, 0, keep+len(diff))
	if front {
		joined = append(joined, diff...)
		joined = append(joined, prev[sub:]...)
	} else {
		joined = append(joined, prev[:keep]...)
		joined = append(joined, diff...)
	}
	out := exists(field.BytesOf(ft.Kind, joined))
	store(ft, dict, out)
	return out
}
