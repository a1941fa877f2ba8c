package operator

import (
	"errors"
	"fmt"

	"github.com/danmuck/fastdissect/internal/fast/cursor"
	"github.com/danmuck/fastdissect/internal/fast/dictionary"
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/rs/zerolog/log"
)

// Engine applies field operators. It keeps no state of its own; history
// lives in the dictionary.Set passed to Apply.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

// Apply decodes one leaf field at pos, consulting and updating dict. Errors
// are reported through the returned Data rather than as a Go error so that
// dissection of sibling fields can continue.
func (e *Engine) Apply(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	start := pos.Offset()
	out := e.apply(ft, pos, dict)
	out.Start = start
	out.Len = pos.Offset() - start
	if out.Status == field.StatusError {
		if !out.Value.IsValid() {
			out.Value = field.Zero(ft.Kind)
		}
		log.Debug().
			Uint32("template_id", ft.TemplateID).
			Str("field", ft.Label()).
			Str("code", string(out.Err.Code)).
			Msg(out.Err.Error())
	}
	return out
}

func (e *Engine) apply(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	if ft.Kind.IsComplex() || ft.Kind == field.KindInvalid || !ft.Operator.Applicable(ft.Kind) {
		return failed(ft, precondition(ft))
	}
	if ft.UsesComponents() {
		return e.components(ft, pos, dict)
	}
	switch ft.Operator {
	case field.OpNone:
		return wire(ft, pos)
	case field.OpConstant:
		return constant(ft, pos)
	case field.OpDefault:
		return defaultValue(ft, pos, dict)
	case field.OpCopy, field.OpIncrement:
		return copyOrIncrement(ft, pos, dict)
	case field.OpTail:
		return tail(ft, pos, dict)
	case field.OpDelta:
		switch {
		case ft.Kind.IsInteger():
			return deltaInteger(ft, pos, dict)
		case ft.Kind == field.KindDecimal:
			return deltaDecimal(ft, pos, dict)
		default:
			return deltaBytes(ft, pos, dict)
		}
	}
	return failed(ft, precondition(ft))
}

func precondition(ft *field.Type) *field.DynamicError {
	return field.NewDynamic(field.CodePrecondition,
		fmt.Sprintf("%s operator on %s field %s", ft.Operator, ft.Kind, ft.Label()))
}

func exists(v field.Value) field.Data {
	return field.Data{Status: field.StatusExists, Value: v}
}

func empty(ft *field.Type) field.Data {
	return field.Data{Status: field.StatusEmpty, Value: field.Zero(ft.Kind)}
}

func failed(ft *field.Type, err *field.DynamicError) field.Data {
	return field.Data{Status: field.StatusError, Value: field.Zero(ft.Kind), Err: err}
}

func keyOf(ft *field.Type) string {
	if ft.Key != "" {
		return ft.Key
	}
	return ft.Name
}

func store(ft *field.Type, dict *dictionary.Set, out field.Data) {
	dict.Put(dictionary.ScopeOf(ft), keyOf(ft), ft.Kind, out.Status, out.Value)
}

func lookup(ft *field.Type, dict *dictionary.Set) (dictionary.Lookup, *field.DynamicError) {
	prev, err := dict.Get(dictionary.ScopeOf(ft), keyOf(ft), ft.Kind)
	if err != nil {
		var derr *field.DynamicError
		if errors.As(err, &derr) {
			return prev, derr
		}
		return prev, field.WrapDynamic(field.CodeD4, err)
	}
	return prev, nil
}

func initial(ft *field.Type) field.Value {
	if ft.HasInitial {
		return ft.Initial.Clone()
	}
	return field.Zero(ft.Kind)
}

// wire decodes the field straight from the buffer.
func wire(ft *field.Type, pos *cursor.Position) field.Data {
	v, null, derr := read(ft, pos, ft.Nullable())
	switch {
	case derr != nil:
		return failed(ft, derr)
	case null:
		return empty(ft)
	}
	return exists(v)
}

func constant(ft *field.Type, pos *cursor.Position) field.Data {
	if ft.Mandatory {
		return exists(ft.Initial.Clone())
	}
	if bit, _ := pos.PresenceBit(); bit {
		return exists(ft.Initial.Clone())
	}
	return empty(ft)
}

func defaultValue(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	var out field.Data
	bit, _ := pos.PresenceBit()
	switch {
	case bit:
		out = wire(ft, pos)
	case ft.HasInitial:
		out = exists(ft.Initial.Clone())
	case !ft.Mandatory:
		out = empty(ft)
	default:
		return failed(ft, field.NewDynamic(field.CodeD5, "default operator without initial value"))
	}
	store(ft, dict, out)
	return out
}

// previous resolves the value of an absent copy, increment or tail field.
func previous(ft *field.Type, dict *dictionary.Set) field.Data {
	prev, derr := lookup(ft, dict)
	if derr != nil {
		return failed(ft, derr)
	}
	switch prev.Status {
	case field.StatusExists:
		if ft.Operator == field.OpIncrement {
			return exists(prev.Value.Add(1))
		}
		return exists(prev.Value)
	case field.StatusEmpty:
		if ft.Mandatory {
			return failed(ft, field.NewDynamic(field.CodeD6, ""))
		}
		return empty(ft)
	}
	switch {
	case ft.HasInitial:
		return exists(ft.Initial.Clone())
	case ft.Mandatory:
		return failed(ft, field.NewDynamic(field.CodeD5, ""))
	}
	return empty(ft)
}

func copyOrIncrement(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	var out field.Data
	if bit, _ := pos.PresenceBit(); bit {
		out = wire(ft, pos)
	} else {
		out = previous(ft, dict)
	}
	store(ft, dict, out)
	return out
}

func tail(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	bit, _ := pos.PresenceBit()
	if !bit {
		out := previous(ft, dict)
		store(ft, dict, out)
		return out
	}
	suffix, null, derr := read(ft, pos, ft.Nullable())
	if derr != nil {
		return failed(ft, derr)
	}
	if null {
		out := empty(ft)
		store(ft, dict, out)
		return out
	}
	prev, derr := lookup(ft, dict)
	if derr != nil {
		return failed(ft, derr)
	}
	base := initial(ft)
	if prev.Status == field.StatusExists {
		base = prev.Value
	}
	out := exists(field.BytesOf(ft.Kind, replaceTail(base.Bytes(), suffix.Bytes())))
	store(ft, dict, out)
	return out
}

// replaceTail overwrites the last len(suffix) bytes of base.
func replaceTail(base, suffix []byte) []byte {
	if len(suffix) >= len(base) {
		return suffix
	}
	out := make([]byte, len(base))
	copy(out, base)
	copy(out[len(base)-len(suffix):], suffix)
	return out
}

// components decodes a decimal through its exponent and mantissa fields.
func (e *Engine) components(ft *field.Type, pos *cursor.Position, dict *dictionary.Set) field.Data {
	expType, mantType := ft.Exponent(), ft.Mantissa()
	if expType == nil || mantType == nil {
		return failed(ft, field.NewDynamic(field.CodePrecondition, "decimal without exponent and mantissa"))
	}
	exp := e.apply(expType, pos, dict)
	switch exp.Status {
	case field.StatusError:
		if exp.Err.Code != field.CodeTruncated {
			// the mantissa is still on the wire
			e.apply(mantType, pos, dict)
		}
		return failed(ft, exp.Err)
	case field.StatusEmpty:
		return empty(ft)
	}
	mant := e.apply(mantType, pos, dict)
	switch mant.Status {
	case field.StatusError:
		return failed(ft, mant.Err)
	case field.StatusEmpty:
		return empty(ft)
	}
	x := int64(exp.Value.Int32())
	if !exponentInRange(x) {
		return failed(ft, exponentError(x))
	}
	return exists(field.DecimalValue(mant.Value.Int64(), int32(x)))
}
