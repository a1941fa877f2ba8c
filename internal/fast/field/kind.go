package field

import (
	"fmt"
	"strings"
)

// Kind is the wire type of a field.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUInt32
	KindUInt64
	KindInt32
	KindInt64
	KindDecimal
	KindASCII
	KindUnicode
	KindByteVector
	KindGroup
	KindSequence
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindUInt32:     "uInt32",
	KindUInt64:     "uInt64",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindDecimal:    "decimal",
	KindASCII:      "ascii",
	KindUnicode:    "unicode",
	KindByteVector: "byteVector",
	KindGroup:      "group",
	KindSequence:   "sequence",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) IsInteger() bool {
	switch k {
	case KindUInt32, KindUInt64, KindInt32, KindInt64:
		return true
	}
	return false
}

func (k Kind) IsSigned() bool {
	return k == KindInt32 || k == KindInt64
}

// IsBytes reports whether values of k carry a byte payload.
func (k Kind) IsBytes() bool {
	switch k {
	case KindASCII, KindUnicode, KindByteVector:
		return true
	}
	return false
}

func (k Kind) IsComplex() bool {
	return k == KindGroup || k == KindSequence
}

// ParseKind accepts the canonical names case-insensitively plus "string"
// as an alias for ascii.
func ParseKind(raw string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "string":
		return KindASCII, nil
	case "bytevector", "bytes":
		return KindByteVector, nil
	}
	for k := KindUInt32; k <= KindSequence; k++ {
		if strings.ToLower(kindNames[k]) == name {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("field: unknown type %q", raw)
}

// Operator selects how the wire value combines with dictionary history.
type Operator uint8

const (
	OpNone Operator = iota
	OpConstant
	OpDefault
	OpCopy
	OpIncrement
	OpDelta
	OpTail
)

var operatorNames = [...]string{
	OpNone:      "no_operator",
	OpConstant:  "constant",
	OpDefault:   "default",
	OpCopy:      "copy",
	OpIncrement: "increment",
	OpDelta:     "delta",
	OpTail:      "tail",
}

func (o Operator) String() string {
	if int(o) < len(operatorNames) {
		return operatorNames[o]
	}
	return fmt.Sprintf("operator(%d)", uint8(o))
}

func ParseOperator(raw string) (Operator, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	switch name {
	case "", "none":
		return OpNone, nil
	}
	for o := OpNone; o <= OpTail; o++ {
		if operatorNames[o] == name {
			return o, nil
		}
	}
	return OpNone, fmt.Errorf("field: unknown operator %q", raw)
}

// Applicable reports whether operator o may be attached to a field of kind k.
func (o Operator) Applicable(k Kind) bool {
	switch o {
	case OpNone:
		return true
	case OpIncrement:
		return k.IsInteger()
	case OpTail:
		return k.IsBytes()
	case OpDelta:
		return !k.IsComplex()
	case OpConstant, OpDefault, OpCopy:
		return !k.IsComplex()
	}
	return false
}
