package field

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	MinExponent = -63
	MaxExponent = 63
)

var errBadDecimal = errors.New("field: malformed decimal")

// ParseValue converts configured text into a value of kind. Decimals are
// normalised so that trailing zeros move into the exponent; byte vectors are
// hex pairs.
func ParseValue(kind Kind, text string) (Value, error) {
	raw := strings.TrimSpace(text)
	switch kind {
	case KindUInt32:
		v, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("field: parse %s %q: %w", kind, text, err)
		}
		return Uint32Value(uint32(v)), nil
	case KindUInt64:
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("field: parse %s %q: %w", kind, text, err)
		}
		return Uint64Value(v), nil
	case KindInt32:
		v, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("field: parse %s %q: %w", kind, text, err)
		}
		return Int32Value(int32(v)), nil
	case KindInt64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("field: parse %s %q: %w", kind, text, err)
		}
		return Int64Value(v), nil
	case KindDecimal:
		m, e, err := parseDecimal(raw)
		if err != nil {
			return Value{}, fmt.Errorf("field: parse %s %q: %w", kind, text, err)
		}
		return DecimalValue(m, e), nil
	case KindASCII, KindUnicode:
		// strings keep surrounding whitespace
		return BytesOf(kind, []byte(text)), nil
	case KindByteVector:
		b, err := hex.DecodeString(raw)
		if err != nil {
			return Value{}, fmt.Errorf("field: parse %s %q: %w", kind, text, err)
		}
		return BytesValue(b), nil
	}
	return Value{}, fmt.Errorf("field: no value representation for %s", kind)
}

// parseDecimal accepts [sign]digits[.digits][e[sign]digits].
func parseDecimal(raw string) (int64, int32, error) {
	if raw == "" {
		return 0, 0, errBadDecimal
	}
	exp := 0
	if i := strings.IndexAny(raw, "eE"); i >= 0 {
		e, err := strconv.Atoi(raw[i+1:])
		if err != nil {
			return 0, 0, errBadDecimal
		}
		exp = e
		raw = raw[:i]
	}
	neg := false
	switch {
	case strings.HasPrefix(raw, "-"):
		neg = true
		raw = raw[1:]
	case strings.HasPrefix(raw, "+"):
		raw = raw[1:]
	}
	intPart, fracPart, _ := strings.Cut(raw, ".")
	digits := intPart + fracPart
	if digits == "" {
		return 0, 0, errBadDecimal
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return 0, 0, errBadDecimal
		}
	}
	exp -= len(fracPart)
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		return 0, 0, nil
	}
	for strings.HasSuffix(digits, "0") {
		digits = digits[:len(digits)-1]
		exp++
	}
	if neg {
		digits = "-" + digits
	}
	m, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, 0, err
	}
	if exp < MinExponent || exp > MaxExponent {
		return 0, 0, fmt.Errorf("%w: exponent %d out of range", errBadDecimal, exp)
	}
	return m, int32(exp), nil
}
