package display

import (
	"strconv"
	"strings"
)

// maxPlainExponent bounds the exponents rendered in positional notation.
const maxPlainExponent = 10

// Scientific renders a decimal as <mantissa>e<exponent>.
func Scientific(mantissa int64, exponent int32) string {
	return strconv.FormatInt(mantissa, 10) + "e" + strconv.FormatInt(int64(exponent), 10)
}

// Plain renders a decimal in positional notation. Exponents beyond ±10 fall
// back to Scientific.
func Plain(mantissa int64, exponent int32) string {
	if exponent < -maxPlainExponent || exponent > maxPlainExponent {
		return Scientific(mantissa, exponent)
	}
	digits := strconv.FormatUint(absUint(mantissa), 10)
	sign := ""
	if mantissa < 0 {
		sign = "-"
	}
	if exponent >= 0 {
		if mantissa == 0 {
			return "0"
		}
		return sign + digits + strings.Repeat("0", int(exponent))
	}
	scale := int(-exponent)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	point := len(digits) - scale
	return sign + digits[:point] + "." + digits[point:]
}

func absUint(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
