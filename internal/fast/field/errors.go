package field

import (
	"errors"
	"fmt"
)

var (
	ErrFormat          = errors.New("field: format error")
	ErrTypeMismatch    = errors.New("field: dictionary type mismatch")
	ErrMissingValue    = errors.New("field: missing value")
	ErrSubtraction     = errors.New("field: invalid subtraction length")
	ErrUnknownTemplate = errors.New("field: unknown template")
	ErrPrecondition    = errors.New("field: operator precondition")
	ErrTruncated       = errors.New("field: truncated data")
	ErrStatic          = errors.New("field: template error")
)

// Code identifies a numbered error case. S codes are template errors found
// while preparing a template, D codes are per-message errors.
type Code string

const (
	CodeS1 Code = "S1"
	CodeS2 Code = "S2"
	CodeS3 Code = "S3"
	CodeS4 Code = "S4"
	CodeS5 Code = "S5"

	CodeD2 Code = "D2"
	CodeD3 Code = "D3"
	CodeD4 Code = "D4"
	CodeD5 Code = "D5"
	CodeD6 Code = "D6"
	CodeD7 Code = "D7"
	CodeD9 Code = "D9"

	// Uncoded dynamic cases.
	CodeTruncated    Code = "truncated"
	CodePrecondition Code = "precondition"
)

var codeText = map[Code]string{
	CodeS1: "Malformed template definition",
	CodeS2: "Operator not applicable to field type",
	CodeS3: "Initial value cannot be converted to field type",
	CodeS4: "Constant operator without initial value",
	CodeS5: "Mandatory default operator without initial value",

	CodeD2: "Integer does not fall within the bounds of the specified type",
	CodeD3: "Decimal exponent out of range",
	CodeD4: "Retrieved differently typed value from dictionary",
	CodeD5: "Mandatory field not present, undefined previous value",
	CodeD6: "Mandatory field not present, empty previous value",
	CodeD7: "Invalid subtraction length",
	CodeD9: "Template does not exist",

	CodeTruncated:    "Buffer ends inside field",
	CodePrecondition: "Operator not applicable to field",
}

var codeKind = map[Code]error{
	CodeD2:           ErrFormat,
	CodeD3:           ErrFormat,
	CodeD4:           ErrTypeMismatch,
	CodeD5:           ErrMissingValue,
	CodeD6:           ErrMissingValue,
	CodeD7:           ErrSubtraction,
	CodeD9:           ErrUnknownTemplate,
	CodeTruncated:    ErrTruncated,
	CodePrecondition: ErrPrecondition,
}

func (c Code) Text() string {
	return codeText[c]
}

func (c Code) numbered() bool {
	return len(c) == 2 && (c[0] == 'S' || c[0] == 'D')
}

// DynamicError is a per-message decode failure attached to a field.
type DynamicError struct {
	Code   Code
	Detail string
	Cause  error
}

func NewDynamic(code Code, detail string) *DynamicError {
	return &DynamicError{Code: code, Detail: detail}
}

// WrapDynamic attaches a lower level cause such as a codec error.
func WrapDynamic(code Code, cause error) *DynamicError {
	return &DynamicError{Code: code, Cause: cause}
}

func (e *DynamicError) Error() string {
	var msg string
	if e.Code.numbered() {
		msg = fmt.Sprintf("[ERR %s] %s", e.Code, e.Code.Text())
	} else {
		msg = "[ERR] " + e.Code.Text()
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Kind is the sentinel matching this error's category.
func (e *DynamicError) Kind() error {
	return codeKind[e.Code]
}

func (e *DynamicError) Is(target error) bool {
	kind := e.Kind()
	if kind == nil {
		return false
	}
	if target == kind {
		return true
	}
	// running out of bytes is a malformed encoding too
	return kind == ErrTruncated && target == ErrFormat
}

func (e *DynamicError) Unwrap() error {
	return e.Cause
}

// StaticError reports a template that cannot be used.
type StaticError struct {
	Code     Code
	Template string
	Field    string
	Detail   string
}

func (e *StaticError) Error() string {
	msg := fmt.Sprintf("[ERR %s] %s", e.Code, e.Code.Text())
	if e.Template != "" {
		msg += fmt.Sprintf(" template=%s", e.Template)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field=%s", e.Field)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *StaticError) Is(target error) bool {
	return target == ErrStatic
}
