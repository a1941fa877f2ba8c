package dissect

import "github.com/danmuck/fastdissect/internal/fast/field"

// FieldSink receives every completed field in wire order.
type FieldSink interface {
	Field(templateID uint32, ft *field.Type, d field.Data)
}

// Report identifies a dynamic error. Field is empty for message level
// failures such as an unknown template id.
type Report struct {
	TemplateID uint32
	Template   string
	Field      string
	FieldID    uint32
	Offset     int
	Err        *field.DynamicError
}

type ErrorSink interface {
	Report(r Report)
}

// Metrics receives dissection counters.
type Metrics interface {
	Message(templateID uint32, bytes int)
	FieldError(code field.Code)
	PMapOverruns(n int)
}

type FieldSinkFunc func(templateID uint32, ft *field.Type, d field.Data)

func (f FieldSinkFunc) Field(templateID uint32, ft *field.Type, d field.Data) {
	f(templateID, ft, d)
}

type ErrorSinkFunc func(r Report)

func (f ErrorSinkFunc) Report(r Report) { f(r) }

type nopMetrics struct{}

func (nopMetrics) Message(uint32, int)   {}
func (nopMetrics) FieldError(field.Code) {}
func (nopMetrics) PMapOverruns(int)      {}
