package field

// Status is the outcome of decoding one field.
type Status uint8

const (
	StatusExists Status = iota
	StatusEmpty
	StatusUndefined
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusExists:
		return "exists"
	case StatusEmpty:
		return "empty"
	case StatusUndefined:
		return "undefined"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Data is the decode result of one field occurrence. Start and Len locate the
// bytes consumed in the message buffer.
type Data struct {
	Start  int
	Len    int
	Status Status
	Value  Value
	Err    *DynamicError
}

func (d Data) Exists() bool { return d.Status == StatusExists }

// Text is the visible value of the field: the error message for failed
// fields, the rendered value when present and "" otherwise.
func (d Data) Text() string {
	switch d.Status {
	case StatusError:
		if d.Err == nil {
			return "[ERR]"
		}
		return d.Err.Error()
	case StatusExists:
		return d.Value.String()
	}
	return ""
}

// Failed builds an error outcome. Value keeps the declared kind.
func Failed(kind Kind, start, n int, err *DynamicError) Data {
	return Data{Start: start, Len: n, Status: StatusError, Value: Zero(kind), Err: err}
}
