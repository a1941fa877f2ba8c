package observability

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/danmuck/fastdissect/internal/fast/dissect"
	"github.com/rs/zerolog"
)

// ErrorLog records decode and template errors to stderr and, when a path is
// given, appends them to a log file. It satisfies dissect.ErrorSink.
type ErrorLog struct {
	logger zerolog.Logger
	file   *os.File
}

// OpenErrorLog builds an ErrorLog writing to stderr and to the file at path.
// An empty path logs to stderr only.
func OpenErrorLog(path string) (*ErrorLog, error) {
	if path == "" {
		return NewErrorLog(os.Stderr), nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log %s: %w", path, err)
	}
	el := NewErrorLog(os.Stderr, f)
	el.file = f
	return el, nil
}

// NewErrorLog writes human readable lines to console and JSON lines to every
// writer in files.
func NewErrorLog(console io.Writer, files ...io.Writer) *ErrorLog {
	writers := []io.Writer{zerolog.ConsoleWriter{Out: console, TimeFormat: time.RFC3339, NoColor: true}}
	writers = append(writers, files...)
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		With().
		Timestamp().
		Str("component", "fast").
		Logger()
	return &ErrorLog{logger: logger}
}

func (l *ErrorLog) Report(r dissect.Report) {
	event := l.logger.Error().
		Uint32("template_id", r.TemplateID).
		Int("offset", r.Offset)
	if r.Template != "" {
		event = event.Str("template", r.Template)
	}
	if r.Field != "" {
		event = event.Str("field", r.Field).Uint32("field_id", r.FieldID)
	}
	if r.Err != nil {
		event = event.Str("code", string(r.Err.Code))
		event.Msg(r.Err.Error())
		return
	}
	event.Msg("dynamic error")
}

// Static records a template that failed to load.
func (l *ErrorLog) Static(err error) {
	l.logger.Error().Err(err).Msg("template rejected")
}

func (l *ErrorLog) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
