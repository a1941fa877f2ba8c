package observability

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fastdissect/internal/fast/dissect"
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/testutil/testlog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

var _ dissect.Metrics = (*Metrics)(nil)
var _ dissect.ErrorSink = (*ErrorLog)(nil)

func TestMetricsRecord(t *testing.T) {
	testlog.Start(t)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Message(1, 12)
	m.Message(1, 8)
	m.Message(2, 5)
	m.FieldError(field.CodeD4)
	m.FieldError(field.CodeD4)
	m.PMapOverruns(3)
	m.Packet("ok")

	if got := testutil.ToFloat64(m.messages.WithLabelValues("1")); got != 2 {
		t.Fatalf("messages{1}=%v", got)
	}
	if got := testutil.ToFloat64(m.bytes.WithLabelValues("1")); got != 20 {
		t.Fatalf("bytes{1}=%v", got)
	}
	if got := testutil.ToFloat64(m.fieldErrors.WithLabelValues("D4")); got != 2 {
		t.Fatalf("field_errors{D4}=%v", got)
	}
	if got := testutil.ToFloat64(m.pmapOverruns); got != 3 {
		t.Fatalf("pmap_overruns=%v", got)
	}
	if n := testutil.CollectAndCount(m.messageSize); n != 1 {
		t.Fatalf("message size histogram series=%d", n)
	}
}

func TestDefaultMetricsIsShared(t *testing.T) {
	testlog.Start(t)
	if DefaultMetrics() != DefaultMetrics() {
		t.Fatalf("default metrics should be created once")
	}
}

func TestMetricsHandlerServesRegistry(t *testing.T) {
	testlog.Start(t)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.Message(7, 10)

	srv := httptest.NewServer(MetricsHandler(zerolog.Nop(), reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `fastdissect_dissect_messages_total{template_id="7"} 1`) {
		t.Fatalf("status=%d body=%s", resp.StatusCode, body)
	}

	missing, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Fatalf("status=%d", missing.StatusCode)
	}
}

func TestErrorLogWritesConsoleAndFile(t *testing.T) {
	testlog.Start(t)

	path := filepath.Join(t.TempDir(), "error_log.txt")
	el, err := OpenErrorLog(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	var console bytes.Buffer
	// route the console side to a buffer, keep the file
	el.logger = zerolog.New(zerolog.MultiLevelWriter(&console, el.file))

	el.Report(dissect.Report{
		TemplateID: 3,
		Template:   "Quote",
		Field:      "Px",
		FieldID:    270,
		Offset:     12,
		Err:        field.NewDynamic(field.CodeD6, ""),
	})
	el.Report(dissect.Report{TemplateID: 99, Err: field.NewDynamic(field.CodeD9, "template id 99")})
	if err := el.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 log lines, got %d: %s", len(lines), data)
	}
	if !strings.Contains(lines[0], `"field":"Px"`) || !strings.Contains(lines[0], `"code":"D6"`) {
		t.Fatalf("first line=%s", lines[0])
	}
	if !strings.Contains(lines[1], "[ERR D9] Template does not exist") {
		t.Fatalf("second line=%s", lines[1])
	}
	if console.Len() == 0 {
		t.Fatalf("console side received nothing")
	}
}

func TestErrorLogConsoleFormat(t *testing.T) {
	testlog.Start(t)

	var console bytes.Buffer
	el := NewErrorLog(&console)
	el.Static(&field.StaticError{Code: field.CodeS4, Template: "Quote", Field: "Side"})
	if !strings.Contains(console.String(), "template rejected") || !strings.Contains(console.String(), "S4") {
		t.Fatalf("console=%q", console.String())
	}
	if err := el.Close(); err != nil {
		t.Fatalf("close without file: %v", err)
	}
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	r := MetricsHandler(zerolog.New(&buf), prometheus.NewRegistry())

	for _, path := range []string{"/metrics", "/missing"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 request lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], `"path":"/metrics"`) || !strings.Contains(lines[0], `"status":200`) {
		t.Fatalf("first line=%s", lines[0])
	}
	if !strings.Contains(lines[1], `"level":"warn"`) || !strings.Contains(lines[1], `"status":404`) {
		t.Fatalf("second line=%s", lines[1])
	}
}
