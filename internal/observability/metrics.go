package observability

import (
	"strconv"
	"sync"

	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts dissection activity. It satisfies dissect.Metrics.
type Metrics struct {
	messages     *prometheus.CounterVec
	bytes        *prometheus.CounterVec
	messageSize  prometheus.Histogram
	fieldErrors  *prometheus.CounterVec
	pmapOverruns prometheus.Counter
	packets      *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// DefaultMetrics returns the process wide collectors registered with the
// default prometheus registry.
func DefaultMetrics() *Metrics {
	defaultOnce.Do(func() {
		defaultMetrics = NewMetrics(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

// NewMetrics builds the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fastdissect",
				Subsystem: "dissect",
				Name:      "messages_total",
				Help:      "Messages decoded, by template id.",
			},
			[]string{"template_id"},
		),
		bytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fastdissect",
				Subsystem: "dissect",
				Name:      "bytes_total",
				Help:      "Message bytes consumed, by template id.",
			},
			[]string{"template_id"},
		),
		messageSize: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "fastdissect",
				Subsystem: "dissect",
				Name:      "message_size_bytes",
				Help:      "Encoded message size in bytes.",
				Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
			},
		),
		fieldErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fastdissect",
				Subsystem: "dissect",
				Name:      "field_errors_total",
				Help:      "Dynamic decode errors, by error code.",
			},
			[]string{"code"},
		),
		pmapOverruns: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "fastdissect",
				Subsystem: "dissect",
				Name:      "pmap_overruns_total",
				Help:      "Presence bits read past the end of a presence map.",
			},
		),
		packets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "fastdissect",
				Subsystem: "input",
				Name:      "packets_total",
				Help:      "Packets read, by outcome.",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.messages, m.bytes, m.messageSize, m.fieldErrors, m.pmapOverruns, m.packets)
	}
	return m
}

func (m *Metrics) Message(templateID uint32, n int) {
	id := strconv.FormatUint(uint64(templateID), 10)
	m.messages.WithLabelValues(id).Inc()
	m.bytes.WithLabelValues(id).Add(float64(n))
	m.messageSize.Observe(float64(n))
}

func (m *Metrics) FieldError(code field.Code) {
	m.fieldErrors.WithLabelValues(string(code)).Inc()
}

func (m *Metrics) PMapOverruns(n int) {
	m.pmapOverruns.Add(float64(n))
}

// Packet records one input packet. outcome is "ok", "error" or "invalid".
func (m *Metrics) Packet(outcome string) {
	m.packets.WithLabelValues(outcome).Inc()
}
