// Package metrics records batch and chat counters in a Prometheus registry.
// Runs are short-lived, so the registry is flushed to a node_exporter
// textfile on exit instead of being served.
package metrics

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	MetricsNamespace         = "folderize"
	MetricsSubsystemSystem   = "system"
	MetricsSubsystemItems    = "items"
	MetricsSubsystemDescribe = "describe"
	MetricsSubsystemChat     = "chat"

	// Item outcomes.
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"

	// Chat upload results.
	ChatSent   = "sent"
	ChatFailed = "failed"
)

// Metrics is implemented by the Prometheus recorder and by Noop.
type Metrics interface {
	GetRegistry() *prometheus.Registry

	ObserveItem(variant, outcome string, bytes int64)
	ObserveDescribe(source string, ok bool, elapsed float64)
	ObserveChatRequest(method string)
	ObserveChatUpload(result string, bytes int64)
}

type metrics struct {
	registry *prometheus.Registry

	runStartTime prometheus.Gauge

	itemsTotal     *prometheus.CounterVec
	itemBytesTotal *prometheus.CounterVec

	describeTotal *prometheus.CounterVec
	describeTime  *prometheus.HistogramVec

	chatRequestsTotal *prometheus.CounterVec
	chatUploadsTotal  *prometheus.CounterVec
	chatUploadBytes   prometheus.Counter
}

// NewMetrics creates a recorder with its own registry.
func NewMetrics() Metrics {
	m := &metrics{}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(collectors.NewGoCollector())

	m.runStartTime = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemSystem,
		Name:      "run_start_timestamp_seconds",
		Help:      "The time the run started.",
	})
	m.runStartTime.SetToCurrentTime()
	m.registry.MustRegister(m.runStartTime)

	m.itemsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemItems,
		Name:      "total",
		Help:      "Files handled, by variant and outcome.",
	}, []string{"variant", "outcome"})
	m.registry.MustRegister(m.itemsTotal)

	m.itemBytesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemItems,
		Name:      "bytes_total",
		Help:      "Bytes of processed source files, by variant.",
	}, []string{"variant"})
	m.registry.MustRegister(m.itemBytesTotal)

	m.describeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemDescribe,
		Name:      "requests_total",
		Help:      "Description requests, by source and result.",
	}, []string{"source", "result"})
	m.registry.MustRegister(m.describeTotal)

	m.describeTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemDescribe,
		Name:      "time_seconds",
		Help:      "Time spent waiting for a description.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"source"})
	m.registry.MustRegister(m.describeTime)

	m.chatRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemChat,
		Name:      "requests_total",
		Help:      "Bot API calls, by method.",
	}, []string{"method"})
	m.registry.MustRegister(m.chatRequestsTotal)

	m.chatUploadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemChat,
		Name:      "uploads_total",
		Help:      "File uploads, by result.",
	}, []string{"result"})
	m.registry.MustRegister(m.chatUploadsTotal)

	m.chatUploadBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Subsystem: MetricsSubsystemChat,
		Name:      "upload_bytes_total",
		Help:      "Bytes of successfully uploaded files.",
	})
	m.registry.MustRegister(m.chatUploadBytes)

	return m
}

func (m *metrics) GetRegistry() *prometheus.Registry {
	return m.registry
}

func (m *metrics) ObserveItem(variant, outcome string, bytes int64) {
	m.itemsTotal.With(prometheus.Labels{"variant": variant, "outcome": outcome}).Inc()
	if outcome == OutcomeProcessed {
		m.itemBytesTotal.With(prometheus.Labels{"variant": variant}).Add(float64(bytes))
	}
}

func (m *metrics) ObserveDescribe(source string, ok bool, elapsed float64) {
	result := "ok"
	if !ok {
		result = "fallback"
	}
	m.describeTotal.With(prometheus.Labels{"source": source, "result": result}).Inc()
	m.describeTime.With(prometheus.Labels{"source": source}).Observe(elapsed)
}

func (m *metrics) ObserveChatRequest(method string) {
	m.chatRequestsTotal.With(prometheus.Labels{"method": method}).Inc()
}

func (m *metrics) ObserveChatUpload(result string, bytes int64) {
	m.chatUploadsTotal.With(prometheus.Labels{"result": result}).Inc()
	if result == ChatSent {
		m.chatUploadBytes.Add(float64(bytes))
	}
}

// WriteTextfile writes the registry in text exposition format to path,
// atomically, for the node_exporter textfile collector.
func WriteTextfile(m Metrics, path string) error {
	reg := m.GetRegistry()
	if reg == nil {
		return nil
	}
	return errors.Wrap(prometheus.WriteToTextfile(path, reg), "write metrics textfile")
}

// Noop discards everything.
type Noop struct{}

func (Noop) GetRegistry() *prometheus.Registry     { return nil }
func (Noop) ObserveItem(string, string, int64)     {}
func (Noop) ObserveDescribe(string, bool, float64) {}
func (Noop) ObserveChatRequest(string)             {}
func (Noop) ObserveChatUpload(string, int64)       {}
