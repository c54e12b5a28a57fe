// Package obstest provides recording observability ports for tests.
package obstest

import (
	"sync"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

type Line struct {
	Level  string
	Msg    string
	Fields map[string]any
}

type sink struct {
	mu    sync.Mutex
	lines []Line
}

// Logger records every line, including the fields bound through With.
type Logger struct {
	sink  *sink
	bound []observability.Field
}

func NewLogger() *Logger { return &Logger{sink: &sink{}} }

func (l *Logger) With(fields ...observability.Field) observability.Logger {
	bound := append(append([]observability.Field(nil), l.bound...), fields...)
	return &Logger{sink: l.sink, bound: bound}
}

func (l *Logger) Debug(msg string, f ...observability.Field) { l.record("debug", msg, f) }
func (l *Logger) Info(msg string, f ...observability.Field)  { l.record("info", msg, f) }
func (l *Logger) Warn(msg string, f ...observability.Field)  { l.record("warn", msg, f) }
func (l *Logger) Error(msg string, f ...observability.Field) { l.record("error", msg, f) }

func (l *Logger) record(level, msg string, fields []observability.Field) {
	m := make(map[string]any, len(l.bound)+len(fields))
	for _, f := range l.bound {
		m[f.Key] = f.Value
	}
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	l.sink.mu.Lock()
	l.sink.lines = append(l.sink.lines, Line{Level: level, Msg: msg, Fields: m})
	l.sink.mu.Unlock()
}

func (l *Logger) Lines() []Line {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return append([]Line(nil), l.sink.lines...)
}

// Find returns the lines with the given message.
func (l *Logger) Find(msg string) []Line {
	var out []Line
	for _, line := range l.Lines() {
		if line.Msg == msg {
			out = append(out, line)
		}
	}
	return out
}

type Sample struct {
	Value  float64
	Labels map[string]string
}

type recorder struct {
	mu      sync.Mutex
	samples map[observability.MetricKey][]Sample
}

func (r *recorder) add(key observability.MetricKey, v float64, labels []observability.Label) {
	m := make(map[string]string, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	r.mu.Lock()
	r.samples[key] = append(r.samples[key], Sample{Value: v, Labels: m})
	r.mu.Unlock()
}

// Metrics records every counter increment and histogram observation by key.
type Metrics struct{ rec *recorder }

func NewMetrics() *Metrics {
	return &Metrics{rec: &recorder{samples: make(map[observability.MetricKey][]Sample)}}
}

type instrument struct {
	key observability.MetricKey
	rec *recorder
}

func (i instrument) Add(v float64, labels ...observability.Label)     { i.rec.add(i.key, v, labels) }
func (i instrument) Observe(v float64, labels ...observability.Label) { i.rec.add(i.key, v, labels) }

func (m *Metrics) Counter(key observability.MetricKey) observability.Counter {
	return instrument{key: key, rec: m.rec}
}

func (m *Metrics) Histogram(key observability.MetricKey) observability.Histogram {
	return instrument{key: key, rec: m.rec}
}

func (m *Metrics) Samples(key observability.MetricKey) []Sample {
	m.rec.mu.Lock()
	defer m.rec.mu.Unlock()
	return append([]Sample(nil), m.rec.samples[key]...)
}

// Telemetry bundles a recording Logger and Metrics with a no-op tracer.
type Telemetry struct {
	Log *Logger
	Met *Metrics
}

func New() *Telemetry {
	return &Telemetry{Log: NewLogger(), Met: NewMetrics()}
}

func (t *Telemetry) Tracer() observability.Tracer   { return observability.NopTracer() }
func (t *Telemetry) Logger() observability.Logger   { return t.Log }
func (t *Telemetry) Metrics() observability.Metrics { return t.Met }
