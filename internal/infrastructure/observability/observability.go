// Package observability assembles the zap, Prometheus and OpenTelemetry
// adapters into the application's observability port.
package observability

import (
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

func (p provider) Tracer() observability.Tracer   { return p.tracer }
func (p provider) Logger() observability.Logger   { return p.logger }
func (p provider) Metrics() observability.Metrics { return p.metrics }

// New bundles the adapters; any nil argument is replaced by its no-op.
func New(tracer observability.Tracer, logger observability.Logger, metrics observability.Metrics) observability.Observability {
	nop := observability.Nop()
	if tracer == nil {
		tracer = nop.Tracer()
	}
	if logger == nil {
		logger = nop.Logger()
	}
	if metrics == nil {
		metrics = nop.Metrics()
	}
	return provider{tracer: tracer, logger: logger, metrics: metrics}
}

// Instruments resolves metric keys to registered collectors. Keys that were
// never registered resolve to no-ops.
type Instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func NewInstruments(
	counters map[observability.MetricKey]observability.Counter,
	histograms map[observability.MetricKey]observability.Histogram,
) *Instruments {
	in := &Instruments{
		counters:   make(map[observability.MetricKey]observability.Counter, len(counters)),
		histograms: make(map[observability.MetricKey]observability.Histogram, len(histograms)),
	}
	for k, c := range counters {
		if c != nil {
			in.counters[k] = c
		}
	}
	for k, h := range histograms {
		if h != nil {
			in.histograms[k] = h
		}
	}
	return in
}

func (in *Instruments) Counter(key observability.MetricKey) observability.Counter {
	if c, ok := in.counters[key]; ok {
		return c
	}
	return observability.NopCounter()
}

func (in *Instruments) Histogram(key observability.MetricKey) observability.Histogram {
	if h, ok := in.histograms[key]; ok {
		return h
	}
	return observability.NopHistogram()
}
