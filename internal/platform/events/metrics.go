package events

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts channel traffic per topic and group.
type Metrics struct {
	Published  *prometheus.CounterVec
	Handled    *prometheus.CounterVec
	Failed     *prometheus.CounterVec
	DeadLetter *prometheus.CounterVec
}

// NewMetrics builds the counters and registers them when reg is non-nil.
func NewMetrics(reg prometheus.Registerer, backend string) *Metrics {
	labels := prometheus.Labels{"backend": backend}
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: "commerce", Subsystem: "events", Name: name, Help: help, ConstLabels: labels}
	}
	m := &Metrics{
		Published:  prometheus.NewCounterVec(opts("published_total", "Events published."), []string{"topic"}),
		Handled:    prometheus.NewCounterVec(opts("handled_total", "Events handled successfully."), []string{"topic", "group"}),
		Failed:     prometheus.NewCounterVec(opts("handler_failures_total", "Handler attempts that returned an error."), []string{"topic", "group"}),
		DeadLetter: prometheus.NewCounterVec(opts("dead_letter_total", "Events dropped after exhausting retries."), []string{"topic", "group"}),
	}
	if reg != nil {
		reg.MustRegister(m.Published, m.Handled, m.Failed, m.DeadLetter)
	}
	return m
}
