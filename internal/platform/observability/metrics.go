package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every prometheus series exported by the services.
const MetricsNamespace = "commerce"

// NewRegistry returns a registry preloaded with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Registerer returns the registry components should register their collectors with.
func (i *Instruments) Registerer() prometheus.Registerer {
	if i == nil || i.Registry == nil {
		return prometheus.NewRegistry()
	}
	return i.Registry
}

// MetricsHandler exposes the registry in the prometheus text format.
func (i *Instruments) MetricsHandler() http.Handler {
	if i == nil || i.Registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(i.Registry, promhttp.HandlerOpts{Registry: i.Registry})
}
