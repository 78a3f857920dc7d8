package api

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TicksTotal is a counter of batch-worker ticks labeled by tenant and
	// outcome state (skip, empty, fail, done), per §4.8. It is registered and
	// exported; nothing in this module increments it.
	TicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_batch_ticks_total",
			Help: "Total batch-worker ticks, labeled by tenant and outcome state.",
		},
		[]string{"tenant", "state"},
	)

	// TickDurationSeconds is a histogram of end-to-end tick duration. It is
	// registered and exported; nothing in this module observes into it.
	TickDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitor_batch_tick_duration_seconds",
			Help:    "Duration of a batch-worker tick.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tenant"},
	)

	// ActiveWorkers reports the number of tenant workers the scheduler is
	// currently running, per §4.9's reconciliation loop.
	ActiveWorkers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_active_workers",
			Help: "Number of tenant workers currently running.",
		},
	)
)

var registerOnce sync.Once
var registry *prometheus.Registry

// Registry returns the process-wide Prometheus registry, initializing it
// (and its Go runtime/process collectors) on first call.
func Registry() *prometheus.Registry {
	registerOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(TicksTotal, TickDurationSeconds, ActiveWorkers)
		registry.MustRegister(collectors.NewGoCollector())
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
	return registry
}

// MetricsHandler serves the registry in the Prometheus exposition format.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry(), promhttp.HandlerOpts{})
}
