package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus instruments for the scheduling core. It
// registers against its own registry so multiple instances (tests) never
// collide.
type Collector struct {
	registry *prometheus.Registry

	sweepsTotal        prometheus.Counter
	sweepDuration      prometheus.Histogram
	pendingRequests    prometheus.Gauge
	confirmationsTotal prometheus.Counter
	conflictsTotal     prometheus.Counter
	backendErrorsTotal prometheus.Counter
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		sweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainsched_poller_sweeps_total",
			Help: "Total number of confirmation poller sweeps",
		}),
		sweepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainsched_poller_sweep_duration_seconds",
			Help:    "Duration of confirmation poller sweeps",
			Buckets: prometheus.DefBuckets,
		}),
		pendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainsched_requests_pending_confirmation",
			Help: "Requests currently awaiting external calendar confirmation",
		}),
		confirmationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainsched_confirmations_total",
			Help: "Total external confirmations detected",
		}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainsched_date_conflicts_total",
			Help: "Total date selections rejected for calendar conflicts",
		}),
		backendErrorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainsched_calendar_backend_errors_total",
			Help: "Total failed calls to the calendar backend",
		}),
	}

	c.registry.MustRegister(
		c.sweepsTotal,
		c.sweepDuration,
		c.pendingRequests,
		c.confirmationsTotal,
		c.conflictsTotal,
		c.backendErrorsTotal,
	)

	return c
}

// Handler serves the /metrics endpoint for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordSweep records one finished poller sweep.
func (c *Collector) RecordSweep(durationSeconds float64, pending int) {
	if c == nil {
		return
	}
	c.sweepsTotal.Inc()
	c.sweepDuration.Observe(durationSeconds)
	c.pendingRequests.Set(float64(pending))
}

// RecordConfirmation records one detected external confirmation.
func (c *Collector) RecordConfirmation() {
	if c == nil {
		return
	}
	c.confirmationsTotal.Inc()
}

// RecordConflict records one conflicting date selection.
func (c *Collector) RecordConflict() {
	if c == nil {
		return
	}
	c.conflictsTotal.Inc()
}

// RecordBackendError records one failed calendar backend call.
func (c *Collector) RecordBackendError() {
	if c == nil {
		return
	}
	c.backendErrorsTotal.Inc()
}
