package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streetplan/internal/types"
)

// Simulation modes for the simulations counter.
const (
	ModeSubmit  = "submit"
	ModePreview = "preview"
)

// Registry owns the Prometheus metrics of one process. Each instance has its
// own registry so tests never collide on the global default.
type Registry struct {
	reg *prometheus.Registry

	designsSubmitted *prometheus.CounterVec
	insightsComputed prometheus.Counter
	simulations      *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// NewRegistry creates the StreetPlan counters plus the Go runtime and process
// collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		designsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streetplan_designs_submitted_total",
				Help: "Designs stored, by respondent type",
			},
			[]string{"respondent_type"},
		),
		insightsComputed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "streetplan_insights_computed_total",
				Help: "Insights snapshots computed",
			},
		),
		simulations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streetplan_simulations_total",
				Help: "Metric simulations run, by mode (submit or preview)",
			},
			[]string{"mode"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streetplan_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streetplan_http_request_duration_seconds",
				Help:    "HTTP request duration by route pattern",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
	}

	r.reg.MustRegister(
		r.designsSubmitted,
		r.insightsComputed,
		r.simulations,
		r.httpRequests,
		r.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

func (r *Registry) DesignSubmitted(rt types.RespondentType) {
	r.designsSubmitted.WithLabelValues(string(rt)).Inc()
}

func (r *Registry) InsightsComputed() {
	r.insightsComputed.Inc()
}

func (r *Registry) Simulated(mode string) {
	r.simulations.WithLabelValues(mode).Inc()
}

// RecordRequest implements core.MetricsCollector.
func (r *Registry) RecordRequest(method, endpoint, status string, duration time.Duration) {
	if _, err := strconv.Atoi(status); err != nil {
		status = "unknown"
	}
	r.httpRequests.WithLabelValues(endpoint, method, status).Inc()
	r.httpDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}
