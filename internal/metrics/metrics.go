// Package metrics provides the Prometheus collectors of the gymos service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gymos"

// Recorder owns the service collectors. A nil *Recorder records nothing, so
// services can be built without metrics in tests.
type Recorder struct {
	registry *prometheus.Registry

	planOutcomes      *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	members           *prometheus.GaugeVec
}

// New registers all collectors on a private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	auto := promauto.With(reg)

	return &Recorder{
		registry: reg,
		planOutcomes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plan_outcomes_total",
			Help:      "Plan generations by final state and fallback reason.",
		}, []string{"state", "reason"}),
		completionLatency: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion service calls that returned before the wait expired.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		}, []string{"kind"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		members: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "members",
			Help:      "Members by engagement status as of the last report build.",
		}, []string{"status"}),
	}
}

// PlanOutcome counts one finished plan generation.
func (r *Recorder) PlanOutcome(state, reason string) {
	if r == nil {
		return
	}
	r.planOutcomes.WithLabelValues(state, reason).Inc()
}

// CompletionLatency observes one completion call of the given kind ("plan" or "scan").
func (r *Recorder) CompletionLatency(kind string, d time.Duration) {
	if r == nil {
		return
	}
	r.completionLatency.WithLabelValues(kind).Observe(d.Seconds())
}

// HTTPRequest records one served request.
func (r *Recorder) HTTPRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	r.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Members sets the members-by-status gauge.
func (r *Recorder) Members(byStatus map[string]int) {
	if r == nil {
		return
	}
	for status, n := range byStatus {
		r.members.WithLabelValues(status).Set(float64(n))
	}
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
