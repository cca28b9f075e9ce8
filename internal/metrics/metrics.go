package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jengzang/periodic-risk-go/internal/circular"
)

// Cache request results
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Registry holds the Prometheus collectors of the service. A nil *Registry
// is valid and records nothing.
type Registry struct {
	reg *prometheus.Registry

	TrainingDuration *prometheus.HistogramVec
	NonConverged     *prometheus.CounterVec
	TrainedEntities  *prometheus.CounterVec
	Scores           *prometheus.CounterVec
	CacheRequests    *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

// NewRegistry creates the collectors and registers them on a private
// registry together with the Go and process collectors
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		TrainingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "periodic_training_duration_seconds",
				Help:    "Duration of training one cyclic domain of one account",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"domain"},
		),

		NonConverged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodic_bandwidth_nonconverged_total",
				Help: "Bandwidth searches that hit the evaluation budget",
			},
			[]string{"domain"},
		),

		TrainedEntities: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodic_training_entities_total",
				Help: "Accounts trained, by result",
			},
			[]string{"result"},
		),

		Scores: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodic_scores_total",
				Help: "Scored transactions, by outcome",
			},
			[]string{"outcome"},
		),

		CacheRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodic_profile_cache_requests_total",
				Help: "Profile cache lookups, by result",
			},
			[]string{"result"},
		),

		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "periodic_http_requests_total",
				Help: "HTTP requests, by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
	}

	r.reg.MustRegister(
		r.TrainingDuration,
		r.NonConverged,
		r.TrainedEntities,
		r.Scores,
		r.CacheRequests,
		r.HTTPRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Handler serves the registry in the Prometheus text format
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// ObserveDomain records the training time of one domain
func (r *Registry) ObserveDomain(d circular.Domain, elapsed time.Duration, converged bool) {
	if r == nil {
		return
	}
	r.TrainingDuration.WithLabelValues(string(d)).Observe(elapsed.Seconds())
	if !converged {
		r.NonConverged.WithLabelValues(string(d)).Inc()
	}
}

// ObserveEntity counts one trained or failed account
func (r *Registry) ObserveEntity(trained bool) {
	if r == nil {
		return
	}
	result := "failed"
	if trained {
		result = "trained"
	}
	r.TrainedEntities.WithLabelValues(result).Inc()
}

// ObserveScore counts one scored transaction
func (r *Registry) ObserveScore(defined bool) {
	if r == nil {
		return
	}
	outcome := "undefined"
	if defined {
		outcome = "defined"
	}
	r.Scores.WithLabelValues(outcome).Inc()
}

// ObserveCache counts one profile cache lookup
func (r *Registry) ObserveCache(result string) {
	if r == nil {
		return
	}
	r.CacheRequests.WithLabelValues(result).Inc()
}

// ObserveHTTP counts one HTTP request
func (r *Registry) ObserveHTTP(method, route string, status int) {
	if r == nil {
		return
	}
	r.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
