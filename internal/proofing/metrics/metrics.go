package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the proofing engine.
type Metrics struct {
	VendorCalls      *prometheus.CounterVec
	VendorLatency    *prometheus.HistogramVec
	JobsSubmitted    prometheus.Counter
	JobsCompleted    prometheus.Counter
	DuplicateSsnHits prometheus.Counter
}

// Outcome label values for VendorCalls.
const (
	OutcomePass    = "pass"
	OutcomeFail    = "fail"
	OutcomeTimeout = "timeout"
	OutcomeError   = "error"
)

// New creates and registers all proofing metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers against an explicit registerer; tests pass a fresh one so
// parallel suites do not collide on metric names.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VendorCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "idproof_vendor_calls_total",
			Help: "Vendor calls by stage, vendor, and outcome",
		}, []string{"stage", "vendor", "outcome"}),
		VendorLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idproof_vendor_call_seconds",
			Help:    "Vendor call latency by stage and vendor",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"stage", "vendor"}),
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "idproof_jobs_submitted_total",
			Help: "Async proofing jobs enqueued",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "idproof_jobs_completed_total",
			Help: "Async proofing jobs finished by the worker",
		}),
		DuplicateSsnHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "idproof_duplicate_ssn_hits_total",
			Help: "Cross-profile duplicate SSN fingerprint matches",
		}),
	}
}
