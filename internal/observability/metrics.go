package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chazu/upfit/pkg/export"
	"github.com/chazu/upfit/pkg/rules"
)

// Evaluation outcomes recorded by ObserveEvaluation.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected" // unresolved references, invalid documents
	OutcomeError    = "error"
)

// Collector bundles the Prometheus metrics of the evaluation service.
type Collector struct {
	gatherer prometheus.Gatherer

	Evaluations         *prometheus.CounterVec
	EvaluationDurations prometheus.Histogram
	Issues              *prometheus.CounterVec
	Exports             *prometheus.CounterVec
}

// NewCollector registers the metrics against reg, defaulting to the global
// Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upfit_evaluations_total",
		Help: "Project evaluations, labeled by outcome.",
	}, []string{"outcome"}), "upfit_evaluations_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "upfit_evaluation_duration_seconds",
		Help:    "Time to evaluate a project, exports included.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}), "upfit_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	issues, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upfit_issues_total",
		Help: "Issues reported by evaluations, labeled by severity.",
	}, []string{"severity"}), "upfit_issues_total")
	if err != nil {
		return nil, err
	}

	exports, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "upfit_exports_total",
		Help: "Export payloads served, labeled by format.",
	}, []string{"format"}), "upfit_exports_total")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:            gatherer,
		Evaluations:         evaluations,
		EvaluationDurations: durations,
		Issues:              issues,
		Exports:             exports,
	}, nil
}

// ObserveEvaluation records one evaluation. issues is ignored unless the
// outcome is OutcomeOK.
func (c *Collector) ObserveEvaluation(outcome string, d time.Duration, issues []rules.Issue) {
	if c == nil {
		return
	}
	c.Evaluations.WithLabelValues(outcome).Inc()
	c.EvaluationDurations.Observe(d.Seconds())
	if outcome != OutcomeOK {
		return
	}
	for sev, n := range rules.CountBySeverity(issues) {
		c.Issues.WithLabelValues(string(sev)).Add(float64(n))
	}
}

// ObserveExport records one served payload.
func (c *Collector) ObserveExport(f export.Format) {
	if c == nil {
		return
	}
	c.Exports.WithLabelValues(string(f)).Inc()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
