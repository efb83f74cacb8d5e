// Package metrics exposes render counters and timings as Prometheus
// collectors. All methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "proteus"

// Metrics holds the renderer's collectors.
type Metrics struct {
	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	ruleFailures   *prometheus.CounterVec
	matrixWarnings prometheus.Counter
}

// New creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_total",
			Help:      "Completed render passes by view.",
		}, []string{"view"}),
		renderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Render pass duration by view.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"view"}),
		ruleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_failures_total",
			Help:      "Rule invocations replaced by an error placeholder, by class.",
		}, []string{"class"}),
		matrixWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "matrix_warnings_total",
			Help:      "Traceability matrices rendered as a warning instead of a table.",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.renders, m.renderDuration, m.ruleFailures, m.matrixWarnings)
	}
	return m
}

// ObserveRender records one completed pass for view.
func (m *Metrics) ObserveRender(view string, d time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(view).Inc()
	m.renderDuration.WithLabelValues(view).Observe(d.Seconds())
}

// RuleFailed records a failed rule for class.
func (m *Metrics) RuleFailed(class string) {
	if m == nil {
		return
	}
	m.ruleFailures.WithLabelValues(class).Inc()
}

// MatrixWarning records a matrix rendered as a warning.
func (m *Metrics) MatrixWarning() {
	if m == nil {
		return
	}
	m.matrixWarnings.Inc()
}
