// Package metrics exposes Prometheus counters for scoring and classification.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scoring_engine"

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	LoanDecisions   *prometheus.CounterVec
	LoanTotalScore  *prometheus.HistogramVec
	Classifications *prometheus.CounterVec
	HistoryErrors   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New creates collectors on a fresh registry, including Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		LoanDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loan_decisions_total",
			Help:      "Loan applications scored, by preset and outcome.",
		}, []string{"preset", "approved"}),
		LoanTotalScore: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loan_total_score",
			Help:      "Distribution of total loan scores.",
			Buckets:   prometheus.LinearBuckets(-60, 20, 10),
		}, []string{"preset"}),
		Classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "email_classifications_total",
			Help:      "E-mails classified, by verdict.",
		}, []string{"spam"}),
		HistoryErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_errors_total",
			Help:      "Failed history repository operations.",
		}, []string{"kind", "op"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(
		m.LoanDecisions,
		m.LoanTotalScore,
		m.Classifications,
		m.HistoryErrors,
		m.RequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// ObserveLoan records one scoring result.
func (m *Metrics) ObserveLoan(preset string, approved bool, total int) {
	if m == nil {
		return
	}
	m.LoanDecisions.WithLabelValues(preset, strconv.FormatBool(approved)).Inc()
	m.LoanTotalScore.WithLabelValues(preset).Observe(float64(total))
}

// ObserveEmail records one classification result.
func (m *Metrics) ObserveEmail(spam bool) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(strconv.FormatBool(spam)).Inc()
}

// HistoryError counts a failed repository call.
func (m *Metrics) HistoryError(kind, op string) {
	if m == nil {
		return
	}
	m.HistoryErrors.WithLabelValues(kind, op).Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
