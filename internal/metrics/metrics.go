// Package metrics holds the process's prometheus collectors. A Metrics value
// owns its registry so tests can build as many as they like.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "funnel"

type Metrics struct {
	registry *prometheus.Registry

	httpDuration     *prometheus.HistogramVec
	oracleRequests   *prometheus.CounterVec
	rankingFallbacks prometheus.Counter
	malformedSectors prometheus.Counter
	notifications    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		oracleRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_requests_total",
			Help:      "Oracle calls by operation and outcome.",
		}, []string{"op", "outcome"}),
		rankingFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranking_fallback_total",
			Help:      "Match requests answered with fallback scores.",
		}),
		malformedSectors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vc_malformed_sectors_total",
			Help:      "VC rows excluded from matching because their sectors could not be decoded.",
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crm_notifications_total",
			Help:      "CRM notifications for matched pitches by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.oracleRequests,
		m.rankingFallbacks,
		m.malformedSectors,
		m.notifications,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// ObserveOracle matches oracle.Observer.
func (m *Metrics) ObserveOracle(op string, err error) {
	if m == nil {
		return
	}
	m.oracleRequests.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) RankingFallback() {
	if m == nil {
		return
	}
	m.rankingFallbacks.Inc()
}

func (m *Metrics) MalformedSectors(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.malformedSectors.Add(float64(n))
}

// Notification records a CRM dispatch outcome (sent, failed, duplicate, skipped).
func (m *Metrics) Notification(result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(result).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
