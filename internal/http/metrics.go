package http

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics holds the collectors exposed on /metrics. Every server owns its
// registry, so tests can run several servers in one process.
type metrics struct {
	registry *prometheus.Registry

	requests              prometheus.Counter
	transactionsCreated   prometheus.Counter
	affordabilityAnswered prometheus.Counter
	affordabilityBlocked  prometheus.Counter
	paywallHits           prometheus.Counter
	exportsStarted        prometheus.Counter
	rateLimited           prometheus.Counter
	suspicious            prometheus.Counter
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: name, Help: help})
}

func newGaugeFunc(name, help string, fn func() float64) prometheus.GaugeFunc {
	return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, fn)
}

// newMetrics registers the counters and the gauges read from s on every
// scrape.
func newMetrics(s *Server) *metrics {
	m := &metrics{
		registry:              prometheus.NewRegistry(),
		requests:              newCounter("eixo_http_requests_total", "Total HTTP requests received."),
		transactionsCreated:   newCounter("eixo_transactions_created_total", "Transactions created through the API."),
		affordabilityAnswered: newCounter("eixo_affordability_answered_total", "Affordability questions answered."),
		affordabilityBlocked:  newCounter("eixo_affordability_blocked_total", "Affordability questions blocked by the free plan limit."),
		paywallHits:           newCounter("eixo_paywall_hits_total", "Requests answered with the premium paywall."),
		exportsStarted:        newCounter("eixo_exports_total", "Exports started."),
		rateLimited:           newCounter("eixo_rate_limited_total", "Requests rejected by the rate limiter."),
		suspicious:            newCounter("eixo_suspicious_requests_total", "Requests flagged as suspicious."),
	}

	m.registry.MustRegister(
		m.requests,
		m.transactionsCreated,
		m.affordabilityAnswered,
		m.affordabilityBlocked,
		m.paywallHits,
		m.exportsStarted,
		m.rateLimited,
		m.suspicious,
		newGaugeFunc("eixo_active_sessions", "Sessions currently open.", func() float64 {
			if s.accounts == nil {
				return 0
			}
			return float64(s.accounts.ActiveSessions())
		}),
		newGaugeFunc("eixo_rate_limit_clients", "Client IPs tracked by the rate limiter.", func() float64 {
			return float64(s.rateLimiter.activeClients())
		}),
		newGaugeFunc("eixo_uptime_seconds", "Seconds since the server started.", func() float64 {
			return float64(int64(time.Since(s.started).Seconds()))
		}),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
