package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "kvss"

// Metrics is the Prometheus-backed recorder. Each instance owns its own
// registry so tests and multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	tenantsCreated prometheus.Counter
	keyCollisions  prometheus.Counter
	pairUpserts    *prometheus.CounterVec
	authFailures   prometheus.Counter
	requests       *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		tenantsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tenants_created_total",
			Help:      "API keys issued.",
		}),
		keyCollisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "key_collisions_total",
			Help:      "Generated API keys rejected by the uniqueness constraint.",
		}),
		pairUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pair_upserts_total",
			Help:      "Pair writes by outcome.",
		}, []string{"result"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "authorization_failures_total",
			Help:      "Requests carrying an API key that did not resolve.",
		}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.tenantsCreated,
		m.keyCollisions,
		m.pairUpserts,
		m.authFailures,
		m.requests,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TenantCreated() { m.tenantsCreated.Inc() }

func (m *Metrics) KeyCollision() { m.keyCollisions.Inc() }

func (m *Metrics) PairUpserted(created bool) {
	result := "updated"
	if created {
		result = "created"
	}
	m.pairUpserts.WithLabelValues(result).Inc()
}

func (m *Metrics) AuthorizationFailed() { m.authFailures.Inc() }

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
