package middleware

import (
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/utils/clock"
)

// routes lists the API's path templates. Anything else is reported as
// "unmatched" so that ids and probes cannot blow up label cardinality.
var routes = map[string]bool{
	"/health":      true,
	"/metrics":     true,
	"/signup":      true,
	"/signin":      true,
	"/tasks":       true,
	"/create/task": true,
	"/task/:id":    true,
	"/users":       true,
	"/user":        true,
	"/users/:id":   true,
	"/me/:id":      true,
}

// Route maps a request path to its route template.
func Route(p string) string {
	p = path.Clean("/" + p)
	if routes[p] {
		return p
	}
	parts := strings.Split(strings.TrimPrefix(p, "/"), "/")
	if len(parts) == 2 {
		if tmpl := "/" + parts[0] + "/:id"; routes[tmpl] {
			return tmpl
		}
	}
	return "unmatched"
}

// Metrics records request counts and latencies in a private registry.
type Metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	clock    clock.PassiveClock
}

func NewMetrics(clk clock.PassiveClock) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by method and route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		clock: clk,
	}
	m.registry.MustRegister(
		m.requests,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := m.clock.Now()
		rec := newStatusRecorder(w)

		next.ServeHTTP(rec, r)

		route := Route(r.URL.Path)
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(rec.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(m.clock.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
