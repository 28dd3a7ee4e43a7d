package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ritzau/dataflows/pkg/logging"
)

// Metrics holds the server's collectors. They live on their own registry
// so several servers can run in one process (tests do).
type Metrics struct {
	registry *prometheus.Registry

	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Scenes   *prometheus.CounterVec
	Rejected *prometheus.CounterVec
}

// NewMetrics registers the collectors. subscribers reports the number of
// open change feed connections.
func NewMetrics(subscribers func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataflows_http_requests_total",
				Help: "HTTP requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dataflows_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		Scenes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataflows_scene_events_total",
				Help: "Scene store changes by event type",
			},
			[]string{"event"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dataflows_scene_rejected_total",
				Help: "Scene payloads rejected during validation, by reason",
			},
			[]string{"reason"},
		),
	}

	m.registry.MustRegister(m.Requests, m.Latency, m.Scenes, m.Rejected)
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "dataflows_sse_subscribers",
			Help: "Open change feed subscriptions",
		},
		subscribers,
	))
	return m
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records requests per matched route template and passes the
// route and scene id on to the request log line
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := "unmatched"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		logging.AddRequestAttrs(r.Context(), "route", route)
		if id, err := strconv.Atoi(mux.Vars(r)["id"]); err == nil {
			logging.AddRequestAttrs(r.Context(), "sceneID", id)
		}

		rec := logging.NewResponseRecorder(w)
		start := time.Now()
		next.ServeHTTP(rec, r)

		m.Latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(rec.Status)).Inc()
	})
}
