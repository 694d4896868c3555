// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Syncs         *prometheus.CounterVec // result: created, replayed
	PointsEarned  prometheus.Counter
	Redemptions   *prometheus.CounterVec // result: ok, rejected
	Notifications *prometheus.CounterVec // status: queued, sent
}

// New registers every collector on a fresh registry, so tests can build as
// many as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "loyalty_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Syncs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_transaction_syncs_total",
			Help: "POS transaction syncs by result.",
		}, []string{"result"}),
		PointsEarned: f.NewCounter(prometheus.CounterOpts{
			Name: "loyalty_points_earned_total",
			Help: "Loyalty points credited to customers.",
		}),
		Redemptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_promo_redemptions_total",
			Help: "Promo redemption attempts by result.",
		}, []string{"result"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "loyalty_notifications_total",
			Help: "Notification status transitions.",
		}, []string{"status"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
