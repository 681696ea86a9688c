package pkg

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 服务指标，注册到传入的 Registerer
type Metrics struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
	Outbox   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hoodlink",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hoodlink",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Outbox: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hoodlink",
			Name:      "outbox_events_total",
			Help:      "Outbox deliveries by event type and result.",
		}, []string{"event_type", "result"}),
	}
	reg.MustRegister(m.Requests, m.Latency, m.Outbox)
	return m
}
