package relay

import "github.com/prometheus/client_golang/prometheus"

type serverMetrics struct {
	requests      *prometheus.CounterVec
	prekeysServed *prometheus.CounterVec
	queued        prometheus.Gauge
	rejected      *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "axolotl_relay",
				Name:      "requests_total",
				Help:      "HTTP requests by method and status code.",
			},
			[]string{"method", "status"},
		),
		prekeysServed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "axolotl_relay",
				Name:      "prekeys_served_total",
				Help:      "Prekey bundles handed out, by kind.",
			},
			[]string{"kind"},
		),
		queued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "axolotl_relay",
				Name:      "queued_envelopes",
				Help:      "Envelopes waiting for delivery across all users.",
			},
		),
		rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "axolotl_relay",
				Name:      "rejected_total",
				Help:      "Requests refused before reaching storage, by reason.",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.requests, m.prekeysServed, m.queued, m.rejected)
	return m
}
