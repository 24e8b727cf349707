package relay

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the relay's Prometheus collectors.
type Metrics struct {
	Rooms    prometheus.Gauge
	Peers    prometheus.Gauge
	Relayed  *prometheus.CounterVec
	Rejected *prometheus.CounterVec
}

// NewMetrics creates the relay collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netpong_relay_rooms",
			Help: "Open relay rooms",
		}),
		Peers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "netpong_relay_peers",
			Help: "Peers seated in relay rooms",
		}),
		Relayed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netpong_relay_messages_total",
				Help: "Messages forwarded between peers",
			},
			[]string{"type"},
		),
		Rejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netpong_relay_rejected_joins_total",
				Help: "Join attempts refused by the relay",
			},
			[]string{"reason"},
		),
	}
	reg.MustRegister(m.Rooms, m.Peers, m.Relayed, m.Rejected)
	return m
}
