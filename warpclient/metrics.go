package warpclient

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus instruments a Client exposes about its own
// pool/connection/downlink state. Without WithPrometheusRegisterer a Client
// uses unregistered instruments (see noopMetrics); with it, the Client
// calls NewMetrics, which registers the instruments against the given
// registerer.
type Metrics struct {
	ConnectionsOpen  prometheus.Gauge
	DownlinksOpen    prometheus.Gauge
	EnvelopesSent    prometheus.Counter
	EnvelopesRecv    prometheus.Counter
	ReconnectsTotal  prometheus.Counter
}

// NewMetrics constructs and registers a fresh set of instruments against
// reg. Pass prometheus.NewRegistry() for an isolated registry, or
// prometheus.DefaultRegisterer to join the process-wide one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warp_client",
			Name:      "connections_open",
			Help:      "Number of WebSocket connections currently open.",
		}),
		DownlinksOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "warp_client",
			Name:      "downlinks_open",
			Help:      "Number of downlink managers currently open.",
		}),
		EnvelopesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warp_client",
			Name:      "envelopes_sent_total",
			Help:      "Total envelopes written to a connection.",
		}),
		EnvelopesRecv: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warp_client",
			Name:      "envelopes_received_total",
			Help:      "Total envelopes read from a connection.",
		}),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "warp_client",
			Name:      "reconnects_total",
			Help:      "Total successful reconnects after an abnormal close.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.ConnectionsOpen, m.DownlinksOpen, m.EnvelopesSent, m.EnvelopesRecv, m.ReconnectsTotal)
	}
	return m
}

// noopMetrics is used when a Client is built without a registry so every
// call site can unconditionally touch m.X.Inc()/Set() without a nil check.
func noopMetrics() *Metrics {
	return &Metrics{
		ConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_connections_open"}),
		DownlinksOpen:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "noop_downlinks_open"}),
		EnvelopesSent:   prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_envelopes_sent"}),
		EnvelopesRecv:   prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_envelopes_recv"}),
		ReconnectsTotal: prometheus.NewCounter(prometheus.CounterOpts{Name: "noop_reconnects"}),
	}
}
