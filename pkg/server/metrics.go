package server

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes server counters and gauges over a Prometheus endpoint.
type Metrics struct {
	connsOpen     *prometheus.GaugeVec
	connsTotal    *prometheus.CounterVec
	commandsTotal *prometheus.CounterVec
	channelsOpen  prometheus.Gauge
	modeChanges   prometheus.Counter
	modeEvents    prometheus.Counter
}

// NewMetrics registers the server's collectors on the default registry.
func NewMetrics(s *Server) *Metrics {
	return &Metrics{
		connsOpen: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "crystalircd_connections_open",
			Help: "Currently open client connections by transport.",
		}, []string{"transport"}),
		connsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crystalircd_connections_total",
			Help: "Total accepted client connections by transport.",
		}, []string{"transport"}),
		commandsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "crystalircd_commands_total",
			Help: "Total commands processed by command name.",
		}, []string{"command"}),
		channelsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "crystalircd_channels_open",
			Help: "Currently existing channels.",
		}),
		modeChanges: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crystalircd_mode_changes_total",
			Help: "Total individual mode changes applied.",
		}),
		modeEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "crystalircd_mode_events_total",
			Help: "Total mode change events broadcast.",
		}),
	}
}

// Serve blocks serving the /metrics endpoint.
func (m *Metrics) Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Printf("Metrics server: %v", err)
	}
}

func (m *Metrics) ConnOpened(t TransportType) {
	m.connsOpen.WithLabelValues(string(t)).Inc()
	m.connsTotal.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) ConnClosed(t TransportType) {
	m.connsOpen.WithLabelValues(string(t)).Dec()
}

func (m *Metrics) CommandProcessed(command string) {
	m.commandsTotal.WithLabelValues(command).Inc()
}

func (m *Metrics) ChannelCount(n int) {
	m.channelsOpen.Set(float64(n))
}

// ModeEventBroadcast records one applied event carrying n changes.
func (m *Metrics) ModeEventBroadcast(n int) {
	m.modeEvents.Inc()
	m.modeChanges.Add(float64(n))
}
