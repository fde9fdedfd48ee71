package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the Prometheus collectors for the session layer.
type Metrics struct {
	commandsTotal  *prometheus.CounterVec
	sendFailures   prometheus.Counter
	prunedConns    prometheus.Counter
	registeredConn prometheus.GaugeFunc
}

// NewMetrics registers the session collectors on reg. registry may be nil,
// in which case the connection gauge is omitted.
func NewMetrics(reg prometheus.Registerer, registry *Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chesslive",
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "Session commands processed, by command type and outcome",
		}, []string{"command", "outcome"}),
		sendFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chesslive",
			Subsystem: "session",
			Name:      "send_failures_total",
			Help:      "Outbound messages that could not be delivered",
		}),
		prunedConns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "chesslive",
			Subsystem: "session",
			Name:      "pruned_connections_total",
			Help:      "Closed connections removed from the registry during broadcast",
		}),
	}
	if registry != nil {
		m.registeredConn = factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "chesslive",
			Subsystem: "session",
			Name:      "registered_connections",
			Help:      "Connections currently registered across all games",
		}, func() float64 { return float64(registry.Len()) })
	}
	return m
}

func (m *Metrics) observeCommand(cmd CommandType, outcome string) {
	if m == nil {
		return
	}
	m.commandsTotal.WithLabelValues(string(cmd), outcome).Inc()
}

func (m *Metrics) sendFailed() {
	if m == nil {
		return
	}
	m.sendFailures.Inc()
}

func (m *Metrics) pruned(n int) {
	if m == nil || n == 0 {
		return
	}
	m.prunedConns.Add(float64(n))
}
