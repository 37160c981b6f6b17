package wshost

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "niiview",
		Subsystem: "wshost",
		Name:      "ws_connections_active",
		Help:      "Current number of connected websocket clients.",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "niiview",
		Subsystem: "wshost",
		Name:      "messages_total",
		Help:      "Envelopes crossing the websocket host, by direction (in, out) and transport (ws, http).",
	}, []string{"direction", "transport"})

	envelopesDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "niiview",
		Subsystem: "wshost",
		Name:      "envelopes_dropped_total",
		Help:      "Outbound envelopes dropped for slow clients or a full backlog.",
	})
)
