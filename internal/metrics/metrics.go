// Package metrics exposes the server's prometheus instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reversi_connected_clients",
		Help: "Currently connected clients.",
	})

	OpenRooms = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reversi_open_rooms",
		Help: "Lobby rooms waiting for players.",
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reversi_active_sessions",
		Help: "Game sessions in progress.",
	})

	MessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reversi_messages_total",
		Help: "Inbound client messages by type.",
	}, []string{"type"})

	ProtocolErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reversi_protocol_errors_total",
		Help: "Inbound lines that failed to decode.",
	})

	RejectedMoves = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reversi_rejected_moves_total",
		Help: "Moves rejected for rule or turn violations.",
	})
)
