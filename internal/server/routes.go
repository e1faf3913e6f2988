package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"reversi_server/internal/bus"
	"reversi_server/internal/hub"
)

// Routes builds the HTTP surface: health probe, metrics, and the websocket
// transport.
func Routes(h *hub.Hub, events *bus.Bus, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", WSHandler(h, events, log))
	return r
}
