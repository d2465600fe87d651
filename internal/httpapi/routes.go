package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Resteral/DiscordActivity/internal/hub"
	"github.com/Resteral/DiscordActivity/internal/ws"
)

func SetupRoutes(h *hub.Hub, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Post("/lobbies", CreateLobby(h, log))
	r.Post("/tourneys", CreateTourney(h, log))
	r.Post("/stats/import", ImportStats(h))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(h))
	return r
}
