package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rewind/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rewind/internal/httpserver/handlers"
)

func init() { Register(registerHealthz) }

// Liveness stays open so load balancer probes work without an allow-list.
func registerHealthz(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
}
