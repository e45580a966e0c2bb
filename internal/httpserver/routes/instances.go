package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/rewind/internal/httpserver/deps"
	"github.com/MrSnakeDoc/rewind/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/rewind/internal/httpserver/mw"
)

func init() { Register(registerInstances) }

func registerInstances(r chi.Router, d deps.Deps) {
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger)).Get("/api/instances", handlers.Instances(d))
}
