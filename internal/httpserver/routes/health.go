package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/httpserver/handlers"
	"github.com/ragtech-dev/ragsite/internal/httpserver/mw"
)

func init() { Register(registerHealth) }

func registerHealth(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))
	r.With(mw.AllowOnlyCIDRS(d.AdminCIDRs, d.TrustProxy, d.Logger)).
		Get("/readyz", handlers.Readyz(d))
}
