package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/httpserver/handlers"
	"github.com/ragtech-dev/ragsite/internal/httpserver/mw"
)

func init() { Register(registerExchange) }

func registerExchange(r chi.Router, d deps.Deps) {
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).
		Get("/api/exchange-rate", handlers.ExchangeRate(d))
}
