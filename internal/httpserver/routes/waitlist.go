package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/httpserver/handlers"
	"github.com/ragtech-dev/ragsite/internal/httpserver/mw"
)

func init() { Register(registerWaitlist) }

func registerWaitlist(r chi.Router, d deps.Deps) {
	submitLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             3,
		RefillPerIPPerMin: 2,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), submitLimit).
		Post("/api/submit-waitlist", handlers.SubmitWaitlist(d))
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).
		Get("/api/pledge-count", handlers.PledgeCount(d))
}
