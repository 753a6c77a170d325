package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/httpserver/handlers"
	"github.com/ragtech-dev/ragsite/internal/httpserver/mw"
)

func init() { Register(registerNewsletter) }

func registerNewsletter(r chi.Router, d deps.Deps) {
	subscribeLimit := mw.RateLimit(mw.RateLimitConfig{
		Burst:             5,
		RefillPerIPPerMin: 3,
		MaxEntries:        10000,
		TrustProxy:        d.TrustProxy,
	})
	r.With(mw.EnforceHost(d.AllowedHosts, d.Logger), subscribeLimit).
		Post("/api/newsletter/subscribe", handlers.Subscribe(d))

	// Send and unsubscribe endpoints are operator-only.
	admin := r.With(
		mw.AllowOnlyCIDRS(d.AdminCIDRs, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	admin.Post("/api/newsletter/send-pending", handlers.SendPending(d))
	admin.Post("/api/newsletter/send", handlers.SendPost(d))
	admin.Post("/api/newsletter/unsubscribe", handlers.Unsubscribe(d))
}
