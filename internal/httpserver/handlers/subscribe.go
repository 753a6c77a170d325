package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/sources/beehiiv"
)

type subscribeRequest struct {
	Email string `json:"email"`
}

// Subscribe forwards a newsletter signup to the subscription platform.
// Re-subscribing an existing address reads as success to the caller.
func Subscribe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Subscriber == nil {
			writeError(w, http.StatusServiceUnavailable, "subscriptions are not available right now")
			return
		}

		var req subscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if !beehiiv.ValidEmail(req.Email) {
			writeError(w, http.StatusBadRequest, "a valid email address is required")
			return
		}

		result, err := d.Subscriber.Subscribe(r.Context(), req.Email)
		if err != nil {
			d.Logger.Error("subscription failed", logger.Error(err))
			writeError(w, http.StatusBadGateway, "subscription failed, please try again")
			return
		}
		if !result.Success {
			writeJSON(w, http.StatusBadRequest, result)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
