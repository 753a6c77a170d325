package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/logger"
)

type acceptedResponse struct {
	Status string `json:"status"`
}

// SendPending enqueues a batch run on the newsletter worker. Runs are
// serialized through the worker, so a queued trigger while one is in
// flight still counts as accepted.
func SendPending(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Worker == nil {
			writeError(w, http.StatusServiceUnavailable, "newsletter sending is not configured")
			return
		}

		if d.Worker.Trigger() {
			d.Logger.Info("newsletter batch run triggered",
				logger.String("remote_ip", r.RemoteAddr))
		}
		writeJSON(w, http.StatusAccepted, acceptedResponse{Status: "queued"})
	}
}

type sendRequest struct {
	Slug      string `json:"slug"`
	TestEmail string `json:"testEmail,omitempty"`
}

// SendPost sends a single post. With testEmail set it delivers only to
// that address and leaves the pending state untouched.
func SendPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Newsletter == nil {
			writeError(w, http.StatusServiceUnavailable, "newsletter sending is not configured")
			return
		}

		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Slug == "" {
			writeError(w, http.StatusBadRequest, "slug is required")
			return
		}

		if req.TestEmail != "" {
			if err := d.Newsletter.SendTest(r.Context(), req.Slug, req.TestEmail); err != nil {
				d.Logger.Error("test send failed",
					logger.String("slug", req.Slug),
					logger.Error(err))
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, acceptedResponse{Status: "test sent"})
			return
		}

		pending, err := d.Newsletter.Pending(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		for _, p := range pending {
			if p.Slug != req.Slug {
				continue
			}
			if err := d.Newsletter.SendPost(r.Context(), p); err != nil {
				d.Logger.Error("send failed",
					logger.String("slug", req.Slug),
					logger.Error(err))
				writeError(w, http.StatusBadGateway, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, acceptedResponse{Status: "sent"})
			return
		}
		writeError(w, http.StatusNotFound, "no pending post with that slug")
	}
}

type unsubscribeRequest struct {
	Email string `json:"email"`
}

// Unsubscribe removes an address from the delivery audience.
func Unsubscribe(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Newsletter == nil {
			writeError(w, http.StatusServiceUnavailable, "newsletter sending is not configured")
			return
		}

		var req unsubscribeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
			writeError(w, http.StatusBadRequest, "email is required")
			return
		}

		if err := d.Newsletter.Unsubscribe(r.Context(), req.Email); err != nil {
			d.Logger.Error("unsubscribe failed", logger.Error(err))
			writeError(w, http.StatusBadGateway, "unsubscribe failed, please try again")
			return
		}
		writeJSON(w, http.StatusOK, acceptedResponse{Status: "unsubscribed"})
	}
}
