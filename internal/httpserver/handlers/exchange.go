package handlers

import (
	"net/http"
	"strconv"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/logger"
)

// ExchangeRate converts an amount from the site's pricing currency into
// the requested target currency.
func ExchangeRate(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Exchange == nil {
			writeError(w, http.StatusServiceUnavailable, "currency conversion is not configured")
			return
		}

		target := r.URL.Query().Get("target")
		if target == "" {
			writeError(w, http.StatusBadRequest, "target currency is required")
			return
		}

		amount := 1.0
		if raw := r.URL.Query().Get("amount"); raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || parsed < 0 {
				writeError(w, http.StatusBadRequest, "amount must be a non-negative number")
				return
			}
			amount = parsed
		}

		result, err := d.Exchange.Convert(r.Context(), target, amount)
		if err != nil {
			d.Logger.Error("conversion failed",
				logger.String("target", target),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, "conversion is unavailable right now")
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
