package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/utils"
	"github.com/ragtech-dev/ragsite/internal/waitlist"
)

// maxWaitlistBody caps the multipart body, screenshot included.
const maxWaitlistBody = 5 << 20

// SubmitWaitlist accepts a signup as multipart form data (an optional
// payment screenshot rides along) or as a plain JSON body.
func SubmitWaitlist(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub, err := parseSubmission(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		result, err := d.Waitlist.Submit(r.Context(), sub)
		if err != nil {
			d.Logger.Error("waitlist submission failed", logger.Error(err))
			writeError(w, http.StatusBadGateway, "submission failed, please try again")
			return
		}
		if !result.Success {
			writeJSON(w, http.StatusBadRequest, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type pledgeCountResponse struct {
	Count int64 `json:"count"`
}

// PledgeCount serves the running signup counter.
func PledgeCount(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, pledgeCountResponse{
			Count: d.Waitlist.Count(r.Context()),
		})
	}
}

func parseSubmission(r *http.Request) (waitlist.Submission, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var sub waitlist.Submission
		var body struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return sub, errInvalidBody
		}
		sub.Name = body.Name
		sub.Email = body.Email
		return sub, nil
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxWaitlistBody)
	if err := r.ParseMultipartForm(maxWaitlistBody); err != nil {
		return waitlist.Submission{}, errInvalidBody
	}

	sub := waitlist.Submission{
		Name:  r.FormValue("name"),
		Email: r.FormValue("email"),
	}

	file, hdr, err := r.FormFile("screenshot")
	if err == nil {
		defer utils.Close(file)
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			return waitlist.Submission{}, errInvalidBody
		}
		sub.ScreenshotData = data
		sub.ScreenshotName = hdr.Filename
	}
	return sub, nil
}

var errInvalidBody = errors.New("invalid request body")
