package waitlist

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/sources/beehiiv"
	"github.com/ragtech-dev/ragsite/internal/utils"
)

const defaultTimeout = 15 * time.Second

// PledgeStore keeps the running pledge counter.
type PledgeStore interface {
	IncrPledges(ctx context.Context) (int64, error)
	Pledges(ctx context.Context) (int64, error)
}

// Submission is one waitlist signup. ScreenshotData optionally carries a
// payment screenshot to forward alongside the form fields.
type Submission struct {
	Name           string
	Email          string
	ScreenshotData []byte
	ScreenshotName string
}

type Service struct {
	endpoint string
	formName string
	store    PledgeStore
	http     *http.Client
	log      logger.Logger
}

type Options struct {
	Endpoint   string // upstream form collector, empty disables submissions
	FormName   string
	Store      PledgeStore
	Timeout    time.Duration
	HTTPClient *http.Client
}

func New(opts Options, log logger.Logger) *Service {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Service{
		endpoint: opts.Endpoint,
		formName: opts.FormName,
		store:    opts.Store,
		http:     hc,
		log:      log,
	}
}

// Result reports the outcome of one submission.
type Result struct {
	ID      string `json:"id,omitempty"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit validates the entry, forwards it to the form collector as a
// multipart post and bumps the pledge counter. Counter failures are
// logged but never undo an accepted submission.
func (s *Service) Submit(ctx context.Context, sub Submission) (Result, error) {
	name := strings.TrimSpace(sub.Name)
	email := strings.TrimSpace(sub.Email)
	if name == "" {
		return Result{Message: "name is required"}, nil
	}
	if !beehiiv.ValidEmail(email) {
		return Result{Message: "a valid email address is required"}, nil
	}
	if s.endpoint == "" {
		return Result{Message: "waitlist is not accepting submissions right now"}, nil
	}

	id := uuid.NewString()
	if err := s.forward(ctx, id, name, email, sub); err != nil {
		return Result{}, err
	}

	if s.store != nil {
		if _, err := s.store.IncrPledges(ctx); err != nil {
			s.log.Warn("pledge counter increment failed", logger.Error(err))
		}
	}

	s.log.Info("waitlist submission accepted", logger.String("id", id))
	return Result{ID: id, Success: true, Message: "you're on the list"}, nil
}

// Count returns the pledge counter. Store outages degrade to zero so the
// page never breaks over a cosmetic number.
func (s *Service) Count(ctx context.Context) int64 {
	if s.store == nil {
		return 0
	}
	n, err := s.store.Pledges(ctx)
	if err != nil {
		s.log.Warn("pledge counter read failed", logger.Error(err))
		return 0
	}
	return n
}

func (s *Service) forward(ctx context.Context, id, name, email string, sub Submission) error {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"form-name": s.formName,
		"id":        id,
		"name":      name,
		"email":     email,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %q: %w", k, err)
		}
	}

	if len(sub.ScreenshotData) > 0 {
		filename := sub.ScreenshotName
		if filename == "" {
			filename = "screenshot.png"
		}
		part, err := w.CreateFormFile("screenshot", filename)
		if err != nil {
			return fmt.Errorf("attach screenshot: %w", err)
		}
		if _, err := part.Write(sub.ScreenshotData); err != nil {
			return fmt.Errorf("attach screenshot: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("forward submission: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("form collector returned status %d", resp.StatusCode)
	}
	return nil
}
