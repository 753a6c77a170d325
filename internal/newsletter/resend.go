package newsletter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/utils"
)

const defaultResendTimeout = 15 * time.Second

// ResendClient talks to the Resend REST API. Only the handful of
// endpoints the newsletter flow needs are implemented.
type ResendClient struct {
	baseURL    string
	apiKey     string
	audienceID string
	http       *http.Client
	log        logger.Logger
}

type ResendOptions struct {
	BaseURL    string
	APIKey     string
	AudienceID string
	Timeout    time.Duration
	HTTPClient *http.Client
}

func NewResendClient(opts ResendOptions, log logger.Logger) *ResendClient {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultResendTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &ResendClient{
		baseURL:    opts.BaseURL,
		apiKey:     opts.APIKey,
		audienceID: opts.AudienceID,
		http:       hc,
		log:        log,
	}
}

// BroadcastParams describes one broadcast draft. SegmentID overrides the
// client's default audience when set.
type BroadcastParams struct {
	SegmentID string
	From      string
	Subject   string
	HTML      string
}

type resendError struct {
	Err struct {
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
}

func (e resendError) message() string {
	if e.Err.Message != "" {
		return e.Err.Message
	}
	return e.Message
}

type broadcastResponse struct {
	ID string `json:"id"`
}

// CreateBroadcast registers a broadcast draft and returns its id.
func (c *ResendClient) CreateBroadcast(ctx context.Context, p BroadcastParams) (string, error) {
	segment := p.SegmentID
	if segment == "" {
		segment = c.audienceID
	}
	body := map[string]any{
		"audience_id": segment,
		"from":        p.From,
		"subject":     p.Subject,
		"html":        p.HTML,
	}
	var out broadcastResponse
	if err := c.do(ctx, http.MethodPost, "/broadcasts", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("broadcast created without an id")
	}
	return out.ID, nil
}

// SendBroadcast triggers delivery of a previously created broadcast.
func (c *ResendClient) SendBroadcast(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/broadcasts/"+id+"/send", map[string]any{}, nil)
}

type EmailParams struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// SendEmail delivers a single transactional email, used for test sends.
func (c *ResendClient) SendEmail(ctx context.Context, p EmailParams) error {
	body := map[string]any{
		"from":    p.From,
		"to":      []string{p.To},
		"subject": p.Subject,
		"html":    p.HTML,
	}
	return c.do(ctx, http.MethodPost, "/emails", body, nil)
}

// CreateContact adds an email address to the default audience.
func (c *ResendClient) CreateContact(ctx context.Context, email string) error {
	body := map[string]any{
		"email":        email,
		"unsubscribed": false,
	}
	return c.do(ctx, http.MethodPost, "/audiences/"+c.audienceID+"/contacts", body, nil)
}

// RemoveContact deletes an email address from the default audience.
func (c *ResendClient) RemoveContact(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodDelete, "/audiences/"+c.audienceID+"/contacts/"+email, nil, nil)
}

func (c *ResendClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer utils.Close(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr resendError
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.message() != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.message(), resp.StatusCode)
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
