package beehiiv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ragtech-dev/ragsite/internal/domain"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/utils"
)

// slugLookupLimit is how many posts FetchBySlug pulls before filtering
// client-side. The upstream API has no slug filter; lookups for posts
// beyond this window return not-found rather than erroring. See the
// aggregator docs before raising it.
const slugLookupLimit = 100

// Client talks to the newsletter platform's v2 REST API.
type Client struct {
	baseURL       string
	apiKey        string
	publicationID string
	utmSource     string
	http          *http.Client
	log           logger.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL       string
	APIKey        string
	PublicationID string
	UTMSource     string        // attribution tag sent with subscriptions
	Timeout       time.Duration // per-request, defaults to 10s
}

// NewClient creates an API client for one publication.
func NewClient(opts Options, log logger.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimSuffix(opts.BaseURL, "/"),
		apiKey:        opts.APIKey,
		publicationID: opts.PublicationID,
		utmSource:     opts.UTMSource,
		http:          &http.Client{Timeout: opts.Timeout},
		log:           log,
	}
}

// FetchPage returns one page of confirmed posts. Any transport failure or
// non-2xx response degrades to an empty page so an upstream outage never
// blocks the blog listing.
func (c *Client) FetchPage(ctx context.Context, page, limit int) PostsPage {
	empty := PostsPage{Page: 1, Limit: limit}

	q := url.Values{}
	q.Set("status", "confirmed")
	q.Set("limit", strconv.Itoa(limit))
	q.Set("page", strconv.Itoa(page))
	q.Set("expand", "free_web_content")

	endpoint := fmt.Sprintf("%s/publications/%s/posts?%s", c.baseURL, c.publicationID, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.Error("failed to build posts request", logger.Error(err))
		return empty
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("posts fetch failed, returning empty page", logger.Error(err))
		return empty
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn("failed to read posts response", logger.Error(err))
		return empty
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("posts fetch returned non-2xx, returning empty page",
			logger.Int("status", resp.StatusCode),
			logger.String("body", snippet(body)))
		return empty
	}

	var pageResp PostsPage
	if err := json.Unmarshal(body, &pageResp); err != nil {
		c.log.Warn("failed to parse posts response", logger.Error(err))
		return empty
	}
	return pageResp
}

// FetchBySlug finds a post by slug. The upstream API cannot filter by
// slug, so this fetches a large first page and scans it client-side.
func (c *Client) FetchBySlug(ctx context.Context, slug string) (domain.RemotePost, bool) {
	page := c.FetchPage(ctx, 1, slugLookupLimit)
	for _, p := range page.Data {
		if p.SlugField == slug {
			return p, true
		}
	}
	return domain.RemotePost{}, false
}

// emailRe is a deliberately loose sanity check; the platform does the
// real validation.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail reports whether an address passes the local sanity check.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// Subscribe adds an email address to the publication's audience.
// An "already exists" rejection from upstream counts as success so the
// form stays idempotent; other upstream messages are surfaced verbatim.
func (c *Client) Subscribe(ctx context.Context, email string) (SubscribeResult, error) {
	if !ValidEmail(email) {
		return SubscribeResult{Message: "please provide a valid email address"}, nil
	}

	payload, err := json.Marshal(map[string]any{
		"email":               email,
		"reactivate_existing": false,
		"send_welcome_email":  true,
		"utm_source":          c.utmSource,
		"utm_medium":          "website",
	})
	if err != nil {
		return SubscribeResult{}, fmt.Errorf("failed to marshal subscription: %w", err)
	}

	endpoint := fmt.Sprintf("%s/publications/%s/subscriptions", c.baseURL, c.publicationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return SubscribeResult{}, fmt.Errorf("failed to build subscription request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return SubscribeResult{}, fmt.Errorf("subscription request failed: %w", err)
	}
	defer utils.Close(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SubscribeResult{}, fmt.Errorf("failed to read subscription response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var sub subscriptionResponse
		if err := json.Unmarshal(body, &sub); err != nil {
			return SubscribeResult{}, fmt.Errorf("failed to parse subscription response: %w", err)
		}
		return SubscribeResult{Success: true, SubscriptionID: sub.Data.ID}, nil
	}

	var upstream errorResponse
	_ = json.Unmarshal(body, &upstream)
	msg := upstream.message()
	if msg == "" {
		msg = "failed to subscribe to newsletter"
	}

	if strings.Contains(strings.ToLower(msg), "already exists") {
		return SubscribeResult{Success: true, AlreadyExisted: true, Message: msg}, nil
	}

	c.log.Warn("subscription rejected by upstream",
		logger.Int("status", resp.StatusCode),
		logger.String("message", msg))
	return SubscribeResult{Message: msg}, nil
}

func (c *Client) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
