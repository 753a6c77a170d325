package exchange

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/utils"
)

const defaultTimeout = 10 * time.Second

// RateCache stores upstream rates for a while so page views don't hammer
// the free tier. A broken cache is never fatal, callers fall back to a
// direct fetch.
type RateCache interface {
	CacheRate(ctx context.Context, target string, rate float64, ttl time.Duration) error
	GetCachedRate(ctx context.Context, target string) (rate float64, ok bool, err error)
}

type Client struct {
	baseURL  string
	apiKey   string
	source   string
	cache    RateCache
	cacheTTL time.Duration
	http     *http.Client
	log      logger.Logger
}

type Options struct {
	BaseURL    string
	APIKey     string
	Source     string // currency the site prices in, ex: SGD
	Cache      RateCache
	CacheTTL   time.Duration
	Timeout    time.Duration
	HTTPClient *http.Client
}

func New(opts Options, log logger.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Client{
		baseURL:  opts.BaseURL,
		apiKey:   opts.APIKey,
		source:   opts.Source,
		cache:    opts.Cache,
		cacheTTL: ttl,
		http:     hc,
		log:      log,
	}
}

// Result is the conversion returned to the page.
type Result struct {
	Source          string  `json:"source"`
	Target          string  `json:"target"`
	Rate            float64 `json:"rate"`
	Amount          float64 `json:"amount"`
	ConvertedAmount float64 `json:"convertedAmount"`
}

type liveResponse struct {
	Success bool               `json:"success"`
	Quotes  map[string]float64 `json:"quotes"`
	Error   struct {
		Info string `json:"info"`
	} `json:"error"`
}

// Convert looks up the source->target rate, preferring the cache, and
// applies it to amount. The converted amount is rounded to 2 decimals.
func (c *Client) Convert(ctx context.Context, target string, amount float64) (Result, error) {
	target = strings.ToUpper(strings.TrimSpace(target))
	if len(target) != 3 {
		return Result{}, fmt.Errorf("invalid target currency %q", target)
	}

	rate, err := c.rate(ctx, target)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Source:          c.source,
		Target:          target,
		Rate:            rate,
		Amount:          amount,
		ConvertedAmount: math.Round(rate*amount*100) / 100,
	}, nil
}

func (c *Client) rate(ctx context.Context, target string) (float64, error) {
	if c.cache != nil {
		rate, ok, err := c.cache.GetCachedRate(ctx, target)
		if err != nil {
			c.log.Warn("rate cache read failed", logger.Error(err))
		} else if ok {
			return rate, nil
		}
	}

	rate, err := c.fetchRate(ctx, target)
	if err != nil {
		return 0, err
	}

	if c.cache != nil {
		if err := c.cache.CacheRate(ctx, target, rate, c.cacheTTL); err != nil {
			c.log.Warn("rate cache write failed", logger.Error(err))
		}
	}
	return rate, nil
}

func (c *Client) fetchRate(ctx context.Context, target string) (float64, error) {
	q := url.Values{}
	q.Set("access_key", c.apiKey)
	q.Set("source", c.source)
	q.Set("currencies", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/live?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetch rate: %w", err)
	}
	defer utils.Close(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("rate provider returned status %d", resp.StatusCode)
	}

	var body liveResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode rate response: %w", err)
	}
	if !body.Success {
		if body.Error.Info != "" {
			return 0, fmt.Errorf("rate provider error: %s", body.Error.Info)
		}
		return 0, fmt.Errorf("rate provider reported failure")
	}

	rate, ok := body.Quotes[c.source+target]
	if !ok {
		return 0, fmt.Errorf("no quote for %s%s", c.source, target)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("invalid quote %f for %s%s", rate, c.source, target)
	}
	return rate, nil
}
