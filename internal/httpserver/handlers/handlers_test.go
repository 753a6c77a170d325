package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/domain"
	"github.com/ragtech-dev/ragsite/internal/exchange"
	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/posts"
	"github.com/ragtech-dev/ragsite/internal/sources/beehiiv"
	"github.com/ragtech-dev/ragsite/internal/waitlist"
)

type stubMarkdown struct {
	posts []domain.MarkdownPost
}

func (s stubMarkdown) LoadAll(context.Context) ([]domain.MarkdownPost, error) {
	return s.posts, nil
}

func (s stubMarkdown) LoadBySlug(_ context.Context, slug string) (domain.MarkdownPost, bool, error) {
	for _, p := range s.posts {
		if p.Slug == slug {
			return p, true, nil
		}
	}
	return domain.MarkdownPost{}, false, nil
}

type stubPledges struct {
	count int64
}

func (s stubPledges) IncrPledges(context.Context) (int64, error) { return s.count + 1, nil }
func (s stubPledges) Pledges(context.Context) (int64, error)     { return s.count, nil }

func mdPost(slug string, day int) domain.MarkdownPost {
	return domain.MarkdownPost{
		Slug:            slug,
		Title:           "Post " + slug,
		Brief:           "brief " + slug,
		HTML:            "<p>" + slug + "</p>",
		PublishedAt:     time.Date(2025, 6, day, 0, 0, 0, 0, time.UTC),
		ReadTimeMinutes: 3,
		Author:          domain.Author{Name: "Ana"},
		Status:          domain.StatusPublished,
	}
}

func testDeps(mdPosts ...domain.MarkdownPost) deps.Deps {
	log := logger.New("error", false)
	return deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		TimeNow:   time.Now,
		Posts:     posts.NewService(stubMarkdown{posts: mdPosts}, nil, nil, log),
		Sources:   posts.SourceConfig{Markdown: true},
		Waitlist:  waitlist.New(waitlist.Options{Store: stubPledges{count: 7}}, log),
	}
}

func TestListPostsPagination(t *testing.T) {
	d := testDeps(mdPost("a", 3), mdPost("b", 2), mdPost("c", 1))

	req := httptest.NewRequest(http.MethodGet, "/api/blog/posts?page=2&limit=2", nil)
	rec := httptest.NewRecorder()
	ListPosts(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Posts []struct {
			Slug   string `json:"slug"`
			Source string `json:"source"`
		} `json:"posts"`
		Page       int `json:"page"`
		Total      int `json:"total"`
		TotalPages int `json:"totalPages"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 3 || body.TotalPages != 2 || body.Page != 2 {
		t.Errorf("pagination = %+v", body)
	}
	if len(body.Posts) != 1 || body.Posts[0].Slug != "c" {
		t.Errorf("page 2 = %v", body.Posts)
	}
	if body.Posts[0].Source != "markdown" {
		t.Errorf("source = %q", body.Posts[0].Source)
	}
}

func TestListPostsDefaults(t *testing.T) {
	d := testDeps(mdPost("a", 1))

	req := httptest.NewRequest(http.MethodGet, "/api/blog/posts?page=bogus&limit=-3", nil)
	rec := httptest.NewRecorder()
	ListPosts(d)(rec, req)

	var body struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Page != 1 || body.Limit != defaultPageSize {
		t.Errorf("got page=%d limit=%d", body.Page, body.Limit)
	}
}

func TestGetPost(t *testing.T) {
	d := testDeps(mdPost("hello", 1))

	r := chi.NewRouter()
	r.Get("/api/blog/posts/{slug}", GetPost(d))

	req := httptest.NewRequest(http.MethodGet, "/api/blog/posts/hello", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Slug    string `json:"slug"`
		Content string `json:"content"`
		Author  string `json:"author"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Slug != "hello" || body.Content != "<p>hello</p>" || body.Author != "Ana" {
		t.Errorf("body = %+v", body)
	}
}

func TestGetPostNotFound(t *testing.T) {
	d := testDeps()

	r := chi.NewRouter()
	r.Get("/api/blog/posts/{slug}", GetPost(d))

	req := httptest.NewRequest(http.MethodGet, "/api/blog/posts/ghost", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestSubscribeWithoutUpstream(t *testing.T) {
	d := testDeps()
	d.Subscriber = nil

	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe",
		strings.NewReader(`{"email":"x@y.z"}`))
	rec := httptest.NewRecorder()
	Subscribe(d)(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("nil subscriber: status = %d", rec.Code)
	}
}

func TestSubscribeForwardsToUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"sub_1","status":"active"}}`))
	}))
	defer upstream.Close()

	d := testDeps()
	d.Subscriber = beehiiv.NewClient(beehiiv.Options{
		BaseURL:       upstream.URL,
		APIKey:        "k",
		PublicationID: "pub_1",
	}, d.Logger)

	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe",
		strings.NewReader(`{"email":"new@example.com"}`))
	rec := httptest.NewRecorder()
	Subscribe(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var body beehiiv.SubscribeResult
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if !body.Success {
		t.Errorf("body = %+v", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/newsletter/subscribe",
		strings.NewReader(`{"email":"nope"}`))
	rec = httptest.NewRecorder()
	Subscribe(d)(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid email: status = %d", rec.Code)
	}
}

func TestSendPendingWithoutWorker(t *testing.T) {
	d := testDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/send-pending", nil)
	rec := httptest.NewRecorder()
	SendPending(d)(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestExchangeRateNotConfigured(t *testing.T) {
	d := testDeps()

	req := httptest.NewRequest(http.MethodGet, "/api/exchange-rate?target=USD", nil)
	rec := httptest.NewRecorder()
	ExchangeRate(d)(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestExchangeRateConversion(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"quotes":{"SGDUSD":0.74}}`))
	}))
	defer upstream.Close()

	d := testDeps()
	d.Exchange = exchange.New(exchange.Options{
		BaseURL: upstream.URL,
		APIKey:  "k",
		Source:  "SGD",
	}, d.Logger)

	req := httptest.NewRequest(http.MethodGet, "/api/exchange-rate?target=USD&amount=10", nil)
	rec := httptest.NewRecorder()
	ExchangeRate(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Rate            float64 `json:"rate"`
		ConvertedAmount float64 `json:"convertedAmount"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Rate != 0.74 || body.ConvertedAmount != 7.4 {
		t.Errorf("body = %+v", body)
	}
}

func TestExchangeRateMissingTarget(t *testing.T) {
	d := testDeps()
	d.Exchange = exchange.New(exchange.Options{Source: "SGD"}, d.Logger)

	req := httptest.NewRequest(http.MethodGet, "/api/exchange-rate", nil)
	rec := httptest.NewRecorder()
	ExchangeRate(d)(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestPledgeCount(t *testing.T) {
	d := testDeps()

	req := httptest.NewRequest(http.MethodGet, "/api/pledge-count", nil)
	rec := httptest.NewRecorder()
	PledgeCount(d)(rec, req)

	var body pledgeCountResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 7 {
		t.Errorf("count = %d", body.Count)
	}
}

func TestSubmitWaitlistRejectsInvalidJSON(t *testing.T) {
	d := testDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/submit-waitlist",
		strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	SubmitWaitlist(d)(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSubmitWaitlistValidationFailure(t *testing.T) {
	d := testDeps()

	req := httptest.NewRequest(http.MethodPost, "/api/submit-waitlist",
		strings.NewReader(`{"name":"","email":"a@b.co"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	SubmitWaitlist(d)(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body waitlist.Result
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if body.Success || body.Message == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestHealthz(t *testing.T) {
	d := testDeps()
	d.Version = "v1.2.3"

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	Healthz(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body healthzResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Version != "v1.2.3" {
		t.Errorf("body = %+v", body)
	}
}

func TestReadyzWithoutRedis(t *testing.T) {
	d := testDeps()

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	Readyz(d)(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body readyzResponse
	_ = json.NewDecoder(rec.Body).Decode(&body)
	if !body.Ready || body.Redis != "not configured" {
		t.Errorf("body = %+v", body)
	}
}
