package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/httpserver/routes"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/posts"
	"github.com/ragtech-dev/ragsite/internal/sources/archive"
	"github.com/ragtech-dev/ragsite/internal/sources/beehiiv"
	"github.com/ragtech-dev/ragsite/internal/sources/markdown"
)

const markdownDoc = `---
title: "Shipping a Side Project"
slug: "shipping-a-side-project"
author:
  name: "Ana Gill"
publishedAt: "2025-06-10"
brief: "Lessons from launching on a weekend."
coverImage: "./cover.png"
status: "published"
tags:
  - Indie Hacking
---

Shipping beats polishing. Every weekend project teaches something new
about cutting scope.
`

const remotePage = `{
  "data": [
    {
      "id": "post_1",
      "slug": "remote-dispatch",
      "title": "Remote Dispatch",
      "subtitle": "News from the feed",
      "created": 1746057600,
      "publish_date": 1746057600,
      "status": "confirmed",
      "content": {"free": {"web": "<html><body><p>Remote body text with enough words.</p></body></html>"}}
    }
  ],
  "page": 1, "limit": 100, "total_results": 1, "total_pages": 1
}`

func writeArchive(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "posts"), 0o755); err != nil {
		t.Fatal(err)
	}
	index := `{"version":"1","source":"hashnode","posts":[{"slug":"legacy-notes","title":"Legacy Notes","publishedAt":"2024-01-05T00:00:00Z","filePath":"posts/legacy-notes.json"}]}`
	if err := os.WriteFile(filepath.Join(dir, "archived-posts.json"), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}
	post := `{"slug":"legacy-notes","title":"Legacy Notes","brief":"From the old site.","publishedAt":"2024-01-05T00:00:00Z","content":{"html":"<p>Old content.</p>"}}`
	if err := os.WriteFile(filepath.Join(dir, "posts", "legacy-notes.json"), []byte(post), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newAPIRouter(t *testing.T) chi.Router {
	t.Helper()
	log := logger.New("error", false)

	postsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(postsDir, "shipping-a-side-project"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(
		filepath.Join(postsDir, "shipping-a-side-project", "index.md"),
		[]byte(markdownDoc), 0o644,
	); err != nil {
		t.Fatal(err)
	}

	archiveDir := t.TempDir()
	writeArchive(t, archiveDir)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(remotePage))
	}))
	t.Cleanup(upstream.Close)

	remote := beehiiv.NewClient(beehiiv.Options{
		BaseURL:       upstream.URL,
		APIKey:        "test-key",
		PublicationID: "pub_test",
	}, log)

	feed := posts.NewService(
		markdown.NewLoader(postsDir, log),
		remote,
		archive.NewLoader(archiveDir, log),
		log,
	)

	d := deps.Deps{
		Logger:    log,
		StartTime: time.Now(),
		TimeNow:   time.Now,
		Posts:     feed,
		Sources:   posts.DefaultSourceConfig(),
	}

	r := chi.NewRouter()
	routes.RegisterAll(r, d)
	return r
}

func TestBlogFeedAcrossSources(t *testing.T) {
	r := newAPIRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/blog/posts", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Posts []struct {
			Slug   string `json:"slug"`
			Source string `json:"source"`
		} `json:"posts"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 3 {
		t.Fatalf("total = %d, want all three sources represented", body.Total)
	}

	// Newest first: markdown (2025-06), remote (2025-05), archived (2024-01).
	want := []struct{ slug, source string }{
		{"shipping-a-side-project", "markdown"},
		{"remote-dispatch", "remote"},
		{"legacy-notes", "archived"},
	}
	for i, w := range want {
		if body.Posts[i].Slug != w.slug || body.Posts[i].Source != w.source {
			t.Errorf("posts[%d] = %+v, want %+v", i, body.Posts[i], w)
		}
	}
}

func TestBlogDetailFromEachSource(t *testing.T) {
	r := newAPIRouter(t)

	tests := []struct {
		slug       string
		wantInBody string
	}{
		{"shipping-a-side-project", "Shipping beats polishing"},
		{"remote-dispatch", "Remote body text"},
		{"legacy-notes", "Old content"},
	}
	for _, tc := range tests {
		t.Run(tc.slug, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/blog/posts/"+tc.slug, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
			}
			var body struct {
				Slug    string `json:"slug"`
				Content string `json:"content"`
			}
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Slug != tc.slug {
				t.Errorf("slug = %q", body.Slug)
			}
			if !strings.Contains(body.Content, tc.wantInBody) {
				t.Errorf("content %q missing %q", body.Content, tc.wantInBody)
			}
		})
	}
}

func TestUnknownSlugReturns404(t *testing.T) {
	r := newAPIRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/blog/posts/does-not-exist", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	r := newAPIRouter(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}
