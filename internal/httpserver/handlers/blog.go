package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/domain"
	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type postSummary struct {
	Slug            string       `json:"slug"`
	Title           string       `json:"title"`
	Brief           string       `json:"brief,omitempty"`
	CoverImage      string       `json:"coverImage,omitempty"`
	Author          string       `json:"author"`
	Date            time.Time    `json:"date"`
	ReadTimeMinutes int          `json:"readTimeMinutes"`
	Tags            []domain.Tag `json:"tags,omitempty"`
	Source          string       `json:"source"`
}

type postDetail struct {
	postSummary
	Content string `json:"content"`
}

type postListResponse struct {
	Posts      []postSummary `json:"posts"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	Total      int           `json:"total"`
	TotalPages int           `json:"totalPages"`
}

func summarize(p domain.Post) postSummary {
	return postSummary{
		Slug:            domain.Slug(p),
		Title:           domain.Title(p),
		Brief:           domain.Brief(p),
		CoverImage:      domain.CoverImage(p),
		Author:          domain.AuthorName(p),
		Date:            domain.Date(p),
		ReadTimeMinutes: domain.ReadingTime(p),
		Tags:            domain.Tags(p),
		Source:          string(p.Source()),
	}
}

// ListPosts serves the merged blog feed, newest first, with offset
// pagination over the aggregated list.
func ListPosts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", defaultPageSize)
		if page < 1 {
			page = 1
		}
		if limit < 1 {
			limit = defaultPageSize
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}

		all := d.Posts.LoadAll(r.Context(), d.Sources)

		total := len(all)
		totalPages := (total + limit - 1) / limit
		start := (page - 1) * limit
		if start > total {
			start = total
		}
		end := start + limit
		if end > total {
			end = total
		}

		summaries := make([]postSummary, 0, end-start)
		for _, p := range all[start:end] {
			summaries = append(summaries, summarize(p))
		}

		writeJSON(w, http.StatusOK, postListResponse{
			Posts:      summaries,
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		})
	}
}

// GetPost serves one post by slug, including its content HTML.
func GetPost(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		p, ok := d.Posts.LoadBySlug(r.Context(), slug, d.Sources)
		if !ok {
			writeError(w, http.StatusNotFound, "post not found")
			return
		}

		writeJSON(w, http.StatusOK, postDetail{
			postSummary: summarize(p),
			Content:     domain.Content(p),
		})
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
