package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/ragtech-dev/ragsite/internal/httpserver/deps"
	"github.com/ragtech-dev/ragsite/internal/httpserver/handlers"
	"github.com/ragtech-dev/ragsite/internal/httpserver/mw"
)

func init() { Register(registerBlog) }

func registerBlog(r chi.Router, d deps.Deps) {
	sub := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))
	sub.Get("/api/blog/posts", handlers.ListPosts(d))
	sub.Get("/api/blog/posts/{slug}", handlers.GetPost(d))
}
