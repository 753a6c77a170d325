// Package posts merges the three content sources into one logical blog.
package posts

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/ragtech-dev/ragsite/internal/domain"
	"github.com/ragtech-dev/ragsite/internal/logger"
	"github.com/ragtech-dev/ragsite/internal/sources/beehiiv"
)

// remoteListLimit is how many remote posts one aggregate listing pulls.
// The remote catalog is small; if it ever outgrows this, older remote
// posts silently fall off the list (see DESIGN.md).
const remoteListLimit = 100

// SourceConfig toggles each content source independently. A disabled
// source contributes nothing and its reader is never invoked.
type SourceConfig struct {
	Markdown bool
	Remote   bool
	Archived bool
}

// DefaultSourceConfig enables all three sources.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{Markdown: true, Remote: true, Archived: true}
}

// MarkdownSource is the slice of the markdown loader the aggregator needs.
type MarkdownSource interface {
	LoadAll(ctx context.Context) ([]domain.MarkdownPost, error)
	LoadBySlug(ctx context.Context, slug string) (domain.MarkdownPost, bool, error)
}

// RemoteSource is the slice of the newsletter-platform client the
// aggregator needs.
type RemoteSource interface {
	FetchPage(ctx context.Context, page, limit int) beehiiv.PostsPage
	FetchBySlug(ctx context.Context, slug string) (domain.RemotePost, bool)
}

// ArchivedSource is the slice of the archive loader the aggregator needs.
type ArchivedSource interface {
	LoadAll(ctx context.Context) ([]domain.ArchivedPost, error)
	LoadBySlug(ctx context.Context, slug string) (domain.ArchivedPost, bool, error)
}

// Service aggregates posts across sources. Sources are read fresh on
// every call; there is no cross-request cache.
type Service struct {
	markdown MarkdownSource
	remote   RemoteSource
	archived ArchivedSource
	log      logger.Logger
}

// NewService wires the three source readers into an aggregator.
func NewService(md MarkdownSource, remote RemoteSource, archived ArchivedSource, log logger.Logger) *Service {
	return &Service{markdown: md, remote: remote, archived: archived, log: log}
}

// LoadAll returns every post from the enabled sources, sorted by
// publication date descending. Sources are read concurrently; results are
// merged in fixed markdown, archived, remote order before the stable sort
// so tie-breaking is deterministic. A failing source contributes an empty
// set and never fails the aggregate.
func (s *Service) LoadAll(ctx context.Context, cfg SourceConfig) []domain.Post {
	var (
		mdPosts  []domain.MarkdownPost
		arPosts  []domain.ArchivedPost
		remPosts []domain.RemotePost
	)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Markdown {
		g.Go(func() error {
			loaded, err := s.markdown.LoadAll(gctx)
			if err != nil {
				s.log.Error("markdown source failed, contributing nothing", logger.Error(err))
				return nil
			}
			mdPosts = loaded
			return nil
		})
	}
	if cfg.Archived {
		g.Go(func() error {
			loaded, err := s.archived.LoadAll(gctx)
			if err != nil {
				s.log.Error("archive source failed, contributing nothing", logger.Error(err))
				return nil
			}
			arPosts = loaded
			return nil
		})
	}
	if cfg.Remote {
		g.Go(func() error {
			page := s.remote.FetchPage(gctx, 1, remoteListLimit)
			remPosts = page.Data
			return nil
		})
	}

	_ = g.Wait()

	merged := make([]domain.Post, 0, len(mdPosts)+len(arPosts)+len(remPosts))
	for _, p := range mdPosts {
		merged = append(merged, p)
	}
	for _, p := range arPosts {
		merged = append(merged, p)
	}
	for _, p := range remPosts {
		merged = append(merged, p)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return domain.Date(merged[i]).After(domain.Date(merged[j]))
	})
	return merged
}

// LoadBySlug resolves one post by slug, checking sources in fixed
// priority order: markdown, then archived, then remote. The first match
// wins, so a markdown post shadows a remote one with the same slug.
func (s *Service) LoadBySlug(ctx context.Context, slug string, cfg SourceConfig) (domain.Post, bool) {
	if cfg.Markdown {
		post, ok, err := s.markdown.LoadBySlug(ctx, slug)
		if err != nil {
			s.log.Error("markdown lookup failed", logger.String("slug", slug), logger.Error(err))
		} else if ok {
			return post, true
		}
	}

	if cfg.Archived {
		post, ok, err := s.archived.LoadBySlug(ctx, slug)
		if err != nil {
			s.log.Error("archive lookup failed", logger.String("slug", slug), logger.Error(err))
		} else if ok {
			return post, true
		}
	}

	if cfg.Remote {
		if post, ok := s.remote.FetchBySlug(ctx, slug); ok {
			return post, true
		}
	}

	return nil, false
}

// Slugs returns the slug of every post LoadAll would list, in the same
// order.
func (s *Service) Slugs(ctx context.Context, cfg SourceConfig) []string {
	all := s.LoadAll(ctx, cfg)
	slugs := make([]string, 0, len(all))
	for _, p := range all {
		slugs = append(slugs, domain.Slug(p))
	}
	return slugs
}
