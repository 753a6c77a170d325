package markdown

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/ragtech-dev/ragsite/internal/domain"
	"github.com/ragtech-dev/ragsite/internal/logger"
)

const indexFile = "index.md"

// Loader reads markdown posts from a directory tree. Each post lives in
// its own subdirectory of the root and is described by an index.md with a
// YAML frontmatter block.
type Loader struct {
	root string
	log  logger.Logger
	now  func() time.Time
}

// NewLoader creates a markdown post loader rooted at dir.
func NewLoader(dir string, log logger.Logger) *Loader {
	return &Loader{
		root: dir,
		log:  log,
		now:  time.Now,
	}
}

// LoadAll returns every publicly visible markdown post: published posts,
// plus scheduled posts whose publish date has passed. A post that fails
// to parse is skipped and logged; it never aborts the listing.
func (l *Loader) LoadAll(ctx context.Context) ([]domain.MarkdownPost, error) {
	posts, err := l.loadDirs(ctx)
	if err != nil {
		return nil, err
	}

	visible := posts[:0]
	for _, p := range posts {
		if l.isVisible(p) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// LoadBySlug returns the post with the given slug regardless of status,
// so preview tooling can see drafts and scheduled posts.
func (l *Loader) LoadBySlug(ctx context.Context, slug string) (domain.MarkdownPost, bool, error) {
	posts, err := l.loadDirs(ctx)
	if err != nil {
		return domain.MarkdownPost{}, false, err
	}
	for _, p := range posts {
		if p.Slug == slug {
			return p, true, nil
		}
	}
	return domain.MarkdownPost{}, false, nil
}

// Slugs returns the slugs of all publicly visible posts.
func (l *Loader) Slugs(ctx context.Context) ([]string, error) {
	posts, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(posts))
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	return slugs, nil
}

// Pending returns published posts flagged for newsletter dispatch.
// Whether a post was already sent is tracked by the sent store, not here.
func (l *Loader) Pending(ctx context.Context) ([]domain.MarkdownPost, error) {
	posts, err := l.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	pending := posts[:0]
	for _, p := range posts {
		if p.Status == domain.StatusPublished && p.Newsletter != nil && p.Newsletter.Send {
			pending = append(pending, p)
		}
	}
	return pending, nil
}

func (l *Loader) isVisible(p domain.MarkdownPost) bool {
	switch p.Status {
	case domain.StatusPublished:
		return true
	case domain.StatusScheduled:
		return !p.PublishedAt.After(l.now())
	}
	return false
}

// loadDirs walks the posts root and parses every post directory. A
// missing root is treated as "no posts yet", not an error.
func (l *Loader) loadDirs(ctx context.Context) ([]domain.MarkdownPost, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read posts root: %w", err)
	}

	posts := make([]domain.MarkdownPost, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}

		post, err := l.loadDir(entry.Name())
		if err != nil {
			l.log.Warn("skipping markdown post",
				logger.String("dir", entry.Name()),
				logger.Error(err))
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (l *Loader) loadDir(dir string) (domain.MarkdownPost, error) {
	indexPath := filepath.Join(l.root, dir, indexFile)
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return domain.MarkdownPost{}, fmt.Errorf("failed to read %s: %w", indexFile, err)
	}

	fm, body, err := parseDocument(data)
	if err != nil {
		return domain.MarkdownPost{}, err
	}

	publishedAt, err := parseDate(fm.PublishedAt)
	if err != nil {
		return domain.MarkdownPost{}, fmt.Errorf("invalid publishedAt: %w", err)
	}

	readTime := fm.ReadTimeMinutes
	if readTime <= 0 {
		readTime = domain.ReadingTimeFor(string(body))
	}

	htmlBody, err := renderHTML(body)
	if err != nil {
		return domain.MarkdownPost{}, err
	}

	tags := make([]domain.Tag, 0, len(fm.Tags))
	for _, name := range fm.Tags {
		tags = append(tags, domain.Tag{Name: name, Slug: domain.TagSlug(name)})
	}

	return domain.MarkdownPost{
		Slug:            fm.Slug,
		Title:           fm.Title,
		Brief:           fm.Brief,
		CoverImage:      resolveCoverImage(fm.CoverImage, dir),
		PublishedAt:     publishedAt,
		ReadTimeMinutes: readTime,
		Author:          fm.Author,
		Tags:            tags,
		HTML:            htmlBody,
		Markdown:        string(body),
		Status:          domain.PostStatus(fm.Status),
		Newsletter:      fm.Newsletter,
		FilePath:        path.Join(dir, indexFile),
	}, nil
}

// parseDate accepts full RFC 3339 timestamps and bare dates.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

// resolveCoverImage turns a cover image path relative to the post's own
// directory into an absolute public site path. Absolute paths and full
// URLs pass through unchanged.
func resolveCoverImage(cover, dir string) string {
	if strings.HasPrefix(cover, "./") {
		return "/posts/" + path.Join(dir, strings.TrimPrefix(cover, "./"))
	}
	if strings.HasPrefix(cover, "/") || strings.Contains(cover, "://") {
		return cover
	}
	return "/" + cover
}
