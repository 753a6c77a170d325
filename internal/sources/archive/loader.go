// Package archive reads posts migrated from a retired blogging platform.
// The archive is a static directory: one index file plus one JSON file
// per post, written once by the migration tooling and never mutated.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ragtech-dev/ragsite/internal/domain"
	"github.com/ragtech-dev/ragsite/internal/logger"
)

const indexFile = "archived-posts.json"

// IndexEntry describes one archived post in the index.
type IndexEntry struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source"`
	FilePath    string `json:"filePath"`
}

// Index is the archive's table of contents.
type Index struct {
	Version      string       `json:"version"`
	Source       string       `json:"source"`
	ArchivedDate string       `json:"archived_date"`
	Posts        []IndexEntry `json:"posts"`
}

// Loader reads archived posts from a directory.
type Loader struct {
	dir string
	log logger.Logger
}

// NewLoader creates an archive loader for the given directory.
func NewLoader(dir string, log logger.Logger) *Loader {
	return &Loader{dir: dir, log: log}
}

// LoadAll hydrates every post listed in the index. A missing index means
// the archive was never migrated and yields an empty list, not an error.
// Entries whose file is missing or malformed are skipped with a warning.
func (l *Loader) LoadAll(ctx context.Context) ([]domain.ArchivedPost, error) {
	index, err := l.readIndex()
	if err != nil {
		return nil, err
	}
	if index == nil {
		return nil, nil
	}

	posts := make([]domain.ArchivedPost, 0, len(index.Posts))
	for _, entry := range index.Posts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		post, err := l.readPost(entry.FilePath)
		if err != nil {
			l.log.Warn("skipping archived post",
				logger.String("slug", entry.Slug),
				logger.Error(err))
			continue
		}
		posts = append(posts, post)
	}
	return posts, nil
}

// LoadBySlug reads a single archived post directly from posts/<slug>.json
// without going through the index.
func (l *Loader) LoadBySlug(ctx context.Context, slug string) (domain.ArchivedPost, bool, error) {
	post, err := l.readPost(filepath.Join("posts", slug+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ArchivedPost{}, false, nil
		}
		return domain.ArchivedPost{}, false, err
	}
	return post, true, nil
}

// Slugs returns the slugs of all archived posts per the index.
func (l *Loader) Slugs(ctx context.Context) ([]string, error) {
	index, err := l.readIndex()
	if err != nil || index == nil {
		return nil, err
	}
	slugs := make([]string, 0, len(index.Posts))
	for _, entry := range index.Posts {
		slugs = append(slugs, entry.Slug)
	}
	return slugs, nil
}

func (l *Loader) readIndex() (*Index, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read archive index: %w", err)
	}

	var index Index
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, fmt.Errorf("failed to parse archive index: %w", err)
	}
	return &index, nil
}

func (l *Loader) readPost(relPath string) (domain.ArchivedPost, error) {
	data, err := os.ReadFile(filepath.Join(l.dir, relPath))
	if err != nil {
		return domain.ArchivedPost{}, err
	}

	var post domain.ArchivedPost
	if err := json.Unmarshal(data, &post); err != nil {
		return domain.ArchivedPost{}, fmt.Errorf("failed to parse archived post: %w", err)
	}
	return post, nil
}
