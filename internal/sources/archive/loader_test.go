package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ragtech-dev/ragsite/internal/logger"
)

const indexJSON = `{
	"version": "1.0",
	"source": "hashnode",
	"archived_date": "2024-01-15T00:00:00Z",
	"posts": [
		{"slug": "old-one", "title": "Old One", "publishedAt": "2022-01-01T00:00:00Z", "source": "hashnode", "filePath": "posts/old-one.json"},
		{"slug": "old-two", "title": "Old Two", "publishedAt": "2022-02-01T00:00:00Z", "source": "hashnode", "filePath": "posts/old-two.json"}
	]
}`

const postJSON = `{
	"id": "p1",
	"title": "Old One",
	"brief": "An archived post.",
	"slug": "old-one",
	"coverImage": {"url": "https://cdn/old-one.png"},
	"publishedAt": "2022-01-01T00:00:00Z",
	"readTimeInMinutes": 4,
	"author": {"name": "Dana", "profilePicture": "https://cdn/dana.png"},
	"content": {"html": "<p>archived body</p>", "markdown": "archived body"},
	"tags": [{"name": "ragTech", "slug": "ragtech"}]
}`

func writeArchive(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "posts"), 0o755); err != nil {
		t.Fatalf("failed to create posts dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "archived-posts.json"), []byte(indexJSON), 0o644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "posts", "old-one.json"), []byte(postJSON), 0o644); err != nil {
		t.Fatalf("failed to write post: %v", err)
	}
	return dir
}

func newTestLoader(dir string) *Loader {
	return NewLoader(dir, logger.New("error", false))
}

func TestLoadAllSkipsMissingFiles(t *testing.T) {
	// Index lists two posts but only old-one.json exists on disk.
	loader := newTestLoader(writeArchive(t))

	posts, err := loader.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("LoadAll() = %d posts, want 1", len(posts))
	}

	p := posts[0]
	if p.SlugField != "old-one" || p.Title != "Old One" {
		t.Errorf("post = %+v", p)
	}
	if p.Content.HTML != "<p>archived body</p>" {
		t.Errorf("Content.HTML = %q", p.Content.HTML)
	}
	if p.CoverImage == nil || p.CoverImage.URL != "https://cdn/old-one.png" {
		t.Errorf("CoverImage = %+v", p.CoverImage)
	}
}

func TestLoadAllMissingIndex(t *testing.T) {
	loader := newTestLoader(t.TempDir())

	posts, err := loader.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll() with no index error = %v, want nil", err)
	}
	if len(posts) != 0 {
		t.Errorf("LoadAll() = %d posts, want 0", len(posts))
	}
}

func TestLoadAllMalformedIndex(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "archived-posts.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write index: %v", err)
	}

	if _, err := newTestLoader(dir).LoadAll(context.Background()); err == nil {
		t.Error("LoadAll() with malformed index error = nil, want error")
	}
}

func TestLoadBySlug(t *testing.T) {
	loader := newTestLoader(writeArchive(t))
	ctx := context.Background()

	post, ok, err := loader.LoadBySlug(ctx, "old-one")
	if err != nil {
		t.Fatalf("LoadBySlug() error = %v", err)
	}
	if !ok || post.Title != "Old One" {
		t.Errorf("LoadBySlug() = %+v, ok=%v", post, ok)
	}

	_, ok, err = loader.LoadBySlug(ctx, "never-existed")
	if err != nil {
		t.Fatalf("LoadBySlug() error = %v", err)
	}
	if ok {
		t.Error("LoadBySlug() found a post that does not exist")
	}
}

func TestSlugs(t *testing.T) {
	slugs, err := newTestLoader(writeArchive(t)).Slugs(context.Background())
	if err != nil {
		t.Fatalf("Slugs() error = %v", err)
	}
	if len(slugs) != 2 || slugs[0] != "old-one" || slugs[1] != "old-two" {
		t.Errorf("Slugs() = %v", slugs)
	}
}
