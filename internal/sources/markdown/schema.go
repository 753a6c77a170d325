package markdown

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ragtech-dev/ragsite/internal/domain"
)

// Frontmatter is the YAML metadata block at the top of a post's index.md.
type Frontmatter struct {
	Title           string             `yaml:"title"`
	Slug            string             `yaml:"slug"`
	Author          domain.Author      `yaml:"author"`
	PublishedAt     string             `yaml:"publishedAt"`
	ScheduledFor    string             `yaml:"scheduledFor"`
	CoverImage      string             `yaml:"coverImage"`
	Brief           string             `yaml:"brief"`
	Tags            []string           `yaml:"tags"`
	ReadTimeMinutes int                `yaml:"readTimeInMinutes"`
	Status          string             `yaml:"status"`
	Newsletter      *domain.Newsletter `yaml:"newsletter"`
}

// Validate checks that all required frontmatter fields are present.
func (f *Frontmatter) Validate() error {
	switch {
	case f.Title == "":
		return fmt.Errorf("missing title")
	case f.Slug == "":
		return fmt.Errorf("missing slug")
	case f.Author.Name == "":
		return fmt.Errorf("missing author.name")
	case f.PublishedAt == "":
		return fmt.Errorf("missing publishedAt")
	case f.Brief == "":
		return fmt.Errorf("missing brief")
	case f.CoverImage == "":
		return fmt.Errorf("missing coverImage")
	case f.Status == "":
		return fmt.Errorf("missing status")
	}
	return nil
}

var fmDelimiter = []byte("---")

// splitDocument separates the frontmatter block from the markdown body.
// The document must start with a `---` line and contain a closing `---`
// line.
func splitDocument(data []byte) (frontmatter, body []byte, err error) {
	data = bytes.TrimLeft(data, "\xef\xbb\xbf") // BOM
	if !bytes.HasPrefix(data, fmDelimiter) {
		return nil, nil, fmt.Errorf("document has no frontmatter block")
	}

	rest := data[len(fmDelimiter):]
	end := bytes.Index(rest, append([]byte("\n"), fmDelimiter...))
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter block")
	}

	frontmatter = rest[:end]
	body = rest[end+1+len(fmDelimiter):]
	body = bytes.TrimPrefix(body, []byte("\n"))
	return frontmatter, body, nil
}

// parseDocument parses a full index.md document into its validated
// frontmatter and raw markdown body.
func parseDocument(data []byte) (*Frontmatter, []byte, error) {
	fmBytes, body, err := splitDocument(data)
	if err != nil {
		return nil, nil, err
	}

	var fm Frontmatter
	if err := yaml.Unmarshal(fmBytes, &fm); err != nil {
		return nil, nil, fmt.Errorf("failed to parse frontmatter yaml: %w", err)
	}
	if err := fm.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid frontmatter: %w", err)
	}
	return &fm, body, nil
}
