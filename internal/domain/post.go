package domain

import (
	"regexp"
	"strings"
	"time"
)

// Source identifies which content repository a post came from.
//
// Posts are never merged across sources: a slug collision between two
// sources is resolved by lookup priority (markdown > archived > remote),
// not by combining fields.
type Source string

const (
	SourceMarkdown Source = "markdown"
	SourceRemote   Source = "remote"
	SourceArchived Source = "archived"
)

// Post is the unified post model: a tagged union over the three
// source-specific shapes. Consumers must dispatch on Source() (or a type
// switch) rather than guessing the source from field presence.
type Post interface {
	Source() Source
}

// Tag is a post tag with its display name and URL slug.
type Tag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Author identifies the person who wrote a post.
type Author struct {
	Name           string `yaml:"name" json:"name"`
	Email          string `yaml:"email,omitempty" json:"email,omitempty"`
	ProfilePicture string `yaml:"profilePicture" json:"profilePicture"`
}

// PostStatus is the publication state of a markdown post. Remote and
// archived posts are implicitly published.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusScheduled PostStatus = "scheduled"
	StatusPublished PostStatus = "published"
)

// Newsletter carries the newsletter dispatch metadata of a markdown post.
// Sent-ness is tracked out of band (see the newsletter sent store); the
// Sent field only reflects what the source file last recorded.
type Newsletter struct {
	Send   bool     `yaml:"send" json:"send"`
	Sent   bool     `yaml:"sent" json:"sent"`
	Topics []string `yaml:"topic" json:"topics"`
}

// MarkdownPost is a post authored as a markdown file in-repo.
type MarkdownPost struct {
	Slug            string
	Title           string
	Brief           string
	CoverImage      string // absolute site path, already resolved
	PublishedAt     time.Time
	ReadTimeMinutes int
	Author          Author
	Tags            []Tag
	HTML            string // rendered body, trusted, not sanitized
	Markdown        string // raw body
	Status          PostStatus
	Newsletter      *Newsletter
	FilePath        string // relative to the posts root
}

func (MarkdownPost) Source() Source { return SourceMarkdown }

// RemoteContent holds the content variants the newsletter platform returns
// for a post. Web is the canonical variant; Email is the fallback when the
// web variant is a content-gate stub.
type RemoteContent struct {
	Web   string `json:"web"`
	Email string `json:"email"`
	RSS   string `json:"rss"`
}

// RemotePost is a post fetched from the newsletter platform's API.
// Timestamps are Unix seconds as delivered on the wire.
type RemotePost struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Subtitle      string        `json:"subtitle"`
	Authors       []string      `json:"authors"`
	Created       int64         `json:"created"`
	SubjectLine   string        `json:"subject_line"`
	PreviewText   string        `json:"preview_text"`
	SlugField     string        `json:"slug"`
	ThumbnailURL  string        `json:"thumbnail_url"`
	WebURL        string        `json:"web_url"`
	ContentTags   []string      `json:"content_tags"`
	PublishDate   int64         `json:"publish_date"`
	DisplayedDate int64         `json:"displayed_date"`
	Content       struct {
		Free RemoteContent `json:"free"`
	} `json:"content"`
}

func (RemotePost) Source() Source { return SourceRemote }

// ArchivedCover wraps the cover image URL of an archived post.
type ArchivedCover struct {
	URL string `json:"url"`
}

// ArchivedPost is a post migrated from a retired platform. Content is
// already fully resolved HTML; no transformation happens beyond parsing.
type ArchivedPost struct {
	ID              string         `json:"id"`
	Title           string         `json:"title"`
	Brief           string         `json:"brief"`
	SlugField       string         `json:"slug"`
	CoverImage      *ArchivedCover `json:"coverImage"`
	PublishedAt     string         `json:"publishedAt"`
	ReadTimeMinutes int            `json:"readTimeInMinutes"`
	Author          Author         `json:"author"`
	Content         struct {
		HTML     string `json:"html"`
		Markdown string `json:"markdown"`
	} `json:"content"`
	Tags []Tag `json:"tags"`
}

func (ArchivedPost) Source() Source { return SourceArchived }

var tagSlugRe = regexp.MustCompile(`[^a-z0-9]+`)

// TagSlug converts a tag display name to its URL slug.
// "Future Net!" -> "future-net"
func TagSlug(name string) string {
	s := tagSlugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

const wordsPerMinute = 200

// ReadingTimeFor estimates reading time in whole minutes from a body of
// text at 200 words per minute, rounding up. Never returns less than 1.
func ReadingTimeFor(text string) int {
	words := len(strings.Fields(text))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}
