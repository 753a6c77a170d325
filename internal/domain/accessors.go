package domain

import "time"

// Accessor functions over the unified post model. All of them are total:
// they never fail and fall back to a sensible default when an optional
// field is missing.

// DefaultAuthorName is used for remote posts, whose author list is often
// empty on the wire.
const DefaultAuthorName = "ragTech Team"

// Date returns the normalized publication time of a post.
//
// Remote posts carry three candidate Unix-second fields; the displayed
// date wins, then the publish date, then the creation date.
func Date(p Post) time.Time {
	switch post := p.(type) {
	case MarkdownPost:
		return post.PublishedAt
	case ArchivedPost:
		t, err := time.Parse(time.RFC3339, post.PublishedAt)
		if err != nil {
			return time.Time{}
		}
		return t
	case RemotePost:
		for _, secs := range []int64{post.DisplayedDate, post.PublishDate, post.Created} {
			if secs > 0 {
				return time.Unix(secs, 0).UTC()
			}
		}
		return time.Time{}
	}
	return time.Time{}
}

// Title returns the post title.
func Title(p Post) string {
	switch post := p.(type) {
	case MarkdownPost:
		return post.Title
	case ArchivedPost:
		return post.Title
	case RemotePost:
		return post.Title
	}
	return ""
}

// Slug returns the post slug, the cross-source identity key.
func Slug(p Post) string {
	switch post := p.(type) {
	case MarkdownPost:
		return post.Slug
	case ArchivedPost:
		return post.SlugField
	case RemotePost:
		return post.SlugField
	}
	return ""
}

// Brief returns the short description of a post. Remote posts fall back
// from subtitle to preview text, first non-empty wins.
func Brief(p Post) string {
	switch post := p.(type) {
	case MarkdownPost:
		return post.Brief
	case ArchivedPost:
		return post.Brief
	case RemotePost:
		if post.Subtitle != "" {
			return post.Subtitle
		}
		return post.PreviewText
	}
	return ""
}

// CoverImage returns the cover image URL or path, empty when absent.
func CoverImage(p Post) string {
	switch post := p.(type) {
	case MarkdownPost:
		return post.CoverImage
	case ArchivedPost:
		if post.CoverImage != nil {
			return post.CoverImage.URL
		}
		return ""
	case RemotePost:
		return post.ThumbnailURL
	}
	return ""
}

// AuthorName returns the display name of the post author.
func AuthorName(p Post) string {
	switch post := p.(type) {
	case MarkdownPost:
		return post.Author.Name
	case ArchivedPost:
		return post.Author.Name
	case RemotePost:
		if len(post.Authors) > 0 && post.Authors[0] != "" {
			return post.Authors[0]
		}
		return DefaultAuthorName
	}
	return DefaultAuthorName
}

// ReadingTime returns the reading time in minutes. Remote posts estimate
// it from the word count of the web content variant.
func ReadingTime(p Post) int {
	switch post := p.(type) {
	case MarkdownPost:
		return post.ReadTimeMinutes
	case ArchivedPost:
		return post.ReadTimeMinutes
	case RemotePost:
		return ReadingTimeFor(StripHTML(post.Content.Free.Web))
	}
	return 1
}

// Tags returns the ordered tag list of a post. Remote content tags are
// plain strings on the wire and get slugified here.
func Tags(p Post) []Tag {
	switch post := p.(type) {
	case MarkdownPost:
		return post.Tags
	case ArchivedPost:
		return post.Tags
	case RemotePost:
		tags := make([]Tag, 0, len(post.ContentTags))
		for _, name := range post.ContentTags {
			tags = append(tags, Tag{Name: name, Slug: TagSlug(name)})
		}
		return tags
	}
	return nil
}

// minWebContentLength is the threshold under which the web variant of a
// remote post is considered a content-gate stub rather than the article.
const minWebContentLength = 10

// Content returns the post body as HTML ready for rendering.
//
// Markdown and archived bodies are stored pre-rendered and trusted as-is.
// Remote bodies prefer the web variant, falling back to the email variant
// when the web one strips down to almost nothing, and are cleaned of
// wrapper tags and inline styling that would fight the site's own CSS.
func Content(p Post) string {
	switch post := p.(type) {
	case MarkdownPost:
		return post.HTML
	case ArchivedPost:
		return post.Content.HTML
	case RemotePost:
		body := post.Content.Free.Web
		if len(StripHTML(body)) < minWebContentLength {
			body = post.Content.Free.Email
		}
		return CleanRemoteHTML(body)
	}
	return ""
}
