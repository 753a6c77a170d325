package markdown

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// renderer converts post bodies to HTML. Documents are authored in-repo
// and trusted, so raw HTML passes through unsanitized.
var renderer = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Table,
		extension.Strikethrough,
	),
	goldmark.WithRendererOptions(
		html.WithUnsafe(),
	),
)

// renderHTML converts a markdown body to HTML.
func renderHTML(body []byte) (string, error) {
	var buf bytes.Buffer
	if err := renderer.Convert(body, &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}
