package newsletter

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/ragtech-dev/ragsite/internal/domain"
)

var emailTmpl = template.Must(template.New("post").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f4f4f4;font-family:Helvetica,Arial,sans-serif;">
  <div style="max-width:600px;margin:0 auto;padding:24px;background:#ffffff;">
    <h1 style="font-size:24px;margin:0 0 8px;">{{.Title}}</h1>
    {{if .Brief}}<p style="color:#555;font-size:16px;margin:0 0 16px;">{{.Brief}}</p>{{end}}
    {{if .CoverImage}}<img src="{{.CoverImage}}" alt="" style="max-width:100%;margin:0 0 16px;"/>{{end}}
    <div>{{.Content}}</div>
    <hr style="margin:24px 0;border:none;border-top:1px solid #ddd;"/>
    <p style="font-size:12px;color:#999;">
      You are receiving this because you subscribed to the ragTech newsletter.<br/>
      <a href="{{.PostURL}}">Read on the site</a> &middot;
      <a href="{{.UnsubscribeURL}}">Unsubscribe</a>
    </p>
  </div>
</body>
</html>
`))

type emailData struct {
	Title          string
	Brief          string
	CoverImage     string
	Content        template.HTML
	PostURL        string
	UnsubscribeURL string
}

// RenderEmail produces the subject line and HTML body for a post
// newsletter. Relative cover image paths are made absolute against the
// site URL so they resolve inside mail clients.
func RenderEmail(p domain.MarkdownPost, siteURL string) (subject, html string, err error) {
	base := strings.TrimRight(siteURL, "/")

	cover := p.CoverImage
	if cover != "" && strings.HasPrefix(cover, "/") {
		cover = base + cover
	}

	data := emailData{
		Title:          p.Title,
		Brief:          p.Brief,
		CoverImage:     cover,
		Content:        template.HTML(p.HTML),
		PostURL:        base + "/blog/" + p.Slug,
		UnsubscribeURL: base + "/unsubscribe",
	}

	var buf bytes.Buffer
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render email for %q: %w", p.Slug, err)
	}
	return p.Title, buf.String(), nil
}
