package newsletter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ragtech-dev/ragsite/internal/domain"
	"github.com/ragtech-dev/ragsite/internal/logger"
)

// SentStore records which posts have already gone out. Delivery state
// lives outside the post files so concurrent readers never observe a
// half-written document.
type SentStore interface {
	MarkSent(ctx context.Context, slug string) error
	IsSent(ctx context.Context, slug string) (bool, error)
}

// PostSource yields the markdown posts eligible for sending.
type PostSource interface {
	Pending(ctx context.Context) ([]domain.MarkdownPost, error)
	LoadBySlug(ctx context.Context, slug string) (domain.MarkdownPost, bool, error)
}

// Mailer is the delivery surface the service needs from the email
// provider.
type Mailer interface {
	CreateBroadcast(ctx context.Context, p BroadcastParams) (string, error)
	SendBroadcast(ctx context.Context, id string) error
	SendEmail(ctx context.Context, p EmailParams) error
	RemoveContact(ctx context.Context, email string) error
}

type Service struct {
	posts   PostSource
	mailer  Mailer
	sent    SentStore
	topics  map[string]string
	from    string
	siteURL string
	log     logger.Logger
}

type ServiceOptions struct {
	Posts    PostSource
	Mailer   Mailer
	Sent     SentStore
	Topics   map[string]string // topic name -> provider segment id
	FromName string
	From     string
	SiteURL  string
}

func NewService(opts ServiceOptions, log logger.Logger) *Service {
	from := opts.From
	if opts.FromName != "" {
		from = fmt.Sprintf("%s <%s>", opts.FromName, opts.From)
	}
	return &Service{
		posts:   opts.Posts,
		mailer:  opts.Mailer,
		sent:    opts.Sent,
		topics:  opts.Topics,
		from:    from,
		siteURL: opts.SiteURL,
		log:     log,
	}
}

// Pending lists the posts flagged for sending that have not gone out
// yet.
func (s *Service) Pending(ctx context.Context) ([]domain.MarkdownPost, error) {
	flagged, err := s.posts.Pending(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.MarkdownPost
	for _, p := range flagged {
		done, err := s.sent.IsSent(ctx, p.Slug)
		if err != nil {
			return nil, fmt.Errorf("check sent flag for %q: %w", p.Slug, err)
		}
		if !done {
			out = append(out, p)
		}
	}
	return out, nil
}

// SendPost broadcasts one post, once per configured topic. Topic names
// without a registered segment are skipped with a warning; when nothing
// resolves the default audience receives the broadcast. The sent flag is
// written as soon as at least one broadcast goes out, so a partial
// failure never causes duplicate delivery to segments that already got
// it.
func (s *Service) SendPost(ctx context.Context, p domain.MarkdownPost) error {
	subject, html, err := RenderEmail(p, s.siteURL)
	if err != nil {
		return err
	}

	segments := s.resolveSegments(p)

	var errs []error
	delivered := 0
	for _, segment := range segments {
		id, err := s.mailer.CreateBroadcast(ctx, BroadcastParams{
			SegmentID: segment,
			From:      s.from,
			Subject:   subject,
			HTML:      html,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("create broadcast for %q: %w", p.Slug, err))
			continue
		}
		if err := s.mailer.SendBroadcast(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("send broadcast %s for %q: %w", id, p.Slug, err))
			continue
		}
		delivered++
	}

	if delivered == 0 {
		return errors.Join(errs...)
	}

	if err := s.sent.MarkSent(ctx, p.Slug); err != nil {
		errs = append(errs, fmt.Errorf("mark %q sent: %w", p.Slug, err))
	}
	s.log.Info("newsletter sent",
		logger.String("slug", p.Slug),
		logger.Int("broadcasts", delivered),
	)
	return errors.Join(errs...)
}

// SendOutcome reports what happened to one pending post during a batch
// run.
type SendOutcome struct {
	Slug  string `json:"slug"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// SendPending sends every pending post in turn and reports per-post
// outcomes. A failing post does not stop the batch.
func (s *Service) SendPending(ctx context.Context) ([]SendOutcome, error) {
	pending, err := s.Pending(ctx)
	if err != nil {
		return nil, err
	}

	outcomes := make([]SendOutcome, 0, len(pending))
	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out := SendOutcome{Slug: p.Slug, Sent: true}
		if err := s.SendPost(ctx, p); err != nil {
			out.Sent = false
			out.Error = err.Error()
			s.log.Error("newsletter send failed",
				logger.String("slug", p.Slug),
				logger.Error(err),
			)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// SendTest delivers a single post to one address without touching the
// sent flag. Drafts are allowed so authors can preview before publishing.
func (s *Service) SendTest(ctx context.Context, slug, email string) error {
	p, ok, err := s.posts.LoadBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("post %q not found", slug)
	}

	subject, html, err := RenderEmail(p, s.siteURL)
	if err != nil {
		return err
	}
	return s.mailer.SendEmail(ctx, EmailParams{
		From:    s.from,
		To:      email,
		Subject: "[test] " + subject,
		HTML:    html,
	})
}

// Unsubscribe removes an address from the delivery audience.
func (s *Service) Unsubscribe(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	return s.mailer.RemoveContact(ctx, email)
}

func (s *Service) resolveSegments(p domain.MarkdownPost) []string {
	if p.Newsletter == nil || len(p.Newsletter.Topics) == 0 {
		return []string{""}
	}

	var segments []string
	for _, name := range p.Newsletter.Topics {
		id, ok := s.topics[name]
		if !ok {
			s.log.Warn("unknown newsletter topic, skipping",
				logger.String("topic", name),
				logger.String("slug", p.Slug),
			)
			continue
		}
		segments = append(segments, id)
	}
	if len(segments) == 0 {
		return []string{""}
	}
	return segments
}
