package posts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/internal/utils"
)

const excerptLength = 180

// Draft is what the editor submits
type Draft struct {
	Title      string
	Slug       string // optional; derived from Title when empty
	Excerpt    string // optional; derived from Document when empty
	CoverImage string
	Document   Document
	Published  bool
}

type Service struct {
	repo    Repo
	nowTime func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = now
	}
}

func NewService(repo Repo, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, nowTime: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new post authored by authorID
func (s *Service) Create(ctx context.Context, authorID string, d Draft) (*Post, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	now := s.nowTime()
	p := &Post{
		ID:        ulid.Make().String(),
		AuthorID:  authorID,
		CreatedAt: now,
	}
	if err := s.apply(ctx, p, d, now); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("[posts Create] %w", err)
	}
	return p, nil
}

// Update replaces the post currently at slug with the draft. The slug may change.
func (s *Service) Update(ctx context.Context, slug string, d Draft) (*Post, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := s.apply(ctx, p, d, s.nowTime()); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, p); err != nil {
		return nil, fmt.Errorf("[posts Update] %w", err)
	}
	return p, nil
}

// Get returns any post, published or not
func (s *Service) Get(ctx context.Context, slug string) (*Post, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// GetPublished returns the post only if it is visible to the public
func (s *Service) GetPublished(ctx context.Context, slug string) (*Post, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !p.Published {
		return nil, siteerrors.ErrNotFound
	}
	return p, nil
}

// List returns posts newest first
func (s *Service) List(ctx context.Context, publishedOnly bool, offset, limit int) ([]*Post, error) {
	return s.repo.List(ctx, ListOptions{PublishedOnly: publishedOnly, Offset: offset, Limit: limit})
}

func (s *Service) Delete(ctx context.Context, slug string) error {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, p.ID)
}

func (d Draft) validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return siteerrors.Wrapf(siteerrors.ErrInvalidRequest, "title is required")
	}
	if d.Slug != "" && !ValidSlug(d.Slug) {
		return siteerrors.Wrapf(siteerrors.ErrInvalidRequest, "slug %q must be lowercase letters, digits and dashes", d.Slug)
	}
	if d.CoverImage != "" && !safeImageURL(d.CoverImage) {
		return siteerrors.Wrapf(siteerrors.ErrInvalidRequest, "cover image url not allowed")
	}
	return d.Document.Validate()
}

func (s *Service) apply(ctx context.Context, p *Post, d Draft, now time.Time) error {
	slug, err := s.assignSlug(ctx, p.ID, d)
	if err != nil {
		return err
	}
	p.Slug = slug
	p.Title = strings.TrimSpace(d.Title)
	p.CoverImage = d.CoverImage
	p.Document = d.Document
	p.Excerpt = strings.TrimSpace(d.Excerpt)
	if p.Excerpt == "" {
		p.Excerpt = d.Document.Excerpt(excerptLength)
	}
	if d.Published && p.PublishedAt == nil {
		p.PublishedAt = utils.Ptr(now)
	}
	p.Published = d.Published
	p.UpdatedAt = now
	return nil
}

// assignSlug honours an explicit slug or derives a unique one from the title
func (s *Service) assignSlug(ctx context.Context, postID string, d Draft) (string, error) {
	if d.Slug != "" {
		owner, err := s.repo.GetBySlug(ctx, d.Slug)
		if err == nil && owner.ID != postID {
			return "", siteerrors.ErrSlugTaken
		}
		if err != nil && !siteerrors.Is(err, siteerrors.ErrNotFound) {
			return "", err
		}
		return d.Slug, nil
	}

	base := Slugify(d.Title)
	if base == "" {
		base = "post"
	}
	candidate := base
	for i := 2; ; i++ {
		owner, err := s.repo.GetBySlug(ctx, candidate)
		if siteerrors.Is(err, siteerrors.ErrNotFound) || (err == nil && owner.ID == postID) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}
