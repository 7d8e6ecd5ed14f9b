package plans

import (
	"context"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
)

type Service struct {
	repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{repo: repo}
}

// Save creates the plan when ID is empty and replaces it otherwise
func (s *Service) Save(ctx context.Context, p Plan) (*Plan, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Summary = strings.TrimSpace(p.Summary)
	if p.Name == "" {
		return nil, siteerrors.Wrapf(siteerrors.ErrInvalidRequest, "plan name is required")
	}
	if p.PriceCents < 0 || p.DurationWeeks < 0 {
		return nil, siteerrors.Wrapf(siteerrors.ErrInvalidRequest, "price and duration cannot be negative")
	}
	features := p.Features[:0:0]
	for _, f := range p.Features {
		if f = strings.TrimSpace(f); f != "" {
			features = append(features, f)
		}
	}
	p.Features = features

	if p.ID == "" {
		p.ID = ulid.Make().String()
	} else if _, err := s.repo.Get(ctx, p.ID); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(ctx, &p); err != nil {
		return nil, errors.Wrap(err, "[plans Save] store plan")
	}
	return &p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Plan, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]*Plan, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// ParseFeatures splits a textarea value into one feature per line
func ParseFeatures(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
