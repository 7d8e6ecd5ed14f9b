// Package plans holds the consultation packages offered on the services page.
package plans

import (
	"context"
	"fmt"
)

type Plan struct {
	ID            string
	Name          string
	Summary       string
	PriceCents    int
	DurationWeeks int
	Features      []string
	Active        bool
	SortOrder     int
}

// Price formats PriceCents as pounds, e.g. "£120" or "£49.50"
func (p Plan) Price() string {
	if p.PriceCents%100 == 0 {
		return fmt.Sprintf("£%d", p.PriceCents/100)
	}
	return fmt.Sprintf("£%d.%02d", p.PriceCents/100, p.PriceCents%100)
}

type Repo interface {
	Upsert(ctx context.Context, p *Plan) error
	Get(ctx context.Context, id string) (*Plan, error)
	// List returns plans ordered by SortOrder then Name
	List(ctx context.Context, activeOnly bool) ([]*Plan, error)
	Delete(ctx context.Context, id string) error
}
