package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/plans"
)

var _ plans.Repo = (*PlanRepo)(nil)

type PlanRepo struct {
	db *sql.DB
}

const planColumns = `id, name, summary, price_cents, duration_weeks, features_json, active, sort_order`

func (r *PlanRepo) Upsert(ctx context.Context, p *plans.Plan) error {
	features := p.Features
	if features == nil {
		features = []string{}
	}
	featuresJSON, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO plans (`+planColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			summary = excluded.summary,
			price_cents = excluded.price_cents,
			duration_weeks = excluded.duration_weeks,
			features_json = excluded.features_json,
			active = excluded.active,
			sort_order = excluded.sort_order`,
		p.ID, p.Name, p.Summary, p.PriceCents, p.DurationWeeks, string(featuresJSON), boolToInt(p.Active), p.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) Get(ctx context.Context, id string) (*plans.Plan, error) {
	return scanPlan(r.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = ?`, id))
}

func (r *PlanRepo) List(ctx context.Context, activeOnly bool) ([]*plans.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE active = 1`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	list := []*plans.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PlanRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return siteerrors.ErrNotFound
	}
	return nil
}

func scanPlan(row scanner) (*plans.Plan, error) {
	var (
		p            plans.Plan
		featuresJSON string
		active       int
	)
	err := row.Scan(&p.ID, &p.Name, &p.Summary, &p.PriceCents, &p.DurationWeeks, &featuresJSON, &active, &p.SortOrder)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan plan: %w", err)
	}
	if err := json.Unmarshal([]byte(featuresJSON), &p.Features); err != nil {
		return nil, fmt.Errorf("decode plan %s features: %w", p.ID, err)
	}
	if len(p.Features) == 0 {
		p.Features = nil
	}
	p.Active = active != 0
	return &p, nil
}
