package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jrsteele09/nutrition-site/bookings"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
)

var _ bookings.Repo = (*BookingRepo)(nil)

type BookingRepo struct {
	db *sql.DB
}

const bookingColumns = `id, name, email, phone, plan_id, preferred_date, message, status, created_at, updated_at`

func (r *BookingRepo) Upsert(ctx context.Context, b *bookings.Booking) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			phone = excluded.phone,
			plan_id = excluded.plan_id,
			preferred_date = excluded.preferred_date,
			message = excluded.message,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		b.ID, b.Name, b.Email, b.Phone, b.PlanID, nullMillis(b.PreferredDate), b.Message, string(b.Status),
		toMillis(b.CreatedAt), toMillis(b.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert booking: %w", err)
	}
	return nil
}

func (r *BookingRepo) Get(ctx context.Context, id string) (*bookings.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
}

func (r *BookingRepo) List(ctx context.Context, status bookings.Status, offset, limit int) ([]*bookings.Booking, error) {
	if limit <= 0 {
		limit = -1
	}
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings
			ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	} else {
		rows, err = r.db.QueryContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE status = ?
			ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, string(status), limit, offset)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	list := []*bookings.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

func scanBooking(row scanner) (*bookings.Booking, error) {
	var (
		b                  bookings.Booking
		preferred          sql.NullInt64
		status             string
		created, updatedAt int64
	)
	err := row.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &b.PlanID, &preferred, &b.Message, &status, &created, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan booking: %w", err)
	}
	b.PreferredDate = fromNullMillis(preferred)
	b.Status = bookings.Status(status)
	b.CreatedAt = fromMillis(created)
	b.UpdatedAt = fromMillis(updatedAt)
	return &b, nil
}
