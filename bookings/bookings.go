// Package bookings records consultation requests made through the contact form.
package bookings

import (
	"context"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// CanMoveTo reports whether a booking in status s may be moved to next.
// Only pending bookings change status.
func (s Status) CanMoveTo(next Status) bool {
	return s == StatusPending && (next == StatusConfirmed || next == StatusCancelled)
}

type Booking struct {
	ID            string
	Name          string
	Email         string
	Phone         string
	PlanID        string
	PreferredDate *time.Time
	Message       string
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repo interface {
	Upsert(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id string) (*Booking, error)
	// List returns bookings newest first; an empty status matches all
	List(ctx context.Context, status Status, offset, limit int) ([]*Booking, error)
}
