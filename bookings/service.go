package bookings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/internal/mailer"
	"github.com/jrsteele09/nutrition-site/users"
)

// Request is a booking as submitted by a visitor
type Request struct {
	Name          string
	Email         string
	Phone         string
	PlanID        string
	PreferredDate *time.Time
	Message       string
}

type Service struct {
	repo     Repo
	mailer   mailer.Mailer
	notifyTo string
	nowTime  func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the clock (primarily for testing)
func WithNowTime(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = now
	}
}

// WithNotify sends an email to addr for every new booking
func WithNotify(addr string) ServiceOption {
	return func(s *Service) {
		s.notifyTo = addr
	}
}

func NewService(repo Repo, m mailer.Mailer, opts ...ServiceOption) *Service {
	s := &Service{repo: repo, mailer: m, nowTime: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a pending booking and notifies the business. A failed
// notification is logged and does not fail the booking.
func (s *Service) Create(ctx context.Context, req Request) (*Booking, error) {
	now := s.nowTime()
	b := &Booking{
		ID:            ulid.Make().String(),
		Name:          strings.TrimSpace(req.Name),
		Email:         users.NormaliseEmail(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		PlanID:        req.PlanID,
		PreferredDate: req.PreferredDate,
		Message:       strings.TrimSpace(req.Message),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if b.Name == "" || b.Email == "" {
		return nil, siteerrors.Wrapf(siteerrors.ErrInvalidRequest, "name and email are required")
	}
	if err := s.repo.Upsert(ctx, b); err != nil {
		return nil, errors.Wrap(err, "[bookings Create] store booking")
	}

	if s.notifyTo != "" && s.mailer != nil {
		if err := s.mailer.Send(ctx, notification(s.notifyTo, b)); err != nil {
			log.Err(err).Str("booking", b.ID).Msg("[bookings Create] notification failed")
		}
	}
	return b, nil
}

// SetStatus moves a pending booking to confirmed or cancelled
func (s *Service) SetStatus(ctx context.Context, id string, next Status) (*Booking, error) {
	if !next.Valid() {
		return nil, siteerrors.Wrapf(siteerrors.ErrInvalidStatus, "unknown status %q", next)
	}
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanMoveTo(next) {
		return nil, siteerrors.Wrapf(siteerrors.ErrInvalidStatus, "%s -> %s", b.Status, next)
	}
	b.Status = next
	b.UpdatedAt = s.nowTime()
	if err := s.repo.Upsert(ctx, b); err != nil {
		return nil, errors.Wrap(err, "[bookings SetStatus] store booking")
	}
	return b, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Booking, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, status Status, offset, limit int) ([]*Booking, error) {
	if status != "" && !status.Valid() {
		return nil, siteerrors.Wrapf(siteerrors.ErrInvalidStatus, "unknown status %q", status)
	}
	return s.repo.List(ctx, status, offset, limit)
}

func notification(to string, b *Booking) mailer.Message {
	var sb strings.Builder
	fmt.Fprintf(&sb, "New booking request from %s <%s>\n", b.Name, b.Email)
	if b.Phone != "" {
		fmt.Fprintf(&sb, "Phone: %s\n", b.Phone)
	}
	if b.PlanID != "" {
		fmt.Fprintf(&sb, "Plan: %s\n", b.PlanID)
	}
	if b.PreferredDate != nil {
		fmt.Fprintf(&sb, "Preferred date: %s\n", b.PreferredDate.Format("Mon 2 Jan 2006"))
	}
	if b.Message != "" {
		fmt.Fprintf(&sb, "\n%s\n", b.Message)
	}
	return mailer.Message{
		To:      to,
		Subject: "New booking: " + b.Name,
		Body:    sb.String(),
	}
}
