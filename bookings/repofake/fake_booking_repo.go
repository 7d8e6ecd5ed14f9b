package fakebookingrepo

import (
	"context"
	"sort"
	"sync"

	"github.com/jrsteele09/nutrition-site/bookings"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
)

var _ bookings.Repo = (*FakeBookingRepo)(nil)

type FakeBookingRepo struct {
	bookings map[string]bookings.Booking
	lock     sync.RWMutex
}

func NewFakeBookingRepo() *FakeBookingRepo {
	return &FakeBookingRepo{bookings: make(map[string]bookings.Booking)}
}

func (r *FakeBookingRepo) Upsert(_ context.Context, b *bookings.Booking) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.bookings[b.ID] = *b
	return nil
}

func (r *FakeBookingRepo) Get(_ context.Context, id string) (*bookings.Booking, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, siteerrors.ErrNotFound
	}
	return &b, nil
}

func (r *FakeBookingRepo) List(_ context.Context, status bookings.Status, offset, limit int) ([]*bookings.Booking, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*bookings.Booking, 0, len(r.bookings))
	for _, v := range r.bookings {
		if status != "" && v.Status != status {
			continue
		}
		b := v
		list = append(list, &b)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	if offset >= len(list) {
		return []*bookings.Booking{}, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}
