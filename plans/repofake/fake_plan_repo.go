package fakeplanrepo

import (
	"context"
	"sort"
	"sync"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/plans"
)

var _ plans.Repo = (*FakePlanRepo)(nil)

type FakePlanRepo struct {
	plans map[string]plans.Plan
	lock  sync.RWMutex
}

func NewFakePlanRepo() *FakePlanRepo {
	return &FakePlanRepo{plans: make(map[string]plans.Plan)}
}

func (r *FakePlanRepo) Upsert(_ context.Context, p *plans.Plan) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	stored := *p
	stored.Features = append([]string(nil), p.Features...)
	r.plans[p.ID] = stored
	return nil
}

func (r *FakePlanRepo) Get(_ context.Context, id string) (*plans.Plan, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, siteerrors.ErrNotFound
	}
	return &p, nil
}

func (r *FakePlanRepo) List(_ context.Context, activeOnly bool) ([]*plans.Plan, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*plans.Plan, 0, len(r.plans))
	for _, v := range r.plans {
		if activeOnly && !v.Active {
			continue
		}
		p := v
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].SortOrder != list[j].SortOrder {
			return list[i].SortOrder < list[j].SortOrder
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

func (r *FakePlanRepo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	if _, ok := r.plans[id]; !ok {
		return siteerrors.ErrNotFound
	}
	delete(r.plans, id)
	return nil
}
