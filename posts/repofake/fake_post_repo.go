package fakepostrepo

import (
	"context"
	"sort"
	"sync"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/posts"
)

var _ posts.Repo = (*FakePostRepo)(nil)

type FakePostRepo struct {
	posts map[string]*posts.Post // id -> post
	slugs map[string]string      // slug -> id
	lock  sync.RWMutex
}

func NewFakePostRepo() *FakePostRepo {
	return &FakePostRepo{
		posts: make(map[string]*posts.Post),
		slugs: make(map[string]string),
	}
}

func (r *FakePostRepo) Upsert(_ context.Context, post *posts.Post) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if id, ok := r.slugs[post.Slug]; ok && id != post.ID {
		return siteerrors.ErrSlugTaken
	}
	if old, ok := r.posts[post.ID]; ok && old.Slug != post.Slug {
		delete(r.slugs, old.Slug)
	}
	stored := *post
	r.posts[post.ID] = &stored
	r.slugs[post.Slug] = post.ID
	return nil
}

func (r *FakePostRepo) GetBySlug(_ context.Context, slug string) (*posts.Post, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	id, ok := r.slugs[slug]
	if !ok {
		return nil, siteerrors.ErrNotFound
	}
	p := *r.posts[id]
	return &p, nil
}

func (r *FakePostRepo) GetByID(_ context.Context, id string) (*posts.Post, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	stored, ok := r.posts[id]
	if !ok {
		return nil, siteerrors.ErrNotFound
	}
	p := *stored
	return &p, nil
}

func (r *FakePostRepo) List(_ context.Context, opts posts.ListOptions) ([]*posts.Post, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*posts.Post, 0, len(r.posts))
	for _, v := range r.posts {
		if opts.PublishedOnly && !v.Published {
			continue
		}
		p := *v
		list = append(list, &p)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID > list[j].ID
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	if opts.Offset >= len(list) {
		return []*posts.Post{}, nil
	}
	list = list[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(list) {
		list = list[:opts.Limit]
	}
	return list, nil
}

func (r *FakePostRepo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	p, ok := r.posts[id]
	if !ok {
		return siteerrors.ErrNotFound
	}
	delete(r.slugs, p.Slug)
	delete(r.posts, id)
	return nil
}
