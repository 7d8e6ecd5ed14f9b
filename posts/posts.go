// Package posts is the blog: editor documents stored by slug and rendered read-only.
package posts

import (
	"context"
	"time"
)

type Post struct {
	ID          string
	Slug        string
	Title       string
	Excerpt     string
	CoverImage  string
	Document    Document
	Published   bool
	AuthorID    string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ListOptions struct {
	PublishedOnly bool
	Offset        int
	Limit         int // 0 means no limit
}

type Repo interface {
	Upsert(ctx context.Context, post *Post) error
	GetBySlug(ctx context.Context, slug string) (*Post, error)
	GetByID(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, opts ListOptions) ([]*Post, error)
	Delete(ctx context.Context, id string) error
}

// Surface renders or edits the document identified by slug
type Surface func(slug string)

// Switch picks the read-only surface when viewOnly is set and the authoring surface otherwise
func Switch(slug string, viewOnly bool, view, edit Surface) {
	if viewOnly {
		view(slug)
		return
	}
	edit(slug)
}
