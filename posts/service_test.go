package posts_test

import (
	"context"
	"testing"
	"time"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/posts"
	fakepostrepo "github.com/jrsteele09/nutrition-site/posts/repofake"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*posts.Service, *time.Time) {
	t.Helper()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := posts.NewService(fakepostrepo.NewFakePostRepo(), posts.WithNowTime(func() time.Time { return now }))
	return svc, &now
}

func paragraphs(texts ...string) posts.Document {
	doc := posts.Document{}
	for _, t := range texts {
		doc.Blocks = append(doc.Blocks, posts.Block{Type: posts.BlockParagraph, Data: posts.BlockData{Text: t}})
	}
	return doc
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("derives slug and excerpt", func(t *testing.T) {
		svc, _ := newTestService(t)
		p, err := svc.Create(ctx, "author-1", posts.Draft{Title: "Hydration Basics", Document: paragraphs("Drink water.")})
		require.NoError(t, err)
		require.Equal(t, "hydration-basics", p.Slug)
		require.Equal(t, "Drink water.", p.Excerpt)
		require.Equal(t, "author-1", p.AuthorID)
		require.NotEmpty(t, p.ID)
		require.False(t, p.Published)
		require.Nil(t, p.PublishedAt)
	})

	t.Run("derived slugs are made unique", func(t *testing.T) {
		svc, _ := newTestService(t)
		for _, want := range []string{"fibre", "fibre-2", "fibre-3"} {
			p, err := svc.Create(ctx, "a", posts.Draft{Title: "Fibre", Document: paragraphs("x")})
			require.NoError(t, err)
			require.Equal(t, want, p.Slug)
		}
	})

	t.Run("explicit slug already taken", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, "a", posts.Draft{Title: "One", Slug: "same", Document: paragraphs("x")})
		require.NoError(t, err)
		_, err = svc.Create(ctx, "a", posts.Draft{Title: "Two", Slug: "same", Document: paragraphs("y")})
		require.ErrorIs(t, err, siteerrors.ErrSlugTaken)
	})

	t.Run("rejects bad drafts", func(t *testing.T) {
		svc, _ := newTestService(t)
		_, err := svc.Create(ctx, "a", posts.Draft{Title: " "})
		require.ErrorIs(t, err, siteerrors.ErrInvalidRequest)

		_, err = svc.Create(ctx, "a", posts.Draft{Title: "x", Slug: "Not A Slug"})
		require.ErrorIs(t, err, siteerrors.ErrInvalidRequest)

		_, err = svc.Create(ctx, "a", posts.Draft{Title: "x", CoverImage: "javascript:alert(1)"})
		require.ErrorIs(t, err, siteerrors.ErrInvalidRequest)

		bad := posts.Document{Blocks: []posts.Block{{Type: "video"}}}
		_, err = svc.Create(ctx, "a", posts.Draft{Title: "x", Document: bad})
		require.ErrorIs(t, err, siteerrors.ErrInvalidDocument)
	})
}

func TestServiceUpdateAndPublish(t *testing.T) {
	ctx := context.Background()
	svc, now := newTestService(t)

	p, err := svc.Create(ctx, "a", posts.Draft{Title: "Meal Prep", Document: paragraphs("Plan ahead.")})
	require.NoError(t, err)

	_, err = svc.GetPublished(ctx, "meal-prep")
	require.ErrorIs(t, err, siteerrors.ErrNotFound)

	*now = now.Add(time.Hour)
	updated, err := svc.Update(ctx, "meal-prep", posts.Draft{Title: "Meal Prep", Slug: "meal-prep-guide", Document: paragraphs("Plan ahead."), Published: true})
	require.NoError(t, err)
	require.Equal(t, p.ID, updated.ID)
	require.Equal(t, "meal-prep-guide", updated.Slug)
	require.NotNil(t, updated.PublishedAt)
	require.Equal(t, *now, *updated.PublishedAt)
	require.Equal(t, p.CreatedAt, updated.CreatedAt)

	_, err = svc.Get(ctx, "meal-prep")
	require.ErrorIs(t, err, siteerrors.ErrNotFound)

	got, err := svc.GetPublished(ctx, "meal-prep-guide")
	require.NoError(t, err)
	require.Equal(t, "Meal Prep", got.Title)

	t.Run("re-saving keeps first publish time", func(t *testing.T) {
		first := *now
		*now = now.Add(time.Hour)
		again, err := svc.Update(ctx, "meal-prep-guide", posts.Draft{Title: "Meal Prep", Document: paragraphs("Plan ahead."), Published: true})
		require.NoError(t, err)
		require.Equal(t, "meal-prep", again.Slug)
		require.Equal(t, first, *again.PublishedAt)
	})

	t.Run("update of missing post", func(t *testing.T) {
		_, err := svc.Update(ctx, "nope", posts.Draft{Title: "x"})
		require.ErrorIs(t, err, siteerrors.ErrNotFound)
	})
}

func TestServiceListAndDelete(t *testing.T) {
	ctx := context.Background()
	svc, now := newTestService(t)

	for i, title := range []string{"First", "Second", "Third"} {
		*now = now.Add(time.Minute)
		_, err := svc.Create(ctx, "a", posts.Draft{Title: title, Document: paragraphs("x"), Published: i != 1})
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "third", all[0].Slug)

	published, err := svc.List(ctx, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, published, 2)

	page, err := svc.List(ctx, false, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "second", page[0].Slug)

	require.NoError(t, svc.Delete(ctx, "second"))
	require.ErrorIs(t, svc.Delete(ctx, "second"), siteerrors.ErrNotFound)
	all, err = svc.List(ctx, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
