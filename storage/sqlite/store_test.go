package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/nutrition-site/bookings"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/internal/utils"
	"github.com/jrsteele09/nutrition-site/plans"
	"github.com/jrsteele09/nutrition-site/posts"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
	"github.com/jrsteele09/nutrition-site/storage/sqlite"
	"github.com/jrsteele09/nutrition-site/users"
)

var testTime = time.Date(2026, 6, 1, 8, 30, 0, 0, time.UTC)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "site.db"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, store.Close()) })
	return store
}

func TestOpen(t *testing.T) {
	_, err := sqlite.Open(context.Background(), " ")
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "site.db")
	first, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// reopening must not re-run applied migrations
	second, err := sqlite.Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, second.Close())

	var nilStore *sqlite.Store
	require.NoError(t, nilStore.Close())
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Users()

	u := &users.User{Email: " Ana@Example.com ", Name: "Ana", PasswordHash: "hash", Role: users.RoleAdmin, DateJoined: testTime, Verified: true}
	require.NoError(t, repo.Upsert(ctx, u))
	require.NotEmpty(t, u.ID)
	require.Equal(t, "ana@example.com", u.Email)

	got, err := repo.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, users.RoleAdmin, got.Role)
	require.Equal(t, testTime, got.DateJoined)
	require.True(t, got.Verified)
	require.True(t, got.LastLogin.IsZero())

	got.Blocked = true
	require.NoError(t, repo.Upsert(ctx, got))
	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, byID.Blocked)

	other := &users.User{ID: "other", Email: "ana@example.com", PasswordHash: "x", Role: users.RoleClient}
	require.ErrorIs(t, repo.Upsert(ctx, other), siteerrors.ErrUserExists)

	newcomer := &users.User{Email: "ana@example.com", PasswordHash: "x", Role: users.RoleClient}
	require.ErrorIs(t, repo.Upsert(ctx, newcomer), siteerrors.ErrUserExists)
	kept, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, kept.ID)
	require.Equal(t, users.RoleAdmin, kept.Role)

	require.NoError(t, repo.Upsert(ctx, &users.User{Email: "bo@example.com", PasswordHash: "x", Role: users.RoleClient}))
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	page, err := repo.List(ctx, 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	require.Len(t, page.Users, 1)
	require.Equal(t, "bo@example.com", page.Users[0].Email)

	require.NoError(t, repo.Delete(ctx, "bo@example.com"))
	require.ErrorIs(t, repo.Delete(ctx, "bo@example.com"), siteerrors.ErrUserNotFound)
	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, siteerrors.ErrUserNotFound)
}

func TestLoginSessionRepo(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Sessions()

	s := loginsession.Session{
		ID: "sess-1", UserID: "u1", Email: "a@example.com", Role: "client",
		JustSignedUp: true, CreatedAt: testTime, ExpiresAt: testTime.Add(time.Hour),
	}
	require.NoError(t, repo.Upsert(ctx, s))
	require.NoError(t, repo.Upsert(ctx, loginsession.Session{ID: "sess-2", UserID: "u1", CreatedAt: testTime, ExpiresAt: testTime.Add(2 * time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, loginsession.Session{ID: "sess-3", UserID: "u2", CreatedAt: testTime, ExpiresAt: testTime.Add(3 * time.Hour)}))

	got, err := repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.Equal(t, s, got)

	cleared, err := repo.ClearJustSignedUp(ctx, "sess-1")
	require.NoError(t, err)
	require.True(t, cleared)
	cleared, err = repo.ClearJustSignedUp(ctx, "sess-1")
	require.NoError(t, err)
	require.False(t, cleared)
	got, err = repo.Get(ctx, "sess-1")
	require.NoError(t, err)
	require.False(t, got.JustSignedUp)
	_, err = repo.ClearJustSignedUp(ctx, "missing")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)

	removed, err := repo.DeleteExpired(ctx, testTime.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	_, err = repo.Get(ctx, "sess-1")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)

	require.NoError(t, repo.DeleteForUser(ctx, "u1"))
	_, err = repo.Get(ctx, "sess-2")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)

	require.NoError(t, repo.Delete(ctx, "sess-3"))
	_, err = repo.Get(ctx, "sess-3")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
}

func TestPostRepoThroughService(t *testing.T) {
	ctx := context.Background()
	now := testTime
	svc := posts.NewService(openStore(t).Posts(), posts.WithNowTime(func() time.Time { return now }))

	doc := posts.Document{Blocks: []posts.Block{
		{Type: posts.BlockHeader, Data: posts.BlockData{Text: "Why fibre", Level: 2}},
		{Type: posts.BlockList, Data: posts.BlockData{Style: posts.ListUnordered, Items: []string{"oats", "beans"}}},
	}}
	created, err := svc.Create(ctx, "author", posts.Draft{Title: "Fibre", Document: doc, Published: true})
	require.NoError(t, err)

	got, err := svc.GetPublished(ctx, "fibre")
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, doc, got.Document)
	require.NotNil(t, got.PublishedAt)
	require.Equal(t, now, *got.PublishedAt)

	now = now.Add(time.Minute)
	second, err := svc.Create(ctx, "author", posts.Draft{Title: "Fibre", Document: doc})
	require.NoError(t, err)
	require.Equal(t, "fibre-2", second.Slug)

	_, err = svc.Update(ctx, "fibre-2", posts.Draft{Title: "Fibre", Slug: "fibre", Document: doc})
	require.ErrorIs(t, err, siteerrors.ErrSlugTaken)

	list, err := svc.List(ctx, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "fibre-2", list[0].Slug)

	published, err := svc.List(ctx, true, 0, 10)
	require.NoError(t, err)
	require.Len(t, published, 1)

	require.NoError(t, svc.Delete(ctx, "fibre"))
	_, err = svc.Get(ctx, "fibre")
	require.ErrorIs(t, err, siteerrors.ErrNotFound)
}

func TestPlanRepo(t *testing.T) {
	ctx := context.Background()
	svc := plans.NewService(openStore(t).Plans())

	p, err := svc.Save(ctx, plans.Plan{Name: "Starter", PriceCents: 6000, DurationWeeks: 4, Features: []string{"Call"}, Active: true, SortOrder: 2})
	require.NoError(t, err)
	_, err = svc.Save(ctx, plans.Plan{Name: "Archive", SortOrder: 1})
	require.NoError(t, err)

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, *p, *got)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Equal(t, "Archive", all[0].Name)
	require.Nil(t, all[0].Features)

	require.NoError(t, svc.Delete(ctx, p.ID))
	require.ErrorIs(t, svc.Delete(ctx, p.ID), siteerrors.ErrNotFound)
}

func TestBookingRepo(t *testing.T) {
	ctx := context.Background()
	repo := openStore(t).Bookings()

	b := &bookings.Booking{
		ID: "b1", Name: "Sam", Email: "sam@example.com", PreferredDate: utils.Ptr(testTime.AddDate(0, 0, 3)),
		Status: bookings.StatusPending, CreatedAt: testTime, UpdatedAt: testTime,
	}
	require.NoError(t, repo.Upsert(ctx, b))
	require.NoError(t, repo.Upsert(ctx, &bookings.Booking{
		ID: "b2", Name: "Lee", Email: "lee@example.com", Status: bookings.StatusConfirmed,
		CreatedAt: testTime.Add(time.Minute), UpdatedAt: testTime,
	}))

	got, err := repo.Get(ctx, "b1")
	require.NoError(t, err)
	require.Equal(t, *b, *got)

	all, err := repo.List(ctx, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "b2", all[0].ID)
	require.Nil(t, all[0].PreferredDate)

	pending, err := repo.List(ctx, bookings.StatusPending, 0, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, siteerrors.ErrNotFound)
}
