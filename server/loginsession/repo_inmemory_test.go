package loginsession_test

import (
	"context"
	"testing"
	"time"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLoginSessionRepo(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo := loginsession.NewInMemoryLoginSessionRepo()

	require.Error(t, repo.Upsert(ctx, loginsession.Session{}))

	live := loginsession.Session{ID: "live", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	stale := loginsession.Session{ID: "stale", UserID: "u2", ExpiresAt: now.Add(-time.Minute)}
	other := loginsession.Session{ID: "other", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Upsert(ctx, live))
	require.NoError(t, repo.Upsert(ctx, stale))
	require.NoError(t, repo.Upsert(ctx, other))

	got, err := repo.Get(ctx, "live")
	require.NoError(t, err)
	require.Equal(t, live, got)

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = repo.Get(ctx, "stale")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)

	require.NoError(t, repo.DeleteForUser(ctx, "u1"))
	_, err = repo.Get(ctx, "live")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
	_, err = repo.Get(ctx, "other")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
}

func TestInMemoryLoginSessionRepo_ClearJustSignedUp(t *testing.T) {
	ctx := context.Background()
	repo := loginsession.NewInMemoryLoginSessionRepo()
	require.NoError(t, repo.Upsert(ctx, loginsession.Session{ID: "new", UserID: "u1", JustSignedUp: true}))

	cleared, err := repo.ClearJustSignedUp(ctx, "new")
	require.NoError(t, err)
	require.True(t, cleared)

	cleared, err = repo.ClearJustSignedUp(ctx, "new")
	require.NoError(t, err)
	require.False(t, cleared)

	got, err := repo.Get(ctx, "new")
	require.NoError(t, err)
	require.False(t, got.JustSignedUp)

	_, err = repo.ClearJustSignedUp(ctx, "missing")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	require.True(t, loginsession.Session{ExpiresAt: now}.Expired(now))
	require.False(t, loginsession.Session{ExpiresAt: now.Add(time.Second)}.Expired(now))
}
