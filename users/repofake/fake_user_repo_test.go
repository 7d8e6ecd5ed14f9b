package fakeuserrepo_test

import (
	"context"
	"testing"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/users"
	fakeuserrepo "github.com/jrsteele09/nutrition-site/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	admin := &users.User{Email: "Owner@Example.com", Name: "Owner", Role: users.RoleAdmin}
	require.NoError(t, repo.Upsert(ctx, admin))
	require.NotEmpty(t, admin.ID)
	require.Equal(t, "owner@example.com", admin.Email)

	t.Run("new user cannot take an existing email", func(t *testing.T) {
		newcomer := &users.User{Email: "owner@example.com", Name: "Mallory", Role: users.RoleClient}
		require.ErrorIs(t, repo.Upsert(ctx, newcomer), siteerrors.ErrUserExists)
		require.Empty(t, newcomer.ID)

		kept, err := repo.GetByEmail(ctx, "owner@example.com")
		require.NoError(t, err)
		require.Equal(t, admin.ID, kept.ID)
		require.Equal(t, users.RoleAdmin, kept.Role)
		require.Equal(t, "Owner", kept.Name)
	})

	t.Run("existing user cannot move onto another email", func(t *testing.T) {
		client := &users.User{Email: "client@example.com", Role: users.RoleClient}
		require.NoError(t, repo.Upsert(ctx, client))
		client.Email = "owner@example.com"
		require.ErrorIs(t, repo.Upsert(ctx, client), siteerrors.ErrUserExists)
	})

	t.Run("update keeps the id", func(t *testing.T) {
		admin.Name = "Practice Owner"
		require.NoError(t, repo.Upsert(ctx, admin))
		got, err := repo.GetByID(ctx, admin.ID)
		require.NoError(t, err)
		require.Equal(t, "Practice Owner", got.Name)

		count, err := repo.Count(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, count)
	})
}
