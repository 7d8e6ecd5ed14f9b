package resettoken_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/nutrition-site/auth/resettoken"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/users"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, now *time.Time) *resettoken.Manager {
	t.Helper()
	m, err := resettoken.New("test-secret", time.Hour, resettoken.WithNowTime(func() time.Time { return *now }))
	require.NoError(t, err)
	return m
}

func TestIssueAndVerify(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := newManager(t, &now)
	user := &users.User{ID: "u1", Email: "jo@example.com", PasswordHash: "hash-1"}

	token, err := m.Issue(user)
	require.NoError(t, err)

	claims, err := m.Verify(token, user)
	require.NoError(t, err)
	require.Equal(t, "jo@example.com", claims.Email)
	require.Equal(t, "u1", claims.Subject)

	t.Run("password changed", func(t *testing.T) {
		changed := *user
		changed.PasswordHash = "hash-2"
		_, err := m.Verify(token, &changed)
		require.ErrorIs(t, err, siteerrors.ErrInvalidToken)
	})

	t.Run("other user", func(t *testing.T) {
		other := *user
		other.ID = "u2"
		_, err := m.Verify(token, &other)
		require.ErrorIs(t, err, siteerrors.ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		later := now.Add(2 * time.Hour)
		expired := newManager(t, &later)
		_, err := expired.Parse(token)
		require.ErrorIs(t, err, siteerrors.ErrTokenExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := resettoken.New("another-secret", time.Hour, resettoken.WithNowTime(func() time.Time { return now }))
		require.NoError(t, err)
		_, err = other.Parse(token)
		require.ErrorIs(t, err, siteerrors.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not-a-token")
		require.ErrorIs(t, err, siteerrors.ErrInvalidToken)
	})
}

func TestNew_RandomSecret(t *testing.T) {
	a, err := resettoken.New("", time.Hour)
	require.NoError(t, err)
	b, err := resettoken.New("", time.Hour)
	require.NoError(t, err)

	user := &users.User{ID: "u1", PasswordHash: "h"}
	token, err := a.Issue(user)
	require.NoError(t, err)
	_, err = b.Parse(token)
	require.Error(t, err)
}
