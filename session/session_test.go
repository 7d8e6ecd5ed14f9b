package session_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/nutrition-site/session"
	"github.com/stretchr/testify/require"
)

func TestSession_IsAdmin(t *testing.T) {
	require.False(t, session.Anonymous().IsAdmin())
	require.False(t, session.Session{IsLoggedIn: true}.IsAdmin())
	require.False(t, session.Session{IsLoggedIn: true, User: &session.User{Role: "client"}}.IsAdmin())
	require.True(t, session.Session{IsLoggedIn: true, User: &session.User{Role: session.RoleAdmin}}.IsAdmin())
}

func TestSession_DisplayName(t *testing.T) {
	require.Empty(t, session.Anonymous().DisplayName())
	require.Equal(t, "jo@example.com", session.Session{User: &session.User{Email: "jo@example.com"}}.DisplayName())
	require.Equal(t, "Jo", session.Session{User: &session.User{Name: "Jo", Email: "jo@example.com"}}.DisplayName())
}

func TestContextRoundTrip(t *testing.T) {
	require.Equal(t, session.Anonymous(), session.FromContext(context.Background()))

	s := session.Session{IsLoggedIn: true, User: &session.User{ID: "u1", Role: "client"}}
	ctx := session.WithSession(context.Background(), s)
	require.Equal(t, s, session.FromContext(ctx))
}

func TestStaticProvider(t *testing.T) {
	s := session.Session{IsLoggedIn: true}
	p := session.Static(s)
	require.Equal(t, s, p.Current(httptest.NewRequest("GET", "/", nil)))
}
