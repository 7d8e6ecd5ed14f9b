// Package session holds the per-request view of who is signed in.
//
// A Session is built by a Provider (cookie lookup against the login session store)
// and passed explicitly to anything that needs it, such as the route guard.
package session

import (
	"context"
	"net/http"
)

// RoleAdmin is the only role allowed into the admin area.
const RoleAdmin = "admin"

// User is the signed-in identity carried by a Session.
type User struct {
	ID    string
	Email string
	Name  string
	Role  string
}

// Session is the authentication state of the current visitor.
type Session struct {
	ID           string // login session id, empty when anonymous
	IsLoggedIn   bool
	User         *User
	JustSignedUp bool
}

// Anonymous returns the session of a visitor that is not signed in.
func Anonymous() Session {
	return Session{}
}

// IsAdmin reports whether the session belongs to an admin. A missing user is not an admin.
func (s Session) IsAdmin() bool {
	return s.User != nil && s.User.Role == RoleAdmin
}

// Role returns the user's role or "" if there is no user.
func (s Session) Role() string {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// DisplayName returns the best available name for templates.
func (s Session) DisplayName() string {
	if s.User == nil {
		return ""
	}
	if s.User.Name != "" {
		return s.User.Name
	}
	return s.User.Email
}

// Provider resolves the current session for a request.
type Provider interface {
	Current(r *http.Request) Session
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(r *http.Request) Session

func (f ProviderFunc) Current(r *http.Request) Session {
	return f(r)
}

// Static returns a Provider that always yields s.
func Static(s Session) Provider {
	return ProviderFunc(func(*http.Request) Session { return s })
}

type contextKey struct{}

// WithSession stores s on ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored on ctx, or an anonymous session.
func FromContext(ctx context.Context) Session {
	s, ok := ctx.Value(contextKey{}).(Session)
	if !ok {
		return Anonymous()
	}
	return s
}
