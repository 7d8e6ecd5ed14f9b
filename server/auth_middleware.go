package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/nutrition-site/auth"
	"github.com/jrsteele09/nutrition-site/guard"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/session"
)

// cookieSessionProvider resolves the session named by the login cookie
type cookieSessionProvider struct {
	auth *auth.Service
}

var _ session.Provider = cookieSessionProvider{}

func (p cookieSessionProvider) Current(r *http.Request) session.Session {
	cookie, err := r.Cookie(loggedInSessionID)
	if err != nil || cookie.Value == "" {
		return session.Anonymous()
	}
	sess, err := p.auth.Resolve(r.Context(), cookie.Value)
	if err != nil {
		if !siteerrors.Is(err, siteerrors.ErrSessionExpired) {
			log.Err(err).Msg("Failed to resolve login session")
		}
		return session.Anonymous()
	}
	return sess
}

// LoadSession puts the visitor's session on the request context
func (s *Server) LoadSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessions.Current(r)
		next(w, r.WithContext(session.WithSession(r.Context(), sess)))
	}
}

// RequireGuard runs the route guard for pages in the admin layout.
// Must be chained after LoadSession.
func (s *Server) RequireGuard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		decision := s.guard.Check(sess, r.URL.Path)

		// The post-signup pass is good for one navigation. Only the request that
		// clears the flag may use it; the rest are judged without it.
		if decision.Allow && decision.Rule == guard.RuleSignupBypass {
			consumed, err := s.services.Auth.ConsumeSignupBypass(r.Context(), sess.ID)
			if err != nil {
				log.Err(err).Str("path", r.URL.Path).Msg("Failed to clear signup bypass")
			}
			if !consumed {
				sess.JustSignedUp = false
				decision = s.guard.Check(sess, r.URL.Path)
				r = r.WithContext(session.WithSession(r.Context(), sess))
			}
		}

		if !decision.Allow {
			target := decision.Redirect
			if target == RouteLogin && r.Method == http.MethodGet {
				target = withQuery(target, "next", r.URL.RequestURI())
			}
			redirectSuccess(w, r, target)
			return
		}

		// A generated password has to be replaced before anything else
		if r.URL.Path != RouteChangePassword && sess.User != nil &&
			s.services.Auth.PasswordChangeRequired(r.Context(), sess.User.ID) {
			redirectSuccess(w, r, RouteChangePassword+"?required=true")
			return
		}
		next(w, r)
	}
}

// RequireAdminData keeps non-admins away from pages that show practice data.
// A visitor let in by the signup bypass lands on the dashboard welcome view instead.
func (s *Server) RequireAdminData(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).IsAdmin() {
			redirectSuccess(w, r, RouteAdminDashboard)
			return
		}
		next(w, r)
	}
}

// currentSession is the session LoadSession stored for r
func currentSession(r *http.Request) session.Session {
	return session.FromContext(r.Context())
}
