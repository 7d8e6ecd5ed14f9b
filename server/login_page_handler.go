package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
	"github.com/jrsteele09/nutrition-site/session"
)

// LoginPageData contains data for rendering the login page
type LoginPageData struct {
	Email      string // Preserve email on error
	Next       string // Local path to return to after login
	SSOEnabled bool
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		if sess.IsLoggedIn {
			redirectSuccess(w, r, landingPath(sess))
			return
		}

		data := LoginPageData{
			Email:      r.URL.Query().Get("email"),
			Next:       localPath(r.URL.Query().Get("next")),
			SSOEnabled: s.services.SSO != nil,
		}
		s.renderPublicPage(w, r, "login", "Sign in", "login.html", data)
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := decodeLoginForm(r)
		data := LoginPageData{Email: form.Email, Next: localPath(form.Next), SSOEnabled: s.services.SSO != nil}

		if err := s.validate.Struct(form); err != nil {
			s.renderPublicFormError(w, r, formError(err), "login", "Sign in", "login.html", data)
			return
		}

		ls, err := s.services.Auth.Login(r.Context(), form.Email, form.Password)
		if err != nil {
			msg := "Invalid email or password"
			switch {
			case siteerrors.Is(err, siteerrors.ErrUserBlocked):
				msg = "This account has been blocked"
			case !siteerrors.Is(err, siteerrors.ErrInvalidCredentials):
				log.Err(err).Msg("Login failed")
				msg = "Sign in failed, please try again"
			}
			s.renderPublicFormError(w, r, msg, "login", "Sign in", "login.html", data)
			return
		}

		s.completeLogin(w, r, ls, data.Next)
	}
}

// completeLogin sets the session cookie and sends the user on
func (s *Server) completeLogin(w http.ResponseWriter, r *http.Request, ls loginsession.Session, next string) {
	s.SetLoginSessionCookie(w, ls.ID, r, sessionCookieAge(ls.ExpiresAt))

	if s.services.Auth.PasswordChangeRequired(r.Context(), ls.UserID) {
		redirectSuccess(w, r, RouteChangePassword+"?required=true")
		return
	}
	if next != "" {
		redirectSuccess(w, r, next)
		return
	}
	redirectSuccess(w, r, landingPath(session.Session{
		IsLoggedIn: true,
		User:       &session.User{ID: ls.UserID, Email: ls.Email, Name: ls.Name, Role: ls.Role},
	}))
}

// landingPath is where a signed in user goes by default
func landingPath(sess session.Session) string {
	if sess.IsAdmin() {
		return RouteAdminDashboard
	}
	return RouteHome
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(loggedInSessionID); err == nil && cookie.Value != "" {
			if err := s.services.Auth.Logout(r.Context(), cookie.Value); err != nil {
				log.Err(err).Msg("Failed to delete login session")
			}
		}
		s.SetLoginSessionCookie(w, "", r, -1) // Delete cookie
		redirectSuccess(w, r, RouteHome)
	}
}
