package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
)

// SSOStartHandler sends staff to the identity provider (GET /auth/sso)
func (s *Server) SSOStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authURL, err := s.services.SSO.Begin(r.Context(), localPath(r.URL.Query().Get("next")))
		if err != nil {
			log.Err(err).Msg("Failed to start single sign-on")
			redirectWithError(w, r, RouteLogin, "Single sign-on is unavailable, please try again")
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

// OAuthCallbackHandler finishes the single sign-on flow and starts a login session
func (s *Server) OAuthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")

		// Check for authorization errors
		if errorParam := r.FormValue("error"); errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("Single sign-on was refused")
			redirectWithError(w, r, RouteLogin, "Single sign-on was cancelled")
			return
		}

		identity, returnURL, err := s.services.SSO.Complete(r.Context(), state, code)
		if err != nil {
			switch {
			case siteerrors.Is(err, siteerrors.ErrTokenExpired):
				redirectWithError(w, r, RouteLogin, "Single sign-on took too long, please try again")
			case siteerrors.Is(err, siteerrors.ErrInvalidRequest), siteerrors.Is(err, siteerrors.ErrInvalidToken):
				log.Warn().Err(err).Msg("Rejected single sign-on callback")
				redirectWithError(w, r, RouteLogin, "Single sign-on failed")
			default:
				log.Err(err).Msg("Single sign-on callback failed")
				redirectWithError(w, r, RouteLogin, "Single sign-on failed")
			}
			return
		}

		ls, err := s.services.Auth.LoginExternal(r.Context(), identity.Email)
		if err != nil {
			switch {
			case siteerrors.Is(err, siteerrors.ErrUserNotFound):
				redirectWithError(w, r, RouteLogin, "No account is registered for "+identity.Email)
			case siteerrors.Is(err, siteerrors.ErrUserBlocked):
				redirectWithError(w, r, RouteLogin, "This account has been blocked")
			default:
				log.Err(err).Msg("Failed to start session after single sign-on")
				redirectWithError(w, r, RouteLogin, "Single sign-on failed")
			}
			return
		}

		log.Info().Str("user_id", ls.UserID).Str("subject", identity.Subject).Msg("Signed in with single sign-on")
		s.completeLogin(w, r, ls, localPath(returnURL))
	}
}
