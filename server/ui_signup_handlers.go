package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/nutrition-site/auth"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/users"
)

// ValidatePasswordHandler validates password strength via API
func (s *Server) ValidatePasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		password := r.FormValue("new_password")
		if password == "" {
			password = r.FormValue("password")
		}

		w.Header().Set("Content-Type", "text/html")
		if password == "" {
			w.WriteHeader(http.StatusOK)
			return
		}

		if err := users.ValidatePasswordStrength(password); err != nil {
			// Add class to parent input via HTMX response header
			w.Header().Set("HX-Trigger", fmt.Sprintf(`{"passwordInvalid": %q}`, err.Error()))
			w.WriteHeader(http.StatusOK)
			fmt.Fprintf(w, `<span class="text-danger">%s</span>`, err.Error())
			return
		}

		w.Header().Set("HX-Trigger", `{"passwordValid": ""}`)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, `<span class="text-success">Strong password</span>`)
	}
}

// AccountPageData is a minimal template model for the account pages
type AccountPageData struct {
	Name     string
	Email    string
	Token    string
	Required bool // Flag for forced password change
	Sent     bool
}

// SignupGetHandler renders the signup page
func (s *Server) SignupGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if sess := currentSession(r); sess.IsLoggedIn {
			redirectSuccess(w, r, landingPath(sess))
			return
		}
		s.renderPublicPage(w, r, "signup", "Create an account", "signup.html", AccountPageData{})
	}
}

// SignupPostHandler creates a client account and signs it in
func (s *Server) SignupPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := decodeSignupForm(r)
		data := AccountPageData{Name: form.Name, Email: form.Email}
		if err := s.validate.Struct(form); err != nil {
			s.renderPublicFormError(w, r, formError(err), "signup", "Create an account", "signup.html", data)
			return
		}

		ls, err := s.services.Auth.Signup(r.Context(), auth.SignupRequest{
			Name:     form.Name,
			Email:    form.Email,
			Password: form.Password,
		})
		if err != nil {
			msg := err.Error()
			if siteerrors.Is(err, siteerrors.ErrUserExists) {
				msg = "An account with that email already exists"
			} else if !errorIsUserFacing(err) {
				log.Err(err).Msg("Signup failed")
				msg = "Sign up failed, please try again"
			}
			s.renderPublicFormError(w, r, msg, "signup", "Create an account", "signup.html", data)
			return
		}

		s.SetLoginSessionCookie(w, ls.ID, r, sessionCookieAge(ls.ExpiresAt))
		redirectSuccess(w, r, RouteAdminDashboard)
	}
}

// ForgotPasswordGetHandler renders the forgot-password page
func (s *Server) ForgotPasswordGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := AccountPageData{
			Email: r.URL.Query().Get("email"),
			Sent:  r.URL.Query().Get("sent") == "true",
		}
		s.renderPublicPage(w, r, "login", "Forgot password", "forgot_password.html", data)
	}
}

// ForgotPasswordPostHandler emails a reset link. The reply never reveals whether the address has an account.
func (s *Server) ForgotPasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := forgotPasswordForm{Email: strings.TrimSpace(r.FormValue("email"))}
		if err := s.validate.Struct(form); err != nil {
			s.renderPublicFormError(w, r, formError(err), "login", "Forgot password", "forgot_password.html", AccountPageData{Email: form.Email})
			return
		}

		if err := s.services.Auth.ForgotPassword(r.Context(), users.NormaliseEmail(form.Email)); err != nil {
			log.Err(err).Msg("Failed to send password reset email")
		}
		redirectSuccess(w, r, RouteForgotPassword+"?sent=true")
	}
}

// ResetPasswordGetHandler renders the reset form for an emailed token
func (s *Server) ResetPasswordGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			redirectWithError(w, r, RouteForgotPassword, "The reset link is missing its token")
			return
		}
		s.renderPublicPage(w, r, "login", "Choose a new password", "reset_password.html", AccountPageData{Token: token})
	}
}

// ResetPasswordPostHandler sets the new password and sends the user to sign in
func (s *Server) ResetPasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := decodeResetPasswordForm(r)
		data := AccountPageData{Token: form.Token}
		if err := s.validate.Struct(form); err != nil {
			s.renderPublicFormError(w, r, formError(err), "login", "Choose a new password", "reset_password.html", data)
			return
		}

		err := s.services.Auth.ResetPassword(r.Context(), form.Token, form.NewPassword, form.ConfirmPassword)
		switch {
		case err == nil:
			redirectWithNotice(w, r, RouteLogin, "Your password has been changed, please sign in")
		case siteerrors.Is(err, siteerrors.ErrInvalidToken), siteerrors.Is(err, siteerrors.ErrTokenExpired):
			redirectWithError(w, r, RouteForgotPassword, "That reset link is invalid or has expired")
		case errorIsUserFacing(err):
			s.renderPublicFormError(w, r, err.Error(), "login", "Choose a new password", "reset_password.html", data)
		default:
			log.Err(err).Msg("Password reset failed")
			s.renderPublicFormError(w, r, "Password reset failed, please try again", "login", "Choose a new password", "reset_password.html", data)
		}
	}
}

// ChangePasswordGetHandler renders the change password form in the admin layout
func (s *Server) ChangePasswordGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := currentSession(r)
		data := AccountPageData{
			Required: s.services.Auth.PasswordChangeRequired(r.Context(), sess.User.ID),
		}
		s.renderAdminPage(w, r, "", "Change password", "change_password.html", data)
	}
}

// ChangePasswordPostHandler updates the signed in user's password
func (s *Server) ChangePasswordPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		sess := currentSession(r)
		data := AccountPageData{Required: s.services.Auth.PasswordChangeRequired(r.Context(), sess.User.ID)}

		form := decodeChangePasswordForm(r)
		if err := s.validate.Struct(form); err != nil {
			s.renderAdminFormError(w, r, formError(err), "", "Change password", "change_password.html", data)
			return
		}

		err := s.services.Auth.ChangePassword(r.Context(), sess.ID, form.CurrentPassword, form.NewPassword, form.ConfirmPassword)
		switch {
		case err == nil:
			redirectWithNotice(w, r, landingPath(sess), "Your password has been changed")
		case errorIsUserFacing(err):
			s.renderAdminFormError(w, r, err.Error(), "", "Change password", "change_password.html", data)
		default:
			log.Err(err).Msg("Password change failed")
			s.renderAdminFormError(w, r, "Password change failed, please try again", "", "Change password", "change_password.html", data)
		}
	}
}

// errorIsUserFacing reports whether err's message can be shown on a form as is
func errorIsUserFacing(err error) bool {
	switch {
	case siteerrors.Is(err, auth.ErrPasswordsDontMatch),
		siteerrors.Is(err, auth.ErrCurrentPasswordBad),
		siteerrors.Is(err, auth.ErrEmailRequired):
		return true
	}
	return strings.HasPrefix(err.Error(), "password must")
}
