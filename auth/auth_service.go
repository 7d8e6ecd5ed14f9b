package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/nutrition-site/auth/resettoken"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/internal/mailer"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
	"github.com/jrsteele09/nutrition-site/session"
	"github.com/jrsteele09/nutrition-site/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultSessionAge = 24 * time.Hour
	sessionIDLength   = 32
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.UserRepo    // Repository for user data
	Sessions loginsession.Repo // Repository for login sessions
}

// Service runs the sign in, sign up and password flows
type Service struct {
	repos      Repos
	tokens     *resettoken.Manager
	mailer     mailer.Mailer
	sessionAge time.Duration
	baseURL    string
	nowTime    func() time.Time // injectable for testing
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithSessionAge sets how long a login session lasts
func WithSessionAge(age time.Duration) ServiceOption {
	return func(s *Service) {
		if age > 0 {
			s.sessionAge = age
		}
	}
}

// WithBaseURL sets the site URL used in emailed links
func WithBaseURL(baseURL string) ServiceOption {
	return func(s *Service) {
		s.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, tokens *resettoken.Manager, m mailer.Mailer, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.Sessions == nil {
		return nil, errors.New("[NewService] Sessions repo is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewService] reset token manager is required")
	}
	if m == nil {
		return nil, errors.New("[NewService] mailer is required")
	}

	s := &Service{
		repos:      repos,
		tokens:     tokens,
		mailer:     m,
		sessionAge: defaultSessionAge,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login checks credentials and starts a login session
func (s *Service) Login(ctx context.Context, email, password string) (loginsession.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return loginsession.Session{}, ErrEmailRequired
	}

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if siteerrors.Is(err, siteerrors.ErrUserNotFound) {
			return loginsession.Session{}, siteerrors.ErrInvalidCredentials
		}
		return loginsession.Session{}, errors.Wrap(err, "[Login] get user")
	}
	if !user.CheckPassword(password) {
		return loginsession.Session{}, siteerrors.ErrInvalidCredentials
	}
	if user.Blocked {
		return loginsession.Session{}, siteerrors.ErrUserBlocked
	}

	user.LastLogin = s.nowTime()
	if err := s.repos.Users.Upsert(ctx, user); err != nil {
		return loginsession.Session{}, errors.Wrap(err, "[Login] update last login")
	}

	return s.StartSession(ctx, user, false)
}

// LoginExternal starts a session for an identity already verified by the single
// sign-on provider. Only existing accounts may sign in this way.
func (s *Service) LoginExternal(ctx context.Context, email string) (loginsession.Session, error) {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		return loginsession.Session{}, err
	}
	if user.Blocked {
		return loginsession.Session{}, siteerrors.ErrUserBlocked
	}
	user.LastLogin = s.nowTime()
	if err := s.repos.Users.Upsert(ctx, user); err != nil {
		return loginsession.Session{}, errors.Wrap(err, "[LoginExternal] update last login")
	}
	return s.StartSession(ctx, user, false)
}

// SignupRequest is the data collected by the sign up form
type SignupRequest struct {
	Name     string
	Email    string
	Password string
}

// Signup creates a client account and a session flagged as just signed up
func (s *Service) Signup(ctx context.Context, req SignupRequest) (loginsession.Session, error) {
	email := users.NormaliseEmail(req.Email)
	if email == "" || req.Password == "" {
		return loginsession.Session{}, ErrEmailRequired
	}
	if err := users.ValidatePasswordStrength(req.Password); err != nil {
		return loginsession.Session{}, err
	}

	if _, err := s.repos.Users.GetByEmail(ctx, email); err == nil {
		return loginsession.Session{}, siteerrors.ErrUserExists
	} else if !siteerrors.Is(err, siteerrors.ErrUserNotFound) {
		return loginsession.Session{}, errors.Wrap(err, "[Signup] lookup user")
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return loginsession.Session{}, errors.Wrap(err, "[Signup] hash password")
	}
	now := s.nowTime()
	user := &users.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         users.RoleClient,
		DateJoined:   now,
		LastLogin:    now,
	}
	if err := s.repos.Users.Upsert(ctx, user); err != nil {
		// Lost a race with another signup for the same email
		if siteerrors.Is(err, siteerrors.ErrUserExists) {
			return loginsession.Session{}, siteerrors.ErrUserExists
		}
		return loginsession.Session{}, errors.Wrap(err, "[Signup] create user")
	}
	log.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User signed up")

	return s.StartSession(ctx, user, true)
}

// StartSession creates a login session for an already authenticated user
func (s *Service) StartSession(ctx context.Context, user *users.User, justSignedUp bool) (loginsession.Session, error) {
	id, err := generateSessionID()
	if err != nil {
		return loginsession.Session{}, errors.Wrap(err, "[StartSession] generate id")
	}
	now := s.nowTime()
	ls := loginsession.Session{
		ID:           id,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(user.Role),
		JustSignedUp: justSignedUp,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.sessionAge),
	}
	if err := s.repos.Sessions.Upsert(ctx, ls); err != nil {
		return loginsession.Session{}, errors.Wrap(err, "[StartSession] store session")
	}
	return ls, nil
}

// SessionAge is how long new sessions last
func (s *Service) SessionAge() time.Duration {
	return s.sessionAge
}

// Logout ends a login session. Unknown sessions are not an error.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.repos.Sessions.Delete(ctx, sessionID)
}

// Resolve turns a session id into the Session seen by the rest of the site.
// Missing or expired sessions, and sessions of removed or blocked users, resolve
// to an anonymous session.
func (s *Service) Resolve(ctx context.Context, sessionID string) (session.Session, error) {
	if sessionID == "" {
		return session.Anonymous(), nil
	}
	ls, err := s.repos.Sessions.Get(ctx, sessionID)
	if err != nil {
		if siteerrors.Is(err, siteerrors.ErrSessionNotFound) {
			return session.Anonymous(), nil
		}
		return session.Anonymous(), errors.Wrap(err, "[Resolve] get session")
	}
	if ls.Expired(s.nowTime()) {
		if err := s.repos.Sessions.Delete(ctx, sessionID); err != nil {
			log.Warn().Err(err).Msg("Failed to delete expired session")
		}
		return session.Anonymous(), siteerrors.ErrSessionExpired
	}

	// Role and status come from the user record so changes apply to live sessions
	user, err := s.repos.Users.GetByID(ctx, ls.UserID)
	switch {
	case siteerrors.Is(err, siteerrors.ErrUserNotFound), err == nil && user.Blocked:
		if err := s.repos.Sessions.DeleteForUser(ctx, ls.UserID); err != nil {
			log.Warn().Err(err).Msg("Failed to delete sessions of removed or blocked user")
		}
		return session.Anonymous(), nil
	case err != nil:
		return session.Anonymous(), errors.Wrap(err, "[Resolve] get user")
	}

	return session.Session{
		ID:         ls.ID,
		IsLoggedIn: true,
		User: &session.User{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  string(user.Role),
		},
		JustSignedUp: ls.JustSignedUp,
	}, nil
}

// ConsumeSignupBypass clears the just-signed-up flag so the bypass is used once.
// It reports whether this call consumed it; concurrent callers get false.
func (s *Service) ConsumeSignupBypass(ctx context.Context, sessionID string) (bool, error) {
	consumed, err := s.repos.Sessions.ClearJustSignedUp(ctx, sessionID)
	if err != nil {
		return false, errors.Wrap(err, "[ConsumeSignupBypass] clear flag")
	}
	return consumed, nil
}

// ForgotPassword emails a reset link. Unknown addresses succeed silently so the
// form cannot be used to discover accounts.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if siteerrors.Is(err, siteerrors.ErrUserNotFound) {
			log.Debug().Str("email", email).Msg("Password reset requested for unknown email")
			return nil
		}
		return errors.Wrap(err, "[ForgotPassword] get user")
	}
	if user.Blocked {
		return nil
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return errors.Wrap(err, "[ForgotPassword] issue token")
	}
	link := fmt.Sprintf("%s/reset-password?token=%s", s.baseURL, token)
	msg := mailer.Message{
		To:      user.Email,
		Subject: "Reset your password",
		Body:    "Use the link below to choose a new password. It expires soon and works once.\n\n" + link + "\n",
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return errors.Wrap(err, "[ForgotPassword] send email")
	}
	return nil
}

// ResetPassword sets a new password using an emailed token and signs out every session
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordsDontMatch
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	user, err := s.repos.Users.GetByID(ctx, claims.Subject)
	if err != nil {
		return siteerrors.ErrInvalidToken
	}
	if _, err := s.tokens.Verify(token, user); err != nil {
		return err
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	return s.repos.Sessions.DeleteForUser(ctx, user.ID)
}

// ChangePassword updates the password of the signed in user. The current password is
// not asked for when a change was forced (first login with a generated password).
func (s *Service) ChangePassword(ctx context.Context, sessionID, currentPassword, newPassword, confirmPassword string) error {
	ls, err := s.repos.Sessions.Get(ctx, sessionID)
	if err != nil {
		return siteerrors.ErrSessionNotFound
	}
	user, err := s.repos.Users.GetByID(ctx, ls.UserID)
	if err != nil {
		return ErrSessionUserNotFound
	}
	if newPassword == "" || confirmPassword == "" {
		return siteerrors.ErrInvalidRequest
	}
	if newPassword != confirmPassword {
		return ErrPasswordsDontMatch
	}
	if !user.PasswordChangeRequired && !user.CheckPassword(currentPassword) {
		return ErrCurrentPasswordBad
	}
	if err := users.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	return s.setPassword(ctx, user, newPassword)
}

// PasswordChangeRequired reports whether the session's user must change password
func (s *Service) PasswordChangeRequired(ctx context.Context, userID string) bool {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return false
	}
	return user.PasswordChangeRequired
}

func (s *Service) setPassword(ctx context.Context, user *users.User, password string) error {
	hash, err := users.HashPassword(password)
	if err != nil {
		return errors.Wrap(err, "[setPassword] hash password")
	}
	user.PasswordHash = hash
	user.PasswordChangeRequired = false
	if err := s.repos.Users.Upsert(ctx, user); err != nil {
		return errors.Wrap(err, "[setPassword] update user")
	}
	return nil
}

func generateSessionID() (string, error) {
	b := make([]byte, sessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
