package auth_test

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/nutrition-site/auth"
	"github.com/jrsteele09/nutrition-site/auth/resettoken"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/internal/mailer"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
	"github.com/jrsteele09/nutrition-site/users"
	fakeuserrepo "github.com/jrsteele09/nutrition-site/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "jo.client@example.com"
	testUserPassword = "Lentils4Life"
	testBaseURL      = "https://nourish.example.com"
)

// testFixture holds all test dependencies
type testFixture struct {
	now         time.Time
	userRepo    users.UserRepo
	sessionRepo *loginsession.InMemoryLoginSessionRepo
	mail        *mailer.Recorder
	tokens      *resettoken.Manager
	service     *auth.Service
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		now:         time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		sessionRepo: loginsession.NewInMemoryLoginSessionRepo(),
		mail:        &mailer.Recorder{},
	}
	clock := func() time.Time { return f.now }

	tokens, err := resettoken.New("secret", time.Hour, resettoken.WithNowTime(clock))
	require.NoError(t, err)
	f.tokens = tokens

	service, err := auth.NewService(
		auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo},
		tokens,
		f.mail,
		auth.WithNowTime(clock),
		auth.WithSessionAge(time.Hour),
		auth.WithBaseURL(testBaseURL+"/"),
	)
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *testFixture) createUser(t *testing.T, role users.RoleType, mutate ...func(*users.User)) *users.User {
	t.Helper()
	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	u := &users.User{Email: testUserEmail, Name: "Jo", PasswordHash: hash, Role: role}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, f.userRepo.Upsert(context.Background(), u))
	return u
}

func TestNewService_RequiresDependencies(t *testing.T) {
	tokens, err := resettoken.New("s", time.Hour)
	require.NoError(t, err)

	_, err = auth.NewService(auth.Repos{}, tokens, mailer.LogMailer{})
	require.Error(t, err)
	_, err = auth.NewService(auth.Repos{Users: fakeuserrepo.NewFakeUserRepo(), Sessions: loginsession.NewInMemoryLoginSessionRepo()}, nil, mailer.LogMailer{})
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.createUser(t, users.RoleAdmin)

		ls, err := f.service.Login(ctx, "  JO.client@example.com", testUserPassword)
		require.NoError(t, err)
		require.Equal(t, u.ID, ls.UserID)
		require.Equal(t, "admin", ls.Role)
		require.False(t, ls.JustSignedUp)
		require.Equal(t, f.now.Add(time.Hour), ls.ExpiresAt)

		stored, err := f.userRepo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, f.now, stored.LastLogin)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, users.RoleClient)
		_, err := f.service.Login(ctx, testUserEmail, "Wrong1234")
		require.ErrorIs(t, err, siteerrors.ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(ctx, "nobody@example.com", testUserPassword)
		require.ErrorIs(t, err, siteerrors.ErrInvalidCredentials)
	})

	t.Run("blocked", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, users.RoleClient, func(u *users.User) { u.Blocked = true })
		_, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.ErrorIs(t, err, siteerrors.ErrUserBlocked)
	})

	t.Run("missing fields", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.Login(ctx, "", "")
		require.ErrorIs(t, err, auth.ErrEmailRequired)
	})
}

func TestSignupAndResolve(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	ls, err := f.service.Signup(ctx, auth.SignupRequest{Name: " Sam ", Email: "Sam@Example.com", Password: testUserPassword})
	require.NoError(t, err)
	require.True(t, ls.JustSignedUp)
	require.Equal(t, "client", ls.Role)

	s, err := f.service.Resolve(ctx, ls.ID)
	require.NoError(t, err)
	require.True(t, s.IsLoggedIn)
	require.True(t, s.JustSignedUp)
	require.Equal(t, "sam@example.com", s.User.Email)
	require.Equal(t, "Sam", s.User.Name)
	require.False(t, s.IsAdmin())

	consumed, err := f.service.ConsumeSignupBypass(ctx, ls.ID)
	require.NoError(t, err)
	require.True(t, consumed)
	consumed, err = f.service.ConsumeSignupBypass(ctx, ls.ID)
	require.NoError(t, err)
	require.False(t, consumed)
	s, err = f.service.Resolve(ctx, ls.ID)
	require.NoError(t, err)
	require.False(t, s.JustSignedUp)

	t.Run("duplicate email", func(t *testing.T) {
		_, err := f.service.Signup(ctx, auth.SignupRequest{Email: "sam@example.com", Password: testUserPassword})
		require.ErrorIs(t, err, siteerrors.ErrUserExists)
	})

	t.Run("weak password", func(t *testing.T) {
		_, err := f.service.Signup(ctx, auth.SignupRequest{Email: "new@example.com", Password: "weak"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "at least 8 characters")
	})
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.createUser(t, users.RoleClient)

	s, err := f.service.Resolve(ctx, "")
	require.NoError(t, err)
	require.False(t, s.IsLoggedIn)

	s, err = f.service.Resolve(ctx, "unknown")
	require.NoError(t, err)
	require.False(t, s.IsLoggedIn)

	ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	s, err = f.service.Resolve(ctx, ls.ID)
	require.ErrorIs(t, err, siteerrors.ErrSessionExpired)
	require.False(t, s.IsLoggedIn)

	_, err = f.sessionRepo.Get(ctx, ls.ID)
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
}

func TestSignup_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		exists    atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.service.Signup(ctx, auth.SignupRequest{
				Name:     fmt.Sprintf("Dup %d", i),
				Email:    "dup@example.com",
				Password: testUserPassword,
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case siteerrors.Is(err, siteerrors.ErrUserExists):
				exists.Add(1)
			default:
				t.Errorf("unexpected signup error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), succeeded.Load())
	require.Equal(t, int32(attempts-1), exists.Load())
	count, err := f.userRepo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestConsumeSignupBypass_OnlyOneWinner(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	ls, err := f.service.Signup(ctx, auth.SignupRequest{Name: "Sam", Email: "sam@example.com", Password: testUserPassword})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumed, err := f.service.ConsumeSignupBypass(ctx, ls.ID)
			if err != nil {
				t.Errorf("consume bypass: %v", err)
				return
			}
			if consumed {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), winners.Load())

	_, err = f.service.ConsumeSignupBypass(ctx, "unknown")
	require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
}

func TestResolve_UsesCurrentUserRecord(t *testing.T) {
	ctx := context.Background()

	t.Run("promotion applies to a live session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, users.RoleClient)
		ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		s, err := f.service.Resolve(ctx, ls.ID)
		require.NoError(t, err)
		require.False(t, s.IsAdmin())

		_, err = f.service.EnsureAdmin(ctx, testUserEmail, "")
		require.NoError(t, err)

		s, err = f.service.Resolve(ctx, ls.ID)
		require.NoError(t, err)
		require.True(t, s.IsAdmin())
	})

	t.Run("blocked user is signed out", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.createUser(t, users.RoleAdmin)
		ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		u.Blocked = true
		require.NoError(t, f.userRepo.Upsert(ctx, u))

		s, err := f.service.Resolve(ctx, ls.ID)
		require.NoError(t, err)
		require.False(t, s.IsLoggedIn)
		_, err = f.sessionRepo.Get(ctx, ls.ID)
		require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
	})

	t.Run("deleted user is signed out", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, users.RoleClient)
		ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		require.NoError(t, f.userRepo.Delete(ctx, testUserEmail))

		s, err := f.service.Resolve(ctx, ls.ID)
		require.NoError(t, err)
		require.False(t, s.IsLoggedIn)
	})
}

func TestLogout(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	f.createUser(t, users.RoleClient)

	ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, ls.ID))
	require.NoError(t, f.service.Logout(ctx, ""))

	s, err := f.service.Resolve(ctx, ls.ID)
	require.NoError(t, err)
	require.False(t, s.IsLoggedIn)
}

func resetTokenFromMail(t *testing.T, msg mailer.Message) string {
	t.Helper()
	idx := strings.Index(msg.Body, testBaseURL+"/reset-password?token=")
	require.GreaterOrEqual(t, idx, 0, msg.Body)
	link := strings.Fields(msg.Body[idx:])[0]
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestForgotAndResetPassword(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	u := f.createUser(t, users.RoleClient)

	ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
	require.NoError(t, err)

	require.NoError(t, f.service.ForgotPassword(ctx, "nobody@example.com"))
	require.Empty(t, f.mail.Messages())

	require.NoError(t, f.service.ForgotPassword(ctx, testUserEmail))
	msgs := f.mail.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, testUserEmail, msgs[0].To)
	token := resetTokenFromMail(t, msgs[0])

	require.ErrorIs(t, f.service.ResetPassword(ctx, token, "Quinoa4Ever", "Quinoa4Evr"), auth.ErrPasswordsDontMatch)
	require.NoError(t, f.service.ResetPassword(ctx, token, "Quinoa4Ever", "Quinoa4Ever"))

	t.Run("token is single use", func(t *testing.T) {
		err := f.service.ResetPassword(ctx, token, "Barley4Ever", "Barley4Ever")
		require.ErrorIs(t, err, siteerrors.ErrInvalidToken)
	})

	t.Run("sessions signed out", func(t *testing.T) {
		s, err := f.service.Resolve(ctx, ls.ID)
		require.NoError(t, err)
		require.False(t, s.IsLoggedIn)
	})

	t.Run("new password works", func(t *testing.T) {
		_, err := f.service.Login(ctx, testUserEmail, "Quinoa4Ever")
		require.NoError(t, err)
		_, err = f.service.Login(ctx, testUserEmail, testUserPassword)
		require.ErrorIs(t, err, siteerrors.ErrInvalidCredentials)
		require.Equal(t, u.Email, testUserEmail)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()

	t.Run("requires current password", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, users.RoleClient)
		ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)

		err = f.service.ChangePassword(ctx, ls.ID, "wrong", "Quinoa4Ever", "Quinoa4Ever")
		require.ErrorIs(t, err, auth.ErrCurrentPasswordBad)

		require.NoError(t, f.service.ChangePassword(ctx, ls.ID, testUserPassword, "Quinoa4Ever", "Quinoa4Ever"))
		_, err = f.service.Login(ctx, testUserEmail, "Quinoa4Ever")
		require.NoError(t, err)
	})

	t.Run("forced change skips current password", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.createUser(t, users.RoleAdmin, func(u *users.User) { u.PasswordChangeRequired = true })
		ls, err := f.service.Login(ctx, testUserEmail, testUserPassword)
		require.NoError(t, err)
		require.True(t, f.service.PasswordChangeRequired(ctx, u.ID))

		require.NoError(t, f.service.ChangePassword(ctx, ls.ID, "", "Quinoa4Ever", "Quinoa4Ever"))
		require.False(t, f.service.PasswordChangeRequired(ctx, u.ID))
	})

	t.Run("unknown session", func(t *testing.T) {
		f := setupTestFixture(t)
		err := f.service.ChangePassword(ctx, "nope", "", "Quinoa4Ever", "Quinoa4Ever")
		require.ErrorIs(t, err, siteerrors.ErrSessionNotFound)
	})
}

func TestEnsureAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("creates with generated password", func(t *testing.T) {
		f := setupTestFixture(t)
		generated, err := f.service.EnsureAdmin(ctx, "Owner@Example.com", "")
		require.NoError(t, err)
		require.NoError(t, users.ValidatePasswordStrength(generated))

		u, err := f.userRepo.GetByEmail(ctx, "owner@example.com")
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, u.Role)
		require.True(t, u.PasswordChangeRequired)
		require.True(t, u.CheckPassword(generated))

		again, err := f.service.EnsureAdmin(ctx, "owner@example.com", "")
		require.NoError(t, err)
		require.Empty(t, again)
	})

	t.Run("promotes existing user", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.createUser(t, users.RoleClient)
		generated, err := f.service.EnsureAdmin(ctx, testUserEmail, "")
		require.NoError(t, err)
		require.Empty(t, generated)

		stored, err := f.userRepo.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, users.RoleAdmin, stored.Role)
		require.True(t, stored.CheckPassword(testUserPassword))
	})

	t.Run("rejects weak explicit password", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.EnsureAdmin(ctx, "owner@example.com", "weak")
		require.Error(t, err)
	})
}

func TestLoginExternal(t *testing.T) {
	ctx := context.Background()

	t.Run("existing user gets a session", func(t *testing.T) {
		f := setupTestFixture(t)
		u := f.createUser(t, users.RoleAdmin)

		ls, err := f.service.LoginExternal(ctx, "JO.client@example.com")
		require.NoError(t, err)
		require.Equal(t, u.ID, ls.UserID)
		require.Equal(t, "admin", ls.Role)
		require.False(t, ls.JustSignedUp)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.service.LoginExternal(ctx, "nobody@example.com")
		require.ErrorIs(t, err, siteerrors.ErrUserNotFound)
	})

	t.Run("blocked user", func(t *testing.T) {
		f := setupTestFixture(t)
		f.createUser(t, users.RoleAdmin, func(u *users.User) { u.Blocked = true })
		_, err := f.service.LoginExternal(ctx, testUserEmail)
		require.ErrorIs(t, err, siteerrors.ErrUserBlocked)
	})
}
