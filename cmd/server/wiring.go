package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/nutrition-site/auth"
	"github.com/jrsteele09/nutrition-site/auth/resettoken"
	"github.com/jrsteele09/nutrition-site/bookings"
	fakebookingrepo "github.com/jrsteele09/nutrition-site/bookings/repofake"
	"github.com/jrsteele09/nutrition-site/content"
	"github.com/jrsteele09/nutrition-site/internal/config"
	"github.com/jrsteele09/nutrition-site/internal/housekeeping"
	"github.com/jrsteele09/nutrition-site/internal/mailer"
	"github.com/jrsteele09/nutrition-site/plans"
	fakeplanrepo "github.com/jrsteele09/nutrition-site/plans/repofake"
	"github.com/jrsteele09/nutrition-site/posts"
	fakepostrepo "github.com/jrsteele09/nutrition-site/posts/repofake"
	"github.com/jrsteele09/nutrition-site/server"
	"github.com/jrsteele09/nutrition-site/server/authflowrepo"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
	"github.com/jrsteele09/nutrition-site/sso"
	"github.com/jrsteele09/nutrition-site/storage/sqlite"
	"github.com/jrsteele09/nutrition-site/users"
	fakeuserrepo "github.com/jrsteele09/nutrition-site/users/repofake"
)

type repos struct {
	users    users.UserRepo
	sessions loginsession.Repo
	posts    posts.Repo
	plans    plans.Repo
	bookings bookings.Repo
}

// openRepos uses SQLite when DATABASE_PATH is set, otherwise in-memory repos
func openRepos(ctx context.Context, c config.Config) (repos, func(), error) {
	path := c.GetDatabasePath()
	if path == "" {
		log.Warn().Msg("DATABASE_PATH not set, data will be lost on restart")
		return repos{
			users:    fakeuserrepo.NewFakeUserRepo(),
			sessions: loginsession.NewInMemoryLoginSessionRepo(),
			posts:    fakepostrepo.NewFakePostRepo(),
			plans:    fakeplanrepo.NewFakePlanRepo(),
			bookings: fakebookingrepo.NewFakeBookingRepo(),
		}, func() {}, nil
	}

	store, err := sqlite.Open(ctx, path)
	if err != nil {
		return repos{}, nil, fmt.Errorf("open database %s: %w", path, err)
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}
	return repos{
		users:    store.Users(),
		sessions: store.Sessions(),
		posts:    store.Posts(),
		plans:    store.Plans(),
		bookings: store.Bookings(),
	}, closeFn, nil
}

func newMailer(c config.Config) mailer.Mailer {
	if c.GetSmtpAccount() == "" {
		return mailer.LogMailer{}
	}
	return mailer.NewSMTPMailer(c.GetSmtpHost(), c.GetSmtpPort(), c.GetSmtpAccount(), c.GetSmtpPassword())
}

// app holds the wired services plus what the process needs to run and stop them
type app struct {
	services server.Services
	sessions loginsession.Repo
	close    func()
}

func buildApp(ctx context.Context, c config.Config) (*app, error) {
	r, closeFn, err := openRepos(ctx, c)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*app, error) {
		closeFn()
		return nil, err
	}

	m := newMailer(c)
	tokens, err := resettoken.New(c.GetResetTokenSecret(), c.GetResetTokenExpiry())
	if err != nil {
		return fail(err)
	}
	authService, err := auth.NewService(
		auth.Repos{Users: r.users, Sessions: r.sessions},
		tokens,
		m,
		auth.WithSessionAge(c.GetMaxSessionAge()),
		auth.WithBaseURL(c.GetBaseURL()),
	)
	if err != nil {
		return fail(err)
	}

	site, err := content.Load(c.GetContentFile())
	if err != nil {
		return fail(fmt.Errorf("load site content: %w", err))
	}

	var bookingOpts []bookings.ServiceOption
	if to := c.GetSmtpRecipient(); to != "" {
		bookingOpts = append(bookingOpts, bookings.WithNotify(to))
	}

	services := server.Services{
		Auth:     authService,
		Users:    r.users,
		Posts:    posts.NewService(r.posts),
		Plans:    plans.NewService(r.plans),
		Bookings: bookings.NewService(r.bookings, m, bookingOpts...),
		Content:  site,
	}

	if c.SSOEnabled() {
		provider, err := sso.Discover(ctx,
			c.GetOIDCIssuer(),
			c.GetOIDCClientID(),
			c.GetOIDCClientSecret(),
			c.GetBaseURL()+server.RouteCallback,
			authflowrepo.NewInMemoryRepo(),
		)
		if err != nil {
			return fail(fmt.Errorf("discover sso provider: %w", err))
		}
		services.SSO = provider
	}

	return &app{services: services, sessions: r.sessions, close: closeFn}, nil
}

func (a *app) scheduler(schedule string) (*housekeeping.Scheduler, error) {
	tasks := []housekeeping.Task{{
		Name: "login-sessions",
		Run: func(ctx context.Context) (int, error) {
			return a.sessions.DeleteExpired(ctx, time.Now())
		},
	}}
	if a.services.SSO != nil {
		tasks = append(tasks, housekeeping.Task{Name: "sso-states", Run: a.services.SSO.Cleanup})
	}
	return housekeeping.New(schedule, log.Logger, tasks...)
}
