package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/nutrition-site/internal/config"
	"github.com/jrsteele09/nutrition-site/internal/logger"
	"github.com/jrsteele09/nutrition-site/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal().Err(err).Msg("Error running server")
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "nutrition-site",
		Short:         "Nutrition consulting site and admin area",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newCreateAdminCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func newCreateAdminCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an admin account, or promote an existing user to admin",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := contextOrBackground(cmd.Context())
			a, err := buildApp(ctx, c)
			if err != nil {
				return err
			}
			defer a.close()

			generated, err := a.services.Auth.EnsureAdmin(ctx, email, password)
			if err != nil {
				return fmt.Errorf("create admin: %w", err)
			}
			if generated != "" {
				fmt.Printf("Admin %s created with temporary password: %s\n", email, generated)
				return nil
			}
			fmt.Printf("Admin %s is ready\n", email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "admin email address")
	cmd.Flags().StringVar(&password, "password", "", "admin password (generated when empty)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func loadConfig() (config.Config, error) {
	c, err := config.New()
	if err != nil {
		return nil, err
	}
	logger.Init(c.GetLogLevel(), c.GetLogFormat())
	return c, nil
}

func serve(ctx context.Context) error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	ctx = contextOrBackground(ctx)
	displayAppname(c.GetAppName())

	a, err := buildApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.close()

	scheduler, err := a.scheduler(c.GetHousekeepingSchedule())
	if err != nil {
		return err
	}
	scheduler.Start()

	handler, err := server.New(ctx, c, a.services)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}

	srv := &http.Server{
		Addr:              c.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(srv) }()

	select {
	case err = <-errCh:
	case <-waitForStopSignal():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if stopErr := scheduler.Stop(shutdownCtx); stopErr != nil {
		log.Warn().Err(stopErr).Msg("housekeeping did not stop cleanly")
	}
	if shutdownErr := shutdown(shutdownCtx, srv); shutdownErr != nil && err == nil {
		err = shutdownErr
	}
	log.Info().Msg("Server stopped")
	return err
}

func listenAndServe(srv *http.Server) error {
	log.Info().Msgf("Server listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(ctx context.Context, srv *http.Server) error {
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
