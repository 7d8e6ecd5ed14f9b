package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/nutrition-site/auth"
	"github.com/jrsteele09/nutrition-site/bookings"
	"github.com/jrsteele09/nutrition-site/content"
	"github.com/jrsteele09/nutrition-site/guard"
	"github.com/jrsteele09/nutrition-site/internal/config"
	"github.com/jrsteele09/nutrition-site/plans"
	"github.com/jrsteele09/nutrition-site/posts"
	"github.com/jrsteele09/nutrition-site/session"
	"github.com/jrsteele09/nutrition-site/sso"
	"github.com/jrsteele09/nutrition-site/users"
)

// Services are the domain services the handlers call
type Services struct {
	Auth     *auth.Service
	Users    users.UserRepo
	Posts    *posts.Service
	Plans    *plans.Service
	Bookings *bookings.Service
	Content  *content.Site
	SSO      *sso.Provider // nil when single sign-on is not configured
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	services Services
	sessions session.Provider
	guard    *guard.Guard
	validate *validator.Validate
}

func New(ctx context.Context, cfg config.Config, services Services) (*Server, error) {
	if services.Auth == nil || services.Posts == nil || services.Plans == nil || services.Bookings == nil || services.Content == nil {
		return nil, fmt.Errorf("[Server New] auth, posts, plans, bookings and content services are required")
	}

	s := &Server{
		env:      cfg.GetEnv(),
		mux:      http.NewServeMux(),
		config:   cfg,
		services: services,
		guard:    guard.New(guard.WithSignupBypass(cfg.GetSignupBypass())),
		validate: newValidator(),
	}
	s.sessions = cookieSessionProvider{auth: services.Auth}

	if err := s.InitialiseSystem(ctx); err != nil {
		return nil, fmt.Errorf("[Server New] Failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// Routes lists registered patterns in registration order
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	log.Printf("[%-19s] %s", colourFor(method)+paddedMethod+ResetColor, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
