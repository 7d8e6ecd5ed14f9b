package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"
)

func (s *Server) initRoutes() {
	public := s.HTMLMiddleWare(s.LoadSession)
	guarded := s.HTMLMiddleWare(s.LoadSession, s.RequireGuard)
	adminData := s.HTMLMiddleWare(s.LoadSession, s.RequireGuard, s.RequireAdminData)

	// PUBLIC PAGES
	s.RegisterRouteHandler("GET "+RouteHome+"{$}", ChainMiddleware(s.IndexHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteServices, ChainMiddleware(s.ServicesHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteGallery, ChainMiddleware(s.GalleryHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteContact, ChainMiddleware(s.ContactGetHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteContact, ChainMiddleware(s.ContactPostHandler(), public...))
	s.RegisterRouteHandler("GET "+RoutePolicy, ChainMiddleware(s.PolicyHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteBlog, ChainMiddleware(s.BlogListHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteBlogPost, ChainMiddleware(s.BlogDocumentHandler(true), public...))

	// LOGIN
	s.RegisterRouteHandler("GET "+RouteLogin, ChainMiddleware(s.LoginPageUIHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteLogin, ChainMiddleware(s.LoginSubmissionHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteSignup, ChainMiddleware(s.SignupGetHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteSignup, ChainMiddleware(s.SignupPostHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordGetHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteForgotPassword, ChainMiddleware(s.ForgotPasswordPostHandler(), public...))
	s.RegisterRouteHandler("GET "+RouteResetPassword, ChainMiddleware(s.ResetPasswordGetHandler(), public...))
	s.RegisterRouteHandler("POST "+RouteResetPassword, ChainMiddleware(s.ResetPasswordPostHandler(), public...))
	if s.services.SSO != nil {
		s.RegisterRouteHandler("GET "+RouteSSOStart, ChainMiddleware(s.SSOStartHandler(), public...))
		s.RegisterRouteHandler("GET "+RouteCallback, ChainMiddleware(s.OAuthCallbackHandler(), public...))
	}

	// API routes
	s.RegisterRouteHandler("POST "+RouteAPIValidatePassword, ChainMiddleware(s.ValidatePasswordHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())

	// ADMIN LAYOUT (guarded)
	s.RegisterRouteHandler("GET "+RouteChangePassword, ChainMiddleware(s.ChangePasswordGetHandler(), guarded...))
	s.RegisterRouteHandler("POST "+RouteChangePassword, ChainMiddleware(s.ChangePasswordPostHandler(), guarded...))
	s.RegisterRouteHandler("GET "+RouteAdminDashboard, ChainMiddleware(s.AdminDashboardHandler(), guarded...))
	s.RegisterRouteHandler("GET "+RouteAdminBookings, ChainMiddleware(s.AdminBookingsHandler(), adminData...))
	s.RegisterRouteHandler("POST "+RouteAdminBookingStatus, ChainMiddleware(s.AdminBookingStatusHandler(), adminData...))
	s.RegisterRouteHandler("GET "+RouteAdminPlans, ChainMiddleware(s.AdminPlansHandler(), adminData...))
	s.RegisterRouteHandler("POST "+RouteAdminPlans, ChainMiddleware(s.AdminPlanSaveHandler(), adminData...))
	s.RegisterRouteHandler("POST "+RouteAdminPlanDelete, ChainMiddleware(s.AdminPlanDeleteHandler(), adminData...))
	s.RegisterRouteHandler("GET "+RouteAdminBlog, ChainMiddleware(s.AdminBlogHandler(), adminData...))
	s.RegisterRouteHandler("POST "+RouteAdminBlogDelete, ChainMiddleware(s.AdminBlogDeleteHandler(), adminData...))
	s.RegisterRouteHandler("GET "+RouteEditor, ChainMiddleware(s.EditorHandler(), adminData...))
	s.RegisterRouteHandler("POST "+RouteEditor, ChainMiddleware(s.EditorSaveHandler(), adminData...))
	s.RegisterRouteHandler("GET "+RouteBlogEdit, ChainMiddleware(s.BlogDocumentHandler(false), adminData...))
	s.RegisterRouteHandler("POST "+RouteBlogEdit, ChainMiddleware(s.BlogUpdateHandler(), adminData...))

	s.RegisterRouteHandler("GET "+RouteStatic, ChainMiddleware(s.serveFileHandler(), s.StaticMiddleware()...))

	// Anything else goes home
	s.RegisterRouteHandler("/", ChainMiddleware(s.CatchAllHandler(), s.HTMLMiddleWare()...))
}

func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(r.PathValue("file"), "/")
		if filePath == "" {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		err := StreamFile(w, r, filePath)
		if err != nil {
			logError("GET", filePath, err.Error())
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

// CatchAllHandler sends unknown paths to the home page
func (s *Server) CatchAllHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirectSuccess(w, r, RouteHome)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "ok")
	}
}

func logError(method, path, error string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	log.Printf("[%-19s] %s %s", colourFor(method)+paddedMethod+ResetColor, path, Red+error+ResetColor)
}
