package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteHome     = "/"
	RouteServices = "/services"
	RouteGallery  = "/gallery"
	RouteContact  = "/contact"
	RoutePolicy   = "/policies/{name}"

	// Blog
	RouteBlog     = "/blog"
	RouteBlogPost = "/blog/{slug}"
	RouteBlogEdit = "/blog/{slug}/edit"
	RouteEditor   = "/editor"

	// Auth Routes
	RouteLogin          = "/login"
	RouteLogout         = "/logout"
	RouteSignup         = "/signup"
	RouteForgotPassword = "/forgot-password"
	RouteResetPassword  = "/reset-password"
	RouteChangePassword = "/change-password"

	// Staff single sign-on
	RouteSSOStart = "/auth/sso"
	RouteCallback = "/callback"

	// API Routes
	RouteAPIValidatePassword = "/api/validate-password"

	// Admin Routes
	RouteAdminDashboard     = "/dashboard"
	RouteAdminBookings      = "/dashboard/booking"
	RouteAdminBookingStatus = "/dashboard/booking/{id}/status"
	RouteAdminPlans         = "/dashboard/plans"
	RouteAdminPlanDelete    = "/dashboard/plans/{id}/delete"
	RouteAdminBlog          = "/dashboard/blog"
	RouteAdminBlogDelete    = "/dashboard/blog/{slug}/delete"

	// Static Asset Routes (patterns)
	RouteStatic = "/static/{file...}"
	RouteHealth = "/healthz"
)

// blogPostPath returns the public path of a post
func blogPostPath(slug string) string {
	return "/blog/" + slug
}

// blogEditPath returns the authoring path of a post
func blogEditPath(slug string) string {
	return "/blog/" + slug + "/edit"
}
