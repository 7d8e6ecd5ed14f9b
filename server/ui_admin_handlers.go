package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/nutrition-site/bookings"
	"github.com/jrsteele09/nutrition-site/plans"
	"github.com/jrsteele09/nutrition-site/posts"
)

const (
	dashboardListSize = 5
	adminPageSize     = 25
)

// DashboardPageData backs both views of the dashboard
type DashboardPageData struct {
	Welcome         bool // non-admin let in straight after signing up
	PendingBookings []*bookings.Booking
	RecentPosts     []*posts.Post
	ActivePlans     int
	UserCount       int
}

// AdminDashboardHandler renders the admin dashboard, or a welcome page for a new client
func (s *Server) AdminDashboardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !currentSession(r).IsAdmin() {
			s.renderAdminPage(w, r, "dashboard", "Welcome", "admin_dashboard.html", DashboardPageData{Welcome: true})
			return
		}

		ctx := r.Context()
		var data DashboardPageData
		var err error
		if data.PendingBookings, err = s.services.Bookings.List(ctx, bookings.StatusPending, 0, dashboardListSize); err != nil {
			log.Err(err).Msg("Failed to list pending bookings")
		}
		if data.RecentPosts, err = s.services.Posts.List(ctx, false, 0, dashboardListSize); err != nil {
			log.Err(err).Msg("Failed to list posts")
		}
		if active, err := s.services.Plans.List(ctx, true); err != nil {
			log.Err(err).Msg("Failed to list plans")
		} else {
			data.ActivePlans = len(active)
		}
		if s.services.Users != nil {
			if data.UserCount, err = s.services.Users.Count(ctx); err != nil {
				log.Err(err).Msg("Failed to count users")
			}
		}
		s.renderAdminPage(w, r, "dashboard", "Dashboard", "admin_dashboard.html", data)
	}
}

type BookingsPageData struct {
	Bookings []*bookings.Booking
	Plans    map[string]string // plan id to name
	Status   string
	Statuses []bookings.Status
	Page     int
	PrevPage int
	NextPage int
}

// AdminBookingsHandler lists bookings, optionally filtered by ?status=
func (s *Server) AdminBookingsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := bookings.Status(r.URL.Query().Get("status"))
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}

		list, err := s.services.Bookings.List(r.Context(), status, (page-1)*adminPageSize, adminPageSize+1)
		if err != nil {
			redirectWithError(w, r, RouteAdminBookings, userMessage(err, "Failed to load bookings"))
			return
		}

		data := BookingsPageData{
			Status:   string(status),
			Statuses: []bookings.Status{bookings.StatusPending, bookings.StatusConfirmed, bookings.StatusCancelled},
			Plans:    map[string]string{},
			Page:     page,
			PrevPage: page - 1,
		}
		if len(list) > adminPageSize {
			list = list[:adminPageSize]
			data.NextPage = page + 1
		}
		data.Bookings = list

		if all, err := s.services.Plans.List(r.Context(), false); err == nil {
			for _, p := range all {
				data.Plans[p.ID] = p.Name
			}
		}
		s.renderAdminPage(w, r, "bookings", "Bookings", "admin_bookings.html", data)
	}
}

type PlansPageData struct {
	Plans []*plans.Plan
	Edit  *plans.Plan // plan loaded into the form, nil for a new one
	Form  planForm
}

func planFormFor(p *plans.Plan) planForm {
	f := planForm{
		ID:            p.ID,
		Name:          p.Name,
		Summary:       p.Summary,
		DurationWeeks: strconv.Itoa(p.DurationWeeks),
		Features:      strings.Join(p.Features, "\n"),
		SortOrder:     strconv.Itoa(p.SortOrder),
		Active:        p.Active,
	}
	if p.PriceCents > 0 {
		f.Price = fmt.Sprintf("%d.%02d", p.PriceCents/100, p.PriceCents%100)
	}
	return f
}

// AdminPlansHandler lists plans; ?edit=<id> loads one into the form
func (s *Server) AdminPlansHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.services.Plans.List(r.Context(), false)
		if err != nil {
			log.Err(err).Msg("Failed to list plans")
			http.Error(w, "Failed to load plans", http.StatusInternalServerError)
			return
		}

		data := PlansPageData{Plans: list, Form: planForm{Active: true}}
		if id := r.URL.Query().Get("edit"); id != "" {
			p, err := s.services.Plans.Get(r.Context(), id)
			if err != nil {
				redirectWithError(w, r, RouteAdminPlans, "That plan could not be found")
				return
			}
			data.Edit = p
			data.Form = planFormFor(p)
		}
		s.renderAdminPage(w, r, "plans", "Plans", "admin_plans.html", data)
	}
}

type AdminBlogPageData struct {
	Posts    []*posts.Post
	Page     int
	PrevPage int
	NextPage int
}

// AdminBlogHandler lists every post, drafts included
func (s *Server) AdminBlogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		list, err := s.services.Posts.List(r.Context(), false, (page-1)*adminPageSize, adminPageSize+1)
		if err != nil {
			log.Err(err).Msg("Failed to list posts")
			http.Error(w, "Failed to load posts", http.StatusInternalServerError)
			return
		}
		data := AdminBlogPageData{Page: page, PrevPage: page - 1}
		if len(list) > adminPageSize {
			list = list[:adminPageSize]
			data.NextPage = page + 1
		}
		data.Posts = list
		s.renderAdminPage(w, r, "blog", "Blog", "admin_blog.html", data)
	}
}
