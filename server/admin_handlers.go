package server

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/nutrition-site/bookings"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/plans"
)

// AdminBookingStatusHandler confirms or cancels a pending booking
func (s *Server) AdminBookingStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		back := RouteAdminBookings
		if filter := r.FormValue("filter"); filter != "" {
			back = withQuery(back, "status", filter)
		}

		form := bookingStatusForm{Status: r.FormValue("status")}
		if err := s.validate.Struct(form); err != nil {
			redirectWithError(w, r, back, formError(err))
			return
		}

		b, err := s.services.Bookings.SetStatus(r.Context(), r.PathValue("id"), bookings.Status(form.Status))
		switch {
		case err == nil:
			log.Info().Str("booking", b.ID).Str("status", string(b.Status)).Msg("Booking status changed")
			redirectWithNotice(w, r, back, "Booking for "+b.Name+" is now "+string(b.Status))
		case siteerrors.Is(err, siteerrors.ErrNotFound):
			redirectWithError(w, r, back, "That booking could not be found")
		case siteerrors.Is(err, siteerrors.ErrInvalidStatus):
			redirectWithError(w, r, back, "Only pending bookings can be confirmed or cancelled")
		default:
			log.Err(err).Msg("Failed to update booking")
			redirectWithError(w, r, back, "The booking could not be updated")
		}
	}
}

// AdminPlanSaveHandler creates or updates a plan
func (s *Server) AdminPlanSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := decodePlanForm(r)
		renderError := func(msg string) {
			list, _ := s.services.Plans.List(r.Context(), false)
			s.renderAdminFormError(w, r, msg, "plans", "Plans", "admin_plans.html", PlansPageData{Plans: list, Form: form})
		}

		if err := s.validate.Struct(form); err != nil {
			renderError(formError(err))
			return
		}
		price, err := parsePrice(form.Price)
		if err != nil {
			renderError("Price must look like 49.50")
			return
		}

		p, err := s.services.Plans.Save(r.Context(), plans.Plan{
			ID:            form.ID,
			Name:          form.Name,
			Summary:       form.Summary,
			PriceCents:    price,
			DurationWeeks: atoiOrZero(form.DurationWeeks),
			Features:      plans.ParseFeatures(form.Features),
			Active:        form.Active,
			SortOrder:     atoiOrZero(form.SortOrder),
		})
		if err != nil {
			if siteerrors.Is(err, siteerrors.ErrNotFound) {
				redirectWithError(w, r, RouteAdminPlans, "That plan could not be found")
				return
			}
			if !siteerrors.Is(err, siteerrors.ErrInvalidRequest) {
				log.Err(err).Msg("Failed to save plan")
			}
			renderError(userMessage(err, "The plan could not be saved"))
			return
		}
		redirectWithNotice(w, r, RouteAdminPlans, p.Name+" saved")
	}
}

func (s *Server) AdminPlanDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.services.Plans.Delete(r.Context(), r.PathValue("id")); err != nil {
			if !siteerrors.Is(err, siteerrors.ErrNotFound) {
				log.Err(err).Msg("Failed to delete plan")
			}
			redirectWithError(w, r, RouteAdminPlans, "The plan could not be deleted")
			return
		}
		redirectWithNotice(w, r, RouteAdminPlans, "Plan deleted")
	}
}

func (s *Server) AdminBlogDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slug := r.PathValue("slug")
		if err := s.services.Posts.Delete(r.Context(), slug); err != nil {
			if !siteerrors.Is(err, siteerrors.ErrNotFound) {
				log.Err(err).Str("slug", slug).Msg("Failed to delete post")
			}
			redirectWithError(w, r, RouteAdminBlog, "The post could not be deleted")
			return
		}
		log.Info().Str("slug", slug).Msg("Post deleted")
		redirectWithNotice(w, r, RouteAdminBlog, "Post deleted")
	}
}
