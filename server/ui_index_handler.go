package server

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/nutrition-site/bookings"
	"github.com/jrsteele09/nutrition-site/content"
	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/plans"
	"github.com/jrsteele09/nutrition-site/posts"
)

const homeRecentPosts = 3

type HomePageData struct {
	Site        *content.Site
	Plans       []*plans.Plan
	RecentPosts []*posts.Post
}

// IndexHandler renders the landing page
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := HomePageData{Site: s.services.Content}

		var err error
		if data.Plans, err = s.services.Plans.List(r.Context(), true); err != nil {
			log.Err(err).Msg("Failed to list plans for home page")
		}
		if data.RecentPosts, err = s.services.Posts.List(r.Context(), true, 0, homeRecentPosts); err != nil {
			log.Err(err).Msg("Failed to list posts for home page")
		}
		s.renderPublicPage(w, r, "home", "", "home.html", data)
	}
}

// ServicesHandler lists what the practice offers and the active plans
func (s *Server) ServicesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := HomePageData{Site: s.services.Content}
		var err error
		if data.Plans, err = s.services.Plans.List(r.Context(), true); err != nil {
			log.Err(err).Msg("Failed to list plans")
		}
		s.renderPublicPage(w, r, "services", "Services", "services.html", data)
	}
}

func (s *Server) GalleryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderPublicPage(w, r, "gallery", "Gallery", "gallery.html", HomePageData{Site: s.services.Content})
	}
}

// ContactPageData backs the contact and booking form
type ContactPageData struct {
	Site  *content.Site
	Plans []*plans.Plan
	Form  contactForm
	Sent  bool
}

// ContactGetHandler renders the booking form; ?plan= preselects a plan
func (s *Server) ContactGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := ContactPageData{
			Site: s.services.Content,
			Form: contactForm{PlanID: r.URL.Query().Get("plan")},
			Sent: r.URL.Query().Get("sent") == "true",
		}
		if sess := currentSession(r); sess.IsLoggedIn {
			data.Form.Name = sess.DisplayName()
			data.Form.Email = sess.User.Email
		}
		data.Plans = s.activePlans(r)
		s.renderPublicPage(w, r, "contact", "Contact", "contact.html", data)
	}
}

// ContactPostHandler records a booking request and notifies the practice
func (s *Server) ContactPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := decodeContactForm(r)
		data := ContactPageData{Site: s.services.Content, Form: form, Plans: s.activePlans(r)}
		if err := s.validate.Struct(form); err != nil {
			s.renderPublicFormError(w, r, formError(err), "contact", "Contact", "contact.html", data)
			return
		}
		if form.PlanID != "" {
			if _, err := s.services.Plans.Get(r.Context(), form.PlanID); err != nil {
				s.renderPublicFormError(w, r, "Please choose one of the listed plans", "contact", "Contact", "contact.html", data)
				return
			}
		}

		_, err := s.services.Bookings.Create(r.Context(), bookings.Request{
			Name:          form.Name,
			Email:         form.Email,
			Phone:         form.Phone,
			PlanID:        form.PlanID,
			PreferredDate: form.preferredDate(),
			Message:       form.Message,
		})
		if err != nil {
			if !siteerrors.Is(err, siteerrors.ErrInvalidRequest) {
				log.Err(err).Msg("Failed to record booking")
			}
			s.renderPublicFormError(w, r, userMessage(err, "We could not send your request, please try again"), "contact", "Contact", "contact.html", data)
			return
		}
		redirectSuccess(w, r, RouteContact+"?sent=true")
	}
}

func (s *Server) activePlans(r *http.Request) []*plans.Plan {
	list, err := s.services.Plans.List(r.Context(), true)
	if err != nil {
		log.Err(err).Msg("Failed to list plans")
	}
	return list
}

// PolicyHandler renders one of the policy documents; unknown names go home
func (s *Server) PolicyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policy, ok := s.services.Content.Policy(r.PathValue("name"))
		if !ok {
			redirectSuccess(w, r, RouteHome)
			return
		}
		s.renderPublicPage(w, r, "policy", policy.Title, "policy.html", policy)
	}
}

// userMessage returns the text of a validation failure, or fallback for anything else
func userMessage(err error, fallback string) string {
	for _, sentinel := range []error{
		siteerrors.ErrInvalidRequest,
		siteerrors.ErrInvalidDocument,
		siteerrors.ErrSlugTaken,
		siteerrors.ErrInvalidStatus,
	} {
		if !siteerrors.Is(err, sentinel) {
			continue
		}
		msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
		if msg == "" {
			msg = sentinel.Error()
		}
		return strings.ToUpper(msg[:1]) + msg[1:]
	}
	return fallback
}
