package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jrsteele09/nutrition-site/internal/utils"
	"github.com/jrsteele09/nutrition-site/posts"
	"github.com/jrsteele09/nutrition-site/users"
)

const dateLayout = "2006-01-02"

func newValidator() *validator.Validate {
	validate := validator.New()
	validate.RegisterValidation("strongpassword", func(fl validator.FieldLevel) bool {
		return users.ValidatePasswordStrength(fl.Field().String()) == nil
	})
	validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return posts.ValidSlug(fl.Field().String())
	})
	validate.RegisterValidation("price", func(fl validator.FieldLevel) bool {
		_, err := parsePrice(fl.Field().String())
		return err == nil
	})
	return validate
}

type loginForm struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	Next     string
}

type signupForm struct {
	Name            string `validate:"required,max=100"`
	Email           string `validate:"required,email"`
	Password        string `validate:"required,strongpassword"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

type forgotPasswordForm struct {
	Email string `validate:"required,email"`
}

type resetPasswordForm struct {
	Token           string `validate:"required"`
	NewPassword     string `validate:"required,strongpassword"`
	ConfirmPassword string `validate:"required,eqfield=NewPassword"`
}

type changePasswordForm struct {
	CurrentPassword string
	NewPassword     string `validate:"required,strongpassword"`
	ConfirmPassword string `validate:"required,eqfield=NewPassword"`
}

type contactForm struct {
	Name          string `validate:"required,max=120"`
	Email         string `validate:"required,email"`
	Phone         string `validate:"omitempty,max=40"`
	PlanID        string `validate:"omitempty,max=64"`
	PreferredDate string `validate:"omitempty,datetime=2006-01-02"`
	Message       string `validate:"max=4000"`
}

type planForm struct {
	ID            string
	Name          string `validate:"required,max=120"`
	Summary       string `validate:"max=500"`
	Price         string `validate:"omitempty,price"`
	DurationWeeks string `validate:"omitempty,number"`
	Features      string `validate:"max=4000"`
	SortOrder     string `validate:"omitempty,number"`
	Active        bool
}

type bookingStatusForm struct {
	Status string `validate:"required,oneof=pending confirmed cancelled"`
}

type postForm struct {
	Title      string `validate:"required,max=200"`
	Slug       string `validate:"omitempty,slug"`
	Excerpt    string `validate:"max=500"`
	CoverImage string `validate:"omitempty,max=500"`
	Document   string `validate:"required"`
	Published  bool
}

func decodeLoginForm(r *http.Request) loginForm {
	return loginForm{
		Email:    strings.TrimSpace(r.FormValue("email")),
		Password: r.FormValue("password"),
		Next:     r.FormValue("next"),
	}
}

func decodeSignupForm(r *http.Request) signupForm {
	return signupForm{
		Name:            strings.TrimSpace(r.FormValue("name")),
		Email:           strings.TrimSpace(r.FormValue("email")),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
}

func decodeResetPasswordForm(r *http.Request) resetPasswordForm {
	return resetPasswordForm{
		Token:           r.FormValue("token"),
		NewPassword:     r.FormValue("new_password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
}

func decodeChangePasswordForm(r *http.Request) changePasswordForm {
	return changePasswordForm{
		CurrentPassword: r.FormValue("current_password"),
		NewPassword:     r.FormValue("new_password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
}

func decodeContactForm(r *http.Request) contactForm {
	return contactForm{
		Name:          strings.TrimSpace(r.FormValue("name")),
		Email:         strings.TrimSpace(r.FormValue("email")),
		Phone:         strings.TrimSpace(r.FormValue("phone")),
		PlanID:        strings.TrimSpace(r.FormValue("plan_id")),
		PreferredDate: strings.TrimSpace(r.FormValue("preferred_date")),
		Message:       strings.TrimSpace(r.FormValue("message")),
	}
}

func decodePlanForm(r *http.Request) planForm {
	return planForm{
		ID:            r.FormValue("id"),
		Name:          strings.TrimSpace(r.FormValue("name")),
		Summary:       strings.TrimSpace(r.FormValue("summary")),
		Price:         strings.TrimSpace(r.FormValue("price")),
		DurationWeeks: strings.TrimSpace(r.FormValue("duration_weeks")),
		Features:      r.FormValue("features"),
		SortOrder:     strings.TrimSpace(r.FormValue("sort_order")),
		Active:        r.FormValue("active") != "",
	}
}

func decodePostForm(r *http.Request) postForm {
	return postForm{
		Title:      strings.TrimSpace(r.FormValue("title")),
		Slug:       strings.TrimSpace(r.FormValue("slug")),
		Excerpt:    strings.TrimSpace(r.FormValue("excerpt")),
		CoverImage: strings.TrimSpace(r.FormValue("cover_image")),
		Document:   r.FormValue("document"),
		Published:  r.FormValue("published") != "",
	}
}

// preferredDate parses the optional date on the contact form
func (f contactForm) preferredDate() *time.Time {
	if f.PreferredDate == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, f.PreferredDate)
	if err != nil {
		return nil
	}
	return utils.Ptr(t)
}

// draft converts the editor form into a post draft
func (f postForm) draft() (posts.Draft, error) {
	doc, err := posts.ParseDocument([]byte(f.Document))
	if err != nil {
		return posts.Draft{}, err
	}
	return posts.Draft{
		Title:      f.Title,
		Slug:       f.Slug,
		Excerpt:    f.Excerpt,
		CoverImage: f.CoverImage,
		Document:   doc,
		Published:  f.Published,
	}, nil
}

// parsePrice turns "49.50" or "£120" into pence
func parsePrice(s string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "£")
	if s == "" {
		return 0, nil
	}
	whole, frac, hasFrac := strings.Cut(s, ".")
	pounds, err := strconv.Atoi(whole)
	if err != nil || pounds < 0 {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	pence := 0
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid price %q", s)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		if pence, err = strconv.Atoi(frac); err != nil || pence < 0 {
			return 0, fmt.Errorf("invalid price %q", s)
		}
	}
	return pounds*100 + pence, nil
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

var fieldLabels = map[string]string{
	"ConfirmPassword": "Password confirmation",
	"CurrentPassword": "Current password",
	"NewPassword":     "New password",
	"PreferredDate":   "Preferred date",
	"DurationWeeks":   "Duration",
	"SortOrder":       "Sort order",
	"CoverImage":      "Cover image",
	"PlanID":          "Plan",
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// formError turns a validation failure into a message for the page banner
func formError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "Please check the form and try again"
	}
	fe := verrs[0]
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "eqfield":
		return "Passwords do not match"
	case "strongpassword":
		if perr := users.ValidatePasswordStrength(fmt.Sprint(fe.Value())); perr != nil {
			return perr.Error()
		}
		return "Password is too weak"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", label, fe.Param())
	case "datetime":
		return label + " must be a date"
	case "slug":
		return "Slug may only contain lower case letters, digits and dashes"
	case "price":
		return "Price must look like 49.50"
	case "number":
		return label + " must be a whole number"
	case "oneof":
		return label + " must be one of " + fe.Param()
	}
	return label + " is invalid"
}
