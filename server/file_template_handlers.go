package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jrsteele09/nutrition-site/internal/utils"
	"github.com/jrsteele09/nutrition-site/session"
)

//go:embed templates/*
var templateFiles embed.FS

const contentTypeHTML = "text/html; charset=utf-8"

func TemplateFilesFS() fs.FS {
	// Create the sub filesystem once
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

var templateFuncs = template.FuncMap{
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2 Jan 2006")
	},
	"datePtr": func(p *time.Time) string {
		if t := utils.Value(p); !t.IsZero() {
			return t.Format("2 Jan 2006")
		}
		return ""
	},
	"join":  strings.Join,
	"title": func(s string) string {
		return cases.Title(language.English).String(s)
	},
}

// ParseTemplate parses a template from the embedded filesystem
func ParseTemplate(name string) (*template.Template, error) {
	content, err := fs.ReadFile(TemplateFilesFS(), name)
	if err != nil {
		return nil, err
	}
	return template.New(name).Funcs(templateFuncs).Parse(string(content))
}

// PageData is the model every page template receives
type PageData struct {
	AppName    string
	PageTitle  string
	ActivePage string
	Session    session.Session
	Notice     string
	Error      string
	Policies   []string
	Year       int
	Content    template.HTML
	Data       any
}

func (s *Server) newPageData(r *http.Request, activePage, pageTitle string, data any) PageData {
	return PageData{
		AppName:    s.config.GetAppName(),
		PageTitle:  pageTitle,
		ActivePage: activePage,
		Session:    currentSession(r),
		Notice:     r.URL.Query().Get("notice"),
		Error:      r.URL.Query().Get("error"),
		Policies:   s.services.Content.PolicyNames(),
		Year:       time.Now().Year(),
		Data:       data,
	}
}

// renderPublicPage renders a page with the public site layout
func (s *Server) renderPublicPage(w http.ResponseWriter, r *http.Request, activePage, pageTitle, contentTemplate string, data any) {
	s.renderLayout(w, r, "public_layout.html", http.StatusOK, "", activePage, pageTitle, contentTemplate, data)
}

// renderPublicFormError re-renders a public form with an error banner
func (s *Server) renderPublicFormError(w http.ResponseWriter, r *http.Request, errorMsg, activePage, pageTitle, contentTemplate string, data any) {
	s.renderLayout(w, r, "public_layout.html", http.StatusUnprocessableEntity, errorMsg, activePage, pageTitle, contentTemplate, data)
}

// renderAdminPage renders a page with the admin layout
func (s *Server) renderAdminPage(w http.ResponseWriter, r *http.Request, activePage, pageTitle, contentTemplate string, data any) {
	s.renderLayout(w, r, "admin_layout.html", http.StatusOK, "", activePage, pageTitle, contentTemplate, data)
}

// renderAdminFormError re-renders an admin form with an error banner
func (s *Server) renderAdminFormError(w http.ResponseWriter, r *http.Request, errorMsg, activePage, pageTitle, contentTemplate string, data any) {
	s.renderLayout(w, r, "admin_layout.html", http.StatusUnprocessableEntity, errorMsg, activePage, pageTitle, contentTemplate, data)
}

func (s *Server) renderLayout(w http.ResponseWriter, r *http.Request, layout string, status int, errorMsg, activePage, pageTitle, contentTemplate string, data any) {
	page := s.newPageData(r, activePage, pageTitle, data)
	if errorMsg != "" {
		page.Error = errorMsg
	}

	// Load content template
	contentTmpl, err := ParseTemplate(contentTemplate)
	if err != nil {
		log.Err(err).Str("template", contentTemplate).Msg("Failed to load content template")
		http.Error(w, "Failed to load content template", http.StatusInternalServerError)
		return
	}

	// Render content to string
	var contentBuf strings.Builder
	if err := contentTmpl.Execute(&contentBuf, page); err != nil {
		log.Err(err).Str("template", contentTemplate).Msg("Failed to render content")
		http.Error(w, "Failed to render content", http.StatusInternalServerError)
		return
	}

	// Load layout template
	layoutTmpl, err := ParseTemplate(layout)
	if err != nil {
		log.Err(err).Str("template", layout).Msg("Failed to load layout template")
		http.Error(w, "Failed to load layout template", http.StatusInternalServerError)
		return
	}

	page.Content = template.HTML(contentBuf.String())

	var out strings.Builder
	if err := layoutTmpl.Execute(&out, page); err != nil {
		log.Err(err).Str("template", layout).Msg("Failed to render layout")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	_, _ = w.Write([]byte(out.String()))
}
