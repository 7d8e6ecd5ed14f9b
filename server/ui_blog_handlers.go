package server

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	siteerrors "github.com/jrsteele09/nutrition-site/internal/errors"
	"github.com/jrsteele09/nutrition-site/posts"
)

const blogPageSize = 10

type BlogListPageData struct {
	Posts    []*posts.Post
	Page     int
	PrevPage int
	NextPage int
}

// BlogListHandler lists published posts newest first (?page=N)
func (s *Server) BlogListHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}

		// Ask for one extra post to know whether there is a next page
		list, err := s.services.Posts.List(r.Context(), true, (page-1)*blogPageSize, blogPageSize+1)
		if err != nil {
			log.Err(err).Msg("Failed to list posts")
			http.Error(w, "Failed to load posts", http.StatusInternalServerError)
			return
		}

		data := BlogListPageData{Page: page, PrevPage: page - 1}
		if len(list) > blogPageSize {
			list = list[:blogPageSize]
			data.NextPage = page + 1
		}
		data.Posts = list
		s.renderPublicPage(w, r, "blog", "Blog", "blog_list.html", data)
	}
}

// EditorPageData backs the authoring surface
type EditorPageData struct {
	Post     *posts.Post // nil for a new post
	Form     postForm
	Action   string
	IsNew    bool
	ViewPath string
}

func editorDataFor(p *posts.Post) EditorPageData {
	return EditorPageData{
		Post: p,
		Form: postForm{
			Title:      p.Title,
			Slug:       p.Slug,
			Excerpt:    p.Excerpt,
			CoverImage: p.CoverImage,
			Document:   p.Document.JSON(),
			Published:  p.Published,
		},
		Action:   blogEditPath(p.Slug),
		ViewPath: blogPostPath(p.Slug),
	}
}

// BlogDocumentHandler serves /blog/{slug} read-only and /blog/{slug}/edit as the editor
func (s *Server) BlogDocumentHandler(viewOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := func(slug string) {
			// Admins may preview drafts
			get := s.services.Posts.GetPublished
			if currentSession(r).IsAdmin() {
				get = s.services.Posts.Get
			}
			post, err := get(r.Context(), slug)
			if err != nil {
				s.postNotFound(w, r, err, RouteBlog)
				return
			}
			s.renderPublicPage(w, r, "blog", post.Title, "blog_post.html", post)
		}

		edit := func(slug string) {
			post, err := s.services.Posts.Get(r.Context(), slug)
			if err != nil {
				s.postNotFound(w, r, err, RouteAdminBlog)
				return
			}
			s.renderAdminPage(w, r, "blog", "Edit post", "editor.html", editorDataFor(post))
		}

		posts.Switch(r.PathValue("slug"), viewOnly, view, edit)
	}
}

func (s *Server) postNotFound(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	if !siteerrors.Is(err, siteerrors.ErrNotFound) {
		log.Err(err).Str("slug", r.PathValue("slug")).Msg("Failed to load post")
	}
	redirectWithError(w, r, fallback, "That post could not be found")
}

// EditorHandler opens the authoring surface for a new post
func (s *Server) EditorHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := EditorPageData{
			Form:   postForm{Document: posts.Document{}.JSON()},
			Action: RouteEditor,
			IsNew:  true,
		}
		s.renderAdminPage(w, r, "blog", "New post", "editor.html", data)
	}
}

// EditorSaveHandler creates a post from the editor
func (s *Server) EditorSaveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		form := decodePostForm(r)
		data := EditorPageData{Form: form, Action: RouteEditor, IsNew: true}
		draft, errMsg := s.postDraft(form)
		if errMsg != "" {
			s.renderAdminFormError(w, r, errMsg, "blog", "New post", "editor.html", data)
			return
		}

		post, err := s.services.Posts.Create(r.Context(), currentSession(r).User.ID, draft)
		if err != nil {
			s.logPostError(err)
			s.renderAdminFormError(w, r, userMessage(err, "The post could not be saved"), "blog", "New post", "editor.html", data)
			return
		}
		log.Info().Str("slug", post.Slug).Bool("published", post.Published).Msg("Post created")
		redirectWithNotice(w, r, blogEditPath(post.Slug), "Post saved")
	}
}

// BlogUpdateHandler saves the editor for an existing post; the slug may change
func (s *Server) BlogUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		slug := r.PathValue("slug")
		form := decodePostForm(r)
		data := EditorPageData{Form: form, Action: blogEditPath(slug), ViewPath: blogPostPath(slug)}
		draft, errMsg := s.postDraft(form)
		if errMsg != "" {
			s.renderAdminFormError(w, r, errMsg, "blog", "Edit post", "editor.html", data)
			return
		}

		post, err := s.services.Posts.Update(r.Context(), slug, draft)
		if err != nil {
			if siteerrors.Is(err, siteerrors.ErrNotFound) {
				s.postNotFound(w, r, err, RouteAdminBlog)
				return
			}
			s.logPostError(err)
			s.renderAdminFormError(w, r, userMessage(err, "The post could not be saved"), "blog", "Edit post", "editor.html", data)
			return
		}
		redirectWithNotice(w, r, blogEditPath(post.Slug), "Post saved")
	}
}

// postDraft validates the editor form; the second result is a message for the form
func (s *Server) postDraft(form postForm) (posts.Draft, string) {
	if err := s.validate.Struct(form); err != nil {
		return posts.Draft{}, formError(err)
	}
	draft, err := form.draft()
	if err != nil {
		return posts.Draft{}, userMessage(err, "The document could not be read")
	}
	return draft, ""
}

func (s *Server) logPostError(err error) {
	for _, expected := range []error{siteerrors.ErrInvalidRequest, siteerrors.ErrInvalidDocument, siteerrors.ErrSlugTaken} {
		if siteerrors.Is(err, expected) {
			return
		}
	}
	log.Err(err).Msg("Failed to save post")
}
