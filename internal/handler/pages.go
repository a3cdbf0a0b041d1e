// Package handler contains the HTTP handlers: the JSON API over the users
// view-model and the two server-rendered pages.
//
// Handlers are the glue between HTTP and the rest of the app:
//  1. Parse the request (path params, headers)
//  2. Call the view-model or the service
//  3. Write the response (status code, headers, body)
//
// They hold no business logic of their own.
package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/github-users/internal/auth"
	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/uistate"
)

//go:embed templates/*.html
var templateFS embed.FS

// PagesHandler renders the home and details pages. Templates are parsed
// once at startup and reused for every request.
type PagesHandler struct {
	home    *template.Template
	details *template.Template
	users   UsersModel
	lookup  UserLookup
	logger  *slog.Logger
}

// homeData is what home.html renders. Exactly one of the flags is set,
// mirroring the four users states.
type homeData struct {
	Title   string
	Loading bool
	Empty   bool
	Failed  bool
	Message string
	Users   []model.GitHubUser
}

type detailsData struct {
	Title   string
	User    *model.GitHubUser
	Status  int
	Message string
}

// NewPagesHandler parses the embedded templates. base.html holds the page
// layout with a {{template "content" .}} slot that each page fills.
func NewPagesHandler(users UsersModel, lookup UserLookup, logger *slog.Logger) (*PagesHandler, error) {
	home, err := template.ParseFS(templateFS, "templates/base.html", "templates/home.html")
	if err != nil {
		return nil, err
	}
	details, err := template.ParseFS(templateFS, "templates/base.html", "templates/details.html")
	if err != nil {
		return nil, err
	}

	return &PagesHandler{
		home:    home,
		details: details,
		users:   users,
		lookup:  lookup,
		logger:  logger,
	}, nil
}

// HandleHome renders the users list in whatever state it is in. The first
// visit activates the list, which starts the initial fetch.
//
// HTTP: GET /
func (h *PagesHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	if h.users.Activate() {
		h.logger.Debug("home page activated users list")
	}

	data := homeData{Title: "GitHub Users"}
	switch s := h.users.Current().(type) {
	case uistate.Loading[[]model.GitHubUser]:
		data.Loading = true
	case uistate.Success[[]model.GitHubUser]:
		data.Users = s.Data
	case uistate.Failure[[]model.GitHubUser]:
		data.Failed = true
		data.Message = s.Message
	default:
		data.Empty = true
	}

	h.render(w, h.home, http.StatusOK, data)
}

// HandleRefresh is the home page's reload button: it starts a fetch and
// sends the browser back to the list.
//
// HTTP: POST /refresh → 303 See Other → GET /
func (h *PagesHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.users.Fetch()
	if subject, ok := auth.SubjectFromContext(r.Context()); ok {
		h.logger.Info("refresh requested", slog.String("subject", subject))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleDetails renders one user.
//
// HTTP: GET /users/{login}
func (h *PagesHandler) HandleDetails(w http.ResponseWriter, r *http.Request) {
	login := chi.URLParam(r, "login")

	user, err := h.lookup.GetUser(r.Context(), login)
	if err != nil {
		status, body := classifyError(err)
		h.logger.Debug("details lookup failed",
			slog.String("login", login),
			slog.Int("status", status),
			slog.String("error", err.Error()),
		)
		h.render(w, h.details, status, detailsData{
			Title:   "GitHub User Details",
			Status:  status,
			Message: body.Message,
		})
		return
	}

	h.render(w, h.details, http.StatusOK, detailsData{
		Title: "GitHub User Details",
		User:  user,
	})
}

// render executes into a buffer first so a template error can still produce
// a clean 500 instead of half a page.
func (h *PagesHandler) render(w http.ResponseWriter, t *template.Template, status int, data any) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error("failed to render template", slog.String("error", err.Error()))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
