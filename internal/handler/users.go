package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/github-users/internal/apperror"
	"github.com/sakif/github-users/internal/auth"
	"github.com/sakif/github-users/internal/model"
	"github.com/sakif/github-users/internal/uistate"
	"github.com/sakif/github-users/internal/viewmodel"
)

// keepAliveInterval is how often an idle stream sends an SSE comment so
// proxies don't time the connection out.
const keepAliveInterval = 25 * time.Second

// UsersModel is what the handlers need from the users view-model.
// *viewmodel.UsersViewModel implements it.
type UsersModel interface {
	Current() viewmodel.UsersState
	Fetch()
	Activate() bool
	Users() *uistate.Subscription[[]model.GitHubUser]
}

// UserLookup finds single users for the details endpoints and reads back the
// cached listing. *service.UserService implements it.
type UserLookup interface {
	GetUser(ctx context.Context, login string) (*model.GitHubUser, error)
	CachedUsers(ctx context.Context, limit, offset int) ([]model.CachedUser, error)
}

// StateResponse is the JSON form of the users state:
//
//	{"status":"loading"}
//	{"status":"success","data":[{"login":"mojombo",...}]}
//	{"status":"failure","message":"Network is not available"}
type StateResponse = viewmodel.UsersView

// UsersHandler serves the users state as JSON and as a live event stream.
type UsersHandler struct {
	users  UsersModel
	lookup UserLookup
	logger *slog.Logger
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(users UsersModel, lookup UserLookup, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{users: users, lookup: lookup, logger: logger}
}

// HandleState returns the current state.
//
// HTTP: GET /api/users
func (h *UsersHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewmodel.ToView(h.users.Current()))
}

// HandleFetch starts a fetch and returns immediately with the state it
// published, which is always Loading. The outcome arrives on the stream or
// a later GET /api/users.
//
// HTTP: POST /api/users/fetch → 202 Accepted
func (h *UsersHandler) HandleFetch(w http.ResponseWriter, r *http.Request) {
	h.users.Fetch()
	if subject, ok := auth.SubjectFromContext(r.Context()); ok {
		h.logger.Info("fetch requested", slog.String("subject", subject))
	}
	// Current() may already be terminal if the attempt finished fast.
	writeJSON(w, http.StatusAccepted, viewmodel.ToView(viewmodel.Loading{}))
}

// HandleStream pushes every state as a Server-Sent Event, starting with the
// current one:
//
//	event: state
//	data: {"status":"loading"}
//
// The stream ends when the client goes away or the view-model is closed
// (server shutdown).
//
// HTTP: GET /api/users/stream
func (h *UsersHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The server's WriteTimeout is meant for ordinary requests; a stream
	// lives as long as the client wants it.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("could not clear write deadline", slog.String("error", err.Error()))
	}

	sub := h.users.Users()
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		h.logger.Error("streaming not supported", slog.String("error", err.Error()))
		return
	}

	ctx := r.Context()
	for {
		next, cancel := context.WithTimeout(ctx, keepAliveInterval)
		state, err := sub.Next(next)
		cancel()

		switch {
		case err == nil:
			if err := writeEvent(w, "state", viewmodel.ToView(state)); err != nil {
				h.logger.Debug("stream write failed", slog.String("error", err.Error()))
				return
			}
		case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		default:
			// Client gone, or ErrClosed on shutdown.
			return
		}

		if err := rc.Flush(); err != nil {
			return
		}
	}
}

// HandleGetUser returns one user's details.
//
// HTTP: GET /api/users/{login}
func (h *UsersHandler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.lookup.GetUser(r.Context(), chi.URLParam(r, "login"))
	if err != nil {
		h.logger.Debug("user lookup failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleCached returns the last user listing stored in the local cache,
// without asking GitHub. ?limit= and ?offset= page through it.
//
// HTTP: GET /api/users/cached
func (h *UsersHandler) HandleCached(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := h.lookup.CachedUsers(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// queryInt reads an optional non-negative integer query parameter. Absent
// means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, apperror.ValidationFailed(name, name+" must be a non-negative integer")
	}
	return n, nil
}

func writeEvent(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
