package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hackmate/internal/app"
	"hackmate/internal/httputil"
	"hackmate/internal/model"
	"hackmate/internal/transport/http/middleware"
)

type UserHandler struct {
	app *app.Facade
}

func NewUserHandler(facade *app.Facade) *UserHandler {
	return &UserHandler{app: facade}
}

// GetProfile handles GET /users/{id}
// Private profiles show only name and avatar to other members.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.app.GetUser(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// UpdateProfile handles PATCH /users/{id}
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.ProfileUpdate
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.app.UpdateProfile(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeError(w, "update profile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetUserPosts handles GET /users/{id}/posts
func (h *UserHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.app.ListPostsByAuthor(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "list user posts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Calendar handles GET /me/calendar?date=YYYY-MM-DD
func (h *UserHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	posts, err := h.app.ListSavedEvents(r.Context(), middleware.SessionFromContext(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, "list saved events", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// RegisterDevice handles POST /devices
func (h *UserHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterTokenRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.app.RegisterDevice(r.Context(), middleware.SessionFromContext(r.Context()), &req); err != nil {
		writeError(w, "register device", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
