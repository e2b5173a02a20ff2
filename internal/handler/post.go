package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hackmate/internal/app"
	"hackmate/internal/httputil"
	"hackmate/internal/model"
	"hackmate/internal/transport/http/middleware"
)

type PostHandler struct {
	app *app.Facade
}

func NewPostHandler(facade *app.Facade) *PostHandler {
	return &PostHandler{app: facade}
}

// List handles GET /posts
// Returns every post, newest first.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := h.app.ListPosts(r.Context())
	if err != nil {
		writeError(w, "list posts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, posts)
}

// Create handles POST /posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	post, err := h.app.CreatePost(r.Context(), middleware.SessionFromContext(r.Context()), &req)
	if err != nil {
		writeError(w, "create post", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, post)
}

// View handles POST /posts/{id}/views
func (h *PostHandler) View(w http.ResponseWriter, r *http.Request) {
	if err := h.app.IncrementView(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, "count view", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// React handles POST /posts/{id}/reactions
func (h *PostHandler) React(w http.ResponseWriter, r *http.Request) {
	var req model.ReactionRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.app.AddReaction(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Kind); err != nil {
		writeError(w, "add reaction", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Save handles POST /posts/{id}/save
func (h *PostHandler) Save(w http.ResponseWriter, r *http.Request) {
	if err := h.app.SavePost(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, "save post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unsave handles DELETE /posts/{id}/save
func (h *PostHandler) Unsave(w http.ResponseWriter, r *http.Request) {
	if err := h.app.UnsavePost(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, "unsave post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
