package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hackmate/internal/app"
	"hackmate/internal/httputil"
	"hackmate/internal/model"
	"hackmate/internal/transport/http/middleware"
)

type ChatHandler struct {
	app *app.Facade
}

func NewChatHandler(facade *app.Facade) *ChatHandler {
	return &ChatHandler{app: facade}
}

// List handles GET /conversations
func (h *ChatHandler) List(w http.ResponseWriter, r *http.Request) {
	convs, err := h.app.ListConversations(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, "list conversations", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, convs)
}

// Start handles POST /conversations
// Returns the existing conversation when the pair already has one.
func (h *ChatHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req model.StartConversationRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	id, err := h.app.StartConversation(r.Context(), middleware.SessionFromContext(r.Context()), req.UserID)
	if err != nil {
		writeError(w, "start conversation", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, model.StartConversationResponse{ConversationID: id})
}

// ListMessages handles GET /conversations/{id}/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.app.ListMessages(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "list messages", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, msgs)
}

// Send handles POST /conversations/{id}/messages
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	msg, err := h.app.SendMessage(r.Context(), middleware.SessionFromContext(r.Context()), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, "send message", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, msg)
}
