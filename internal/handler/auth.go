package handler

import (
	"net/http"

	"hackmate/internal/app"
	"hackmate/internal/httputil"
	"hackmate/internal/model"
	"hackmate/internal/transport/http/middleware"
)

// AuthHandler groups auth-related HTTP endpoints.
type AuthHandler struct {
	app *app.Facade
}

func NewAuthHandler(facade *app.Facade) *AuthHandler {
	return &AuthHandler{app: facade}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	session, err := h.app.Register(r.Context(), &req)
	if err != nil {
		writeError(w, "register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, session)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	session, err := h.app.Login(r.Context(), &req)
	if err != nil {
		writeError(w, "login", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req model.RefreshRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.RefreshToken == "" {
		httputil.WriteValidationError(w, "refresh_token", "Refresh token is required")
		return
	}

	pair, err := h.app.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, "refresh tokens", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, pair)
}

// Logout handles POST /auth/logout. Unknown or already revoked tokens still
// log out successfully.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req model.LogoutRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.app.Logout(r.Context(), req.RefreshToken); err != nil {
		writeError(w, "logout", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Logged out successfully",
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.app.Me(r.Context(), middleware.SessionFromContext(r.Context()))
	if err != nil {
		writeError(w, "get user", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// ChangePassword handles PUT /auth/password. Every session of the user is
// revoked afterwards.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.app.ChangePassword(r.Context(), middleware.SessionFromContext(r.Context()), &req); err != nil {
		writeError(w, "change password", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Password changed, please login again",
	})
}
