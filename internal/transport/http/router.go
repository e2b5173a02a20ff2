package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hackmate/internal/app"
	"hackmate/internal/handler"
	"hackmate/internal/httputil"
	authmw "hackmate/internal/transport/http/middleware"
)

// NewRouter mounts the API under /api/v1 with /health at the root.
func NewRouter(facade *app.Facade) chi.Router {
	authHandler := handler.NewAuthHandler(facade)
	userHandler := handler.NewUserHandler(facade)
	postHandler := handler.NewPostHandler(facade)
	chatHandler := handler.NewChatHandler(facade)
	watchHandler := handler.NewWatchHandler(facade)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(authmw.RedactQueryToken)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoint (useful for deployment/monitoring)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes - no authentication required
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(authmw.AuthMiddleware(facade))

			r.Get("/auth/me", authHandler.Me)
			r.Put("/auth/password", authHandler.ChangePassword)

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", postHandler.List)
				r.Post("/", postHandler.Create)
				r.Post("/{id}/views", postHandler.View)
				r.Post("/{id}/reactions", postHandler.React)
				r.Post("/{id}/save", postHandler.Save)
				r.Delete("/{id}/save", postHandler.Unsave)
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/{id}", userHandler.GetProfile)
				r.Patch("/{id}", userHandler.UpdateProfile)
				r.Get("/{id}/posts", userHandler.GetUserPosts)
			})
			r.Get("/me/calendar", userHandler.Calendar)
			r.Post("/devices", userHandler.RegisterDevice)

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/", chatHandler.List)
				r.Post("/", chatHandler.Start)
				r.Get("/{id}/messages", chatHandler.ListMessages)
				r.Post("/{id}/messages", chatHandler.Send)
			})

			r.Route("/ws", func(r chi.Router) {
				r.Get("/posts", watchHandler.Posts)
				r.Get("/conversations", watchHandler.Conversations)
				r.Get("/conversations/{id}", watchHandler.Messages)
			})
		})
	})

	return r
}
