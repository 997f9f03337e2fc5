// Package http provides HTTP routing and middleware configuration
// for the userd service.
package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/atarasenko/userd/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the userd API.
// It applies CORS, JSON content-type enforcement on bodied requests, and
// request logging, and mounts the account endpoints under /api.
//
// Routes:
//
//	GET    /health              → liveness probe
//	GET    /api/user            → userHandler.List
//	POST   /api/user            → userHandler.Create
//	PUT    /api/user/{id}       → userHandler.Update (bearer token required)
//	DELETE /api/user/{id}       → userHandler.Delete (bearer token required)
//	POST   /api/auth/login      → authHandler.Login
//
// Update and Delete run behind TokenAuth; the handlers additionally require
// the token's subject to match the {id} route parameter.
func NewRouter(
	userHandler *UserHandler,
	authHandler *AuthHandler,
	verifier middleware.TokenVerifier,
	allowedOrigins []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))

	// Liveness probe, outside the API group
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json where a body is expected
		r.With(chiMiddleware.AllowContentType("application/json")).
			Post("/auth/login", authHandler.Login)

		r.Route("/user", func(r chi.Router) {
			r.Get("/", userHandler.List)
			r.With(chiMiddleware.AllowContentType("application/json")).
				Post("/", userHandler.Create)

			// Protected group: requires a valid bearer token
			r.Group(func(r chi.Router) {
				r.Use(middleware.TokenAuth(verifier))
				r.With(chiMiddleware.AllowContentType("application/json")).
					Put("/{id}", userHandler.Update)
				r.Delete("/{id}", userHandler.Delete)
			})
		})
	})

	return r
}
