package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/atinyakov/scrollie/internal/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves
// the Scrollie API.
//
// Routes:
//
//	POST   /api/register                                → authHandler.Register
//	POST   /api/login                                   → authHandler.Login
//	POST   /api/logout                                  → authHandler.Logout
//	GET    /api/me                                      → authHandler.Me
//	PUT    /api/me/plan                                 → authHandler.ChangePlan
//	GET    /api/projects                                → projectHandler.List
//	POST   /api/projects                                → projectHandler.Create
//	GET    /api/projects/{id}                           → projectHandler.Get
//	PATCH  /api/projects/{id}                           → projectHandler.Update
//	DELETE /api/projects/{id}                           → projectHandler.Delete
//	POST   /api/projects/{id}/items                     → projectHandler.AddItem
//	PUT    /api/projects/{id}/items/{index}             → projectHandler.UpdateItem
//	DELETE /api/projects/{id}/items/{index}             → projectHandler.RemoveItem
//	POST   /api/projects/{id}/items/{index}/move        → projectHandler.MoveItem
//	POST   /api/projects/{id}/items/{index}/bullets     → projectHandler.AddBullet
//	PUT    /api/projects/{id}/items/{index}/bullets/{b} → projectHandler.UpdateBullet
//	DELETE /api/projects/{id}/items/{index}/bullets/{b} → projectHandler.RemoveBullet
//	GET    /healthz                                     → liveness probe
//
// Everything under /api/me and /api/projects requires a logged-in user.
func NewRouter(
	authHandler *AuthHandler,
	projectHandler *ProjectHandler,
	users middleware.UserLookup,
	allowedOrigins []string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-Id"},
	}).Handler)

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Use(middleware.WithRequestLogging(logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireUser(users, logger))

			r.Get("/me", authHandler.Me)
			r.Put("/me/plan", authHandler.ChangePlan)

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", projectHandler.List)
				r.Post("/", projectHandler.Create)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", projectHandler.Get)
					r.Patch("/", projectHandler.Update)
					r.Delete("/", projectHandler.Delete)

					r.Post("/items", projectHandler.AddItem)
					r.Route("/items/{index}", func(r chi.Router) {
						r.Put("/", projectHandler.UpdateItem)
						r.Delete("/", projectHandler.RemoveItem)
						r.Post("/move", projectHandler.MoveItem)
						r.Post("/bullets", projectHandler.AddBullet)
						r.Put("/bullets/{bullet}", projectHandler.UpdateBullet)
						r.Delete("/bullets/{bullet}", projectHandler.RemoveBullet)
					})
				})
			})
		})
	})

	return r
}
