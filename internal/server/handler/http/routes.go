package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/atinyakov/unidocs/internal/logger"
	"github.com/atinyakov/unidocs/internal/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Documents *DocumentHandler
	Stats     *StatsHandler
}

// NewRouter constructs the HTTP handler that serves the API.
//
// Routes:
//
//	GET    /health, /metrics
//	POST   /api/auth/register, /api/auth/login
//	GET    /api/auth/me                      (bearer)
//	GET    /api/institutions[/{id}], /api/programs[/{id}], /api/subjects[/{id}]
//	GET    /api/documents, /api/documents/{id}, /api/documents/{id}/download
//	POST   /api/documents                    (bearer, multipart)
//	DELETE /api/documents/{id}               (bearer)
//	POST   /api/documents/{id}/rate          (bearer)
//	GET    /api/search, /api/stats
//
// Middleware chain (applied in order): request id, panic recovery,
// request logging, Prometheus metrics.
func NewRouter(h Handlers, tokens middleware.TokenValidator, metrics http.Handler, obs middleware.RequestObserver, log *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(logger.Middleware(log))
	r.Use(middleware.Metrics(obs))

	r.Get("/health", Health)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}

	auth := middleware.BearerAuth(tokens)
	jsonOnly := chiMiddleware.AllowContentType("application/json")

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(jsonOnly).Post("/register", h.Auth.Register)
			r.With(jsonOnly).Post("/login", h.Auth.Login)
			r.With(auth).Get("/me", h.Auth.Me)
		})

		r.Get("/institutions", h.Catalog.ListInstitutions)
		r.Get("/institutions/{id}", h.Catalog.GetInstitution)
		r.Get("/programs", h.Catalog.ListPrograms)
		r.Get("/programs/{id}", h.Catalog.GetProgram)
		r.Get("/subjects", h.Catalog.ListSubjects)
		r.Get("/subjects/{id}", h.Catalog.GetSubject)

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", h.Documents.List)
			r.Get("/{id}", h.Documents.Get)
			r.Get("/{id}/download", h.Documents.Download)

			// Protected group: requires a valid bearer token
			r.Group(func(r chi.Router) {
				r.Use(auth)
				r.With(chiMiddleware.AllowContentType("multipart/form-data")).Post("/", h.Documents.Upload)
				r.Delete("/{id}", h.Documents.Delete)
				r.With(jsonOnly).Post("/{id}/rate", h.Documents.Rate)
			})
		})

		r.Get("/search", h.Documents.Search)
		r.Get("/stats", h.Stats.Stats)
	})

	return r
}
