package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/wordclaim/internal/api"
	apiMiddleware "github.com/phrazzld/wordclaim/internal/api/middleware"
	"github.com/phrazzld/wordclaim/internal/platform/metrics"
	"github.com/phrazzld/wordclaim/internal/service/assignment"
	"github.com/phrazzld/wordclaim/internal/service/auth"
	"github.com/phrazzld/wordclaim/internal/service/verification"
	"github.com/phrazzld/wordclaim/internal/window"
)

// routerDeps is everything the HTTP surface needs.
type routerDeps struct {
	assignment     assignment.Service
	verification   verification.Service
	tokens         auth.TokenService
	guard          *window.Guard
	metrics        *metrics.Metrics
	uploadDir      string
	maxUploadBytes int64
	logger         *slog.Logger
}

// setupRouter creates the router from the application's dependencies.
func (app *application) setupRouter() http.Handler {
	return newRouter(routerDeps{
		assignment:     app.assignment,
		verification:   app.verification,
		tokens:         app.tokens,
		guard:          app.guard,
		metrics:        app.metrics,
		uploadDir:      app.config.Server.UploadDir,
		maxUploadBytes: maxUploadBytes(app.config.Server),
		logger:         app.logger,
	})
}

// newRouter registers every route and middleware.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(deps.logger))
	r.Use(deps.metrics.Middleware)
	r.Use(apiMiddleware.CORS)

	wordHandler := api.NewWordHandler(deps.assignment, deps.logger)
	verifyHandler := api.NewVerifyHandler(deps.verification, deps.maxUploadBytes, deps.logger)
	adminGuard := apiMiddleware.NewAdminGuard(deps.tokens)

	// Participant routes close with the registration window.
	r.Group(func(r chi.Router) {
		r.Use(apiMiddleware.RegistrationWindow(deps.guard))

		r.Get("/claim", wordHandler.Claim)
		r.Post("/claim", wordHandler.Claim)
		r.Post("/verify", verifyHandler.Verify)

		// Paths used by the first generation of clients.
		r.Get("/obter-palavra", wordHandler.Claim)
		r.Post("/upload", verifyHandler.Verify)
	})

	r.Get("/count", wordHandler.Count)
	r.Get("/contar-registros", wordHandler.Count)
	r.Get("/peek", wordHandler.Peek)

	r.Group(func(r chi.Router) {
		r.Use(adminGuard.RequireAdmin)
		r.Post("/reset", wordHandler.Reset)
		r.Post("/resetar-banco", wordHandler.Reset)
	})

	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.uploadDir))))
	r.Method(http.MethodGet, "/metrics", deps.metrics.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			deps.logger.Error("failed to write health check response", slog.String("error", err.Error()))
		}
	})

	return r
}
