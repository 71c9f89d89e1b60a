package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/coursegen/coursegen-api/internal/api"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	curriculumHandler := api.NewCurriculumHandler(app.generator, app.schedulerConfig, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/curricula", curriculumHandler.GenerateCurriculum)
		r.Post("/curricula/stream", curriculumHandler.StreamCurriculum)
	})

	// Health check endpoint
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
