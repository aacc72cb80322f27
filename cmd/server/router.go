package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/studybuddy/studybuddy-api/internal/api"
	apiMiddleware "github.com/studybuddy/studybuddy-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: app.config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)

	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)
	flashcardHandler := api.NewFlashcardHandler(app.flashcardService, app.cardReviewService, app.logger)
	activityHandler := api.NewActivityHandler(app.activityService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)

		r.Route("/flashcards", func(r chi.Router) {
			r.Get("/", flashcardHandler.ListFlashcards)
			r.Post("/", flashcardHandler.CreateFlashcards)
			r.Get("/due", flashcardHandler.ListDueCards)
			r.Post("/generate", flashcardHandler.GenerateFlashcards)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", flashcardHandler.GetFlashcard)
				r.Patch("/", flashcardHandler.SubmitReview)
				r.Delete("/", flashcardHandler.DeleteFlashcard)
				r.Post("/review", flashcardHandler.SubmitReview)
			})
		})

		r.Delete("/documents/{documentID}/flashcards", flashcardHandler.DeleteDocumentFlashcards)
		r.Get("/activity", activityHandler.GetActivity)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
