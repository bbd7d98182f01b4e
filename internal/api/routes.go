package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", userHeaderName, "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Get("/sections", s.handleSections)
		r.Get("/sections/{id}", s.handleSection)
		r.Get("/sections/{id}/questions", s.handleQuestions)
		r.Get("/transparency", s.handleTransparency)

		r.Group(func(r chi.Router) {
			r.Use(s.userMiddleware)
			r.Get("/me", s.handleMe)
			r.Delete("/me", s.handleDeleteMe)
			r.Post("/me/clear", s.handleClearProgress)
			r.Get("/sections/{id}/progress", s.handleSectionProgress)
			r.Post("/sections/{id}/answers", s.handleSubmitAnswer)
			r.Post("/sections/{id}/complete", s.handleCompleteSection)
			r.Get("/scores", s.handleScores)
			r.Get("/certificates", s.handleCertificates)
			r.Get("/certificates/master", s.handleMasterStatus)
			r.Post("/certificates/{kind}/download", s.handleDownloadCertificate)
			r.Post("/reviews", s.handleCreateReview)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleAdminLogin)
			r.Group(func(r chi.Router) {
				r.Use(s.adminMiddleware)
				r.Get("/reviews", s.handleAdminReviews)
				r.Get("/scores", s.handleAdminScores)
				r.Get("/dashboard", s.handleAdminDashboard)
				r.Get("/users/{email}", s.handleAdminUserData)
				r.Post("/resync", s.handleAdminResync)
			})
		})
	})
	return r
}
