package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the review handler into a chi router.
func NewRouter(h *ReviewHandler) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/reconcile", h.Reconcile)
		r.Route("/documents", func(r chi.Router) {
			r.Post("/", h.CreateDocument)
			r.Get("/", h.ListDocuments)
			r.Route("/{docId}", func(r chi.Router) {
				r.Get("/", h.GetDocument)
				r.Get("/log", h.StatusLog)
				r.Post("/review", h.StartReview)
				r.Post("/release", h.ReleaseReview)
				r.Post("/approve", h.Approve)
				r.Post("/reject", h.Reject)
				r.Post("/status", h.ChangeStatus)
			})
		})
	})

	return r
}
