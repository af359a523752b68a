package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		// Public
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.apiKey))

			r.Post("/authenticity", h.Authenticity)
			r.Post("/variety", h.Variety)
			r.Get("/quota", h.Quota)
			r.Get("/topics", h.ListTopics)

			r.Route("/topics/{topicID}", func(r chi.Router) {
				r.Use(TopicMiddleware)

				r.Get("/posts", h.ListPosts)
				r.Get("/posts/count", h.CountPosts)
				r.Get("/posts/{postID}", h.GetPost)
				r.With(h.deletes.Middleware).Delete("/posts", h.DeletePosts)
				r.Post("/batches", h.CreateBatch)
				r.Get("/batches/{batchID}/url", h.BatchURL)
			})
		})
	})

	return r
}
