// internal/app/features/comments/routes.go
package comments

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts a comment thread. The caller mounts it under a path that
// carries {projectID} and the Target's item parameter, behind bearer auth.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{commentID}", h.Update)
	r.Delete("/{commentID}", h.Delete)
	r.Get("/{commentID}/replies", h.Replies)
	r.Post("/{commentID}/replies", h.Reply)

	return r
}
