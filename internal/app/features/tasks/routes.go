// internal/app/features/tasks/routes.go
package tasks

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the task endpoints. It expects to sit under
// /projects/{projectID}/tasks behind bearer auth. comments, when non-nil,
// is mounted at /{taskID}/comments.
func Routes(h *Handler, comments http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/assigned", h.Assigned)

	r.Route("/{taskID}", func(tr chi.Router) {
		tr.Get("/", h.Get)
		tr.Put("/", h.Update)
		tr.Delete("/", h.Delete)
		tr.Post("/assignees", h.Assign)
		tr.Delete("/assignees/{memberID}", h.Unassign)
		if comments != nil {
			tr.Mount("/comments", comments)
		}
	})

	return r
}
