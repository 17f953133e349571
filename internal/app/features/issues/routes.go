// internal/app/features/issues/routes.go
package issues

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the issue endpoints under /projects/{projectID}/issues.
// comments, when non-nil, is mounted at /{issueID}/comments.
func Routes(h *Handler, comments http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	r.Route("/{issueID}", func(ir chi.Router) {
		ir.Get("/", h.Get)
		ir.Put("/", h.Update)
		ir.Delete("/", h.Delete)
		ir.Put("/status", h.SetStatus)
		ir.Post("/assignees", h.Assign)
		ir.Delete("/assignees/{memberID}", h.Unassign)
		if comments != nil {
			ir.Mount("/comments", comments)
		}
	})

	return r
}
