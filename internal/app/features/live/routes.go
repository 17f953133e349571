// internal/app/features/live/routes.go
package live

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/projects/{projectID}", h.ServeProject)
	return r
}
