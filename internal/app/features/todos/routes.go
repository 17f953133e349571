// internal/app/features/todos/routes.go
package todos

import (
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the todo endpoints. All require a bearer token.
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.RequireBearer)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{todoID}", h.Get)
	r.Put("/{todoID}", h.Update)
	r.Delete("/{todoID}", h.Delete)

	return r
}
