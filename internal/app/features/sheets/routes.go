// internal/app/features/sheets/routes.go
package sheets

import (
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the sheet endpoints. All require a bearer token.
// Typically: r.Mount("/sheets", sheets.Routes(handler, authn))
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.RequireBearer)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/analytics/total", h.Totals)
	r.Get("/analytics/daily", h.Daily)
	r.Put("/{sheetID}", h.Update)
	r.Delete("/{sheetID}", h.Delete)

	return r
}
