// internal/app/features/projects/routes.go
package projects

import (
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the project endpoints. tasks and issues, when non-nil, are
// mounted under /{projectID}/tasks and /{projectID}/issues.
// Typically: r.Mount("/projects", projects.Routes(handler, authn, taskRoutes, issueRoutes))
func Routes(h *Handler, authn *auth.Authenticator, tasks, issues http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authn.RequireBearer)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/invites/respond", h.Respond)

	r.Route("/{projectID}", func(pr chi.Router) {
		pr.Get("/", h.Get)
		pr.Put("/", h.Update)
		pr.Delete("/", h.Delete)
		pr.Get("/labels", h.ListLabels)

		pr.Get("/members", h.ListMembers)
		pr.Post("/members", h.Invite)
		pr.Delete("/members", h.RemoveAllMembers)
		pr.Delete("/members/{memberID}", h.RemoveMember)
		pr.Put("/members/{memberID}/role", h.UpdateRole)

		if tasks != nil {
			pr.Mount("/tasks", tasks)
		}
		if issues != nil {
			pr.Mount("/issues", issues)
		}
	})

	return r
}
