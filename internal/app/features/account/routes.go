// internal/app/features/account/routes.go
package account

import (
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account endpoints.
// Typically: r.Mount("/auth", account.Routes(handler, authn))
func Routes(h *Handler, authn *auth.Authenticator) chi.Router {
	r := chi.NewRouter()

	// Public
	r.Post("/register", h.Register)
	r.Post("/create-password", h.CreatePassword)
	r.Post("/login", h.Login)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/reset-password", h.ResetPassword)

	r.Group(func(pr chi.Router) {
		pr.Use(authn.RequireBearer)
		pr.Get("/self", h.Self)
		pr.Put("/full-name", h.UpdateFullName)
		pr.Post("/profile-picture", h.UploadProfilePicture)
	})

	return r
}
