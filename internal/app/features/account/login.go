package account

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/authutil"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email" msg:"Email should be a valid email."`
	Password string `json:"password" validate:"required" msg:"Password should be required."`
}

// Login exchanges email and password for a session token.
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	email := normalize.Email(body.Email)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "account.login")
	defer cancel()

	if err := h.allow(r, email); err != nil {
		h.Audit.LoginFailedRateLimit(ctx, r, email)
		h.fail(w, err)
		return
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		h.Audit.LoginFailedUserNotFound(ctx, r, email)
		h.fail(w, apierr.Validation("email", "body", MsgLoginUnknownEmail))
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}
	if !authutil.CheckPassword(body.Password, u.PasswordHash) {
		h.Audit.LoginFailedWrongPassword(ctx, r, u.ID, email)
		h.fail(w, apierr.Validation("password", "body", MsgLoginBadPassword))
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.Audit.LoginSuccess(ctx, r, u.ID, email)
	h.writeSession(w, *u)
}
