package account

import (
	"errors"
	"net/http"

	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/authutil"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/mailer"
	"github.com/dalemusser/projecthub/internal/app/system/normalize"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/app/system/tokens"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type forgotBody struct {
	Email string `json:"email" validate:"required,email" msg:"Email should be a valid email."`
}

type resetBody struct {
	Token           string `json:"token" validate:"required" msg:"Token should be required."`
	Password        string `json:"password" validate:"required" msg:"Password should be required."`
	ConfirmPassword string `json:"confirmPassword" validate:"required" msg:"Confirm password should be required."`
}

// ForgotPassword mails a one-hour reset link. The response is the same
// whether or not the email has an account.
// POST /auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var body forgotBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	email := normalize.Email(body.Email)
	if err := h.allow(r, email); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "account.forgot-password")
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if errors.Is(err, userstore.ErrNotFound) {
		apierr.WriteOK(w, MsgResetSent)
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	tok, err := h.Tokens.IssueReset(u.ID.Hex())
	if err != nil {
		h.fail(w, err)
		return
	}
	msg := mailer.BuildResetEmail(mailer.ResetEmailData{
		SiteName:  h.Links.SiteName,
		Link:      mailer.LinkWithToken(h.Links.ResetPasswordURL, tok),
		ExpiresIn: "1 hour",
	})
	msg.To = u.Email
	if err := h.Mail.Send(ctx, msg); err != nil {
		h.fail(w, err)
		return
	}
	h.Audit.PasswordResetRequested(ctx, r, u.ID)
	apierr.WriteOK(w, MsgResetSent)
}

// ResetPassword redeems a reset token and stores the new password.
// POST /auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	if err := checkPassword(body.Password); err != nil {
		h.fail(w, err)
		return
	}
	if body.Password != body.ConfirmPassword {
		h.fail(w, apierr.Validation("confirmPassword", "body", MsgPasswordMismatch))
		return
	}
	claims, err := h.verify(body.Token, tokens.PurposeReset)
	if err != nil {
		h.fail(w, err)
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		h.fail(w, apierr.Validation("token", "body", MsgInvalidToken))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "account.reset-password")
	defer cancel()

	hash, err := authutil.HashPassword(body.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Users.SetPassword(ctx, userID, hash); err != nil {
		h.fail(w, err)
		return
	}
	h.Audit.PasswordReset(ctx, r, userID)
	apierr.WriteOK(w, MsgPasswordReset)
}

// checkPassword applies the password length rules before any hashing.
func checkPassword(pw string) error {
	switch err := authutil.ValidatePassword(pw); {
	case errors.Is(err, authutil.ErrPasswordTooShort):
		return apierr.Validation("password", "body", MsgPasswordTooShort)
	case errors.Is(err, authutil.ErrPasswordTooLong):
		return apierr.Validation("password", "body", MsgPasswordTooLong)
	}
	return nil
}
