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
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.uber.org/zap"
)

type registerBody struct {
	Email    string `json:"email" validate:"required,email" msg:"Email should be a valid email."`
	FullName string `json:"fullName" validate:"required,max=100" msg:"Full name should be required."`
}

type createPasswordBody struct {
	Password        string `json:"password" validate:"required" msg:"Password should be required."`
	ConfirmPassword string `json:"confirmPassword" validate:"required" msg:"Confirm password should be required."`
	Token           string `json:"token" validate:"required" msg:"Token should be required."`
}

// sessionPayload is returned by login and create-password.
type sessionPayload struct {
	User      models.User `json:"user"`
	AuthToken string      `json:"authToken"`
}

// Register mails a short-lived registration link to a new email address.
// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	email := normalize.Email(body.Email)
	if err := h.allow(r, email); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "account.register")
	defer cancel()

	exists, err := h.Users.EmailExists(ctx, email)
	if err != nil {
		h.fail(w, err)
		return
	}
	if exists {
		h.fail(w, apierr.Conflict(MsgEmailExists))
		return
	}

	tok, err := h.Tokens.IssueRegistration(email, normalize.Name(body.FullName))
	if err != nil {
		h.fail(w, err)
		return
	}
	msg := mailer.BuildRegistrationEmail(mailer.RegistrationEmailData{
		SiteName:  h.Links.SiteName,
		FullName:  normalize.Name(body.FullName),
		Link:      mailer.LinkWithToken(h.Links.CreatePasswordURL, tok),
		ExpiresIn: "5 minutes",
	})
	msg.To = email
	if err := h.Mail.Send(ctx, msg); err != nil {
		h.fail(w, err)
		return
	}
	h.Audit.RegistrationStarted(ctx, r, email)
	apierr.WriteOK(w, MsgVerificationSent)
}

// CreatePassword redeems a registration token, creates the account and
// signs the new user in.
// POST /auth/create-password
func (h *Handler) CreatePassword(w http.ResponseWriter, r *http.Request) {
	var body createPasswordBody
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
	claims, err := h.verify(body.Token, tokens.PurposeRegister)
	if err != nil {
		h.fail(w, err)
		return
	}
	if claims.Email == "" || claims.FullName == "" {
		h.fail(w, apierr.Validation("token", "body", MsgInvalidToken))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "account.create-password")
	defer cancel()

	hash, err := authutil.HashPassword(body.Password)
	if err != nil {
		h.fail(w, err)
		return
	}
	u, err := h.Users.Create(ctx, models.User{
		FullName:     claims.FullName,
		Email:        claims.Email,
		PasswordHash: hash,
	})
	if errors.Is(err, userstore.ErrDuplicateEmail) {
		h.fail(w, apierr.Conflict(MsgUserExists))
		return
	}
	if err != nil {
		h.fail(w, err)
		return
	}

	// Invites sent before the account existed become resolvable by user id.
	if n, err := h.Members.BindUser(ctx, u.Email, u.ID); err != nil {
		h.Log.Warn("bind pending invites failed", zap.String("user_id", u.ID.Hex()), zap.Error(err))
	} else if n > 0 {
		h.Log.Info("bound pending invites", zap.String("user_id", u.ID.Hex()), zap.Int64("count", n))
	}
	h.Audit.UserRegistered(ctx, r, u.ID, u.Email)

	h.writeSession(w, u)
}

// verify maps token failures onto the API taxonomy.
func (h *Handler) verify(raw string, purpose tokens.Purpose) (*tokens.Claims, error) {
	claims, err := h.Tokens.Verify(raw, purpose)
	switch {
	case errors.Is(err, tokens.ErrExpired):
		return nil, apierr.ExpiredToken("")
	case err != nil:
		return nil, apierr.Validation("token", "body", MsgInvalidToken)
	}
	return claims, nil
}

func (h *Handler) writeSession(w http.ResponseWriter, u models.User) {
	tok, err := h.Tokens.IssueSession(u.ID.Hex(), u.Role)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, sessionPayload{User: u, AuthToken: tok})
}
