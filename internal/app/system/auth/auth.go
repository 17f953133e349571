// Package auth resolves the bearer token on each request into the acting
// user and keeps it in the request context.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/tokens"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// UnauthorizedMsg is returned for every failed bearer check.
const UnauthorizedMsg = "Unauthorized user"

// SessionUser is what we inject into r.Context() once the token checks out.
type SessionUser struct {
	ID           string
	Name         string
	Email        string
	Role         string
	PricingModel string
}

// ObjectID parses the user id. Users placed in context by this package
// always carry a valid id.
func (u *SessionUser) ObjectID() primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(u.ID)
	return id
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects u directly, bypassing token checks.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

// UserLoader fetches the account a token refers to.
type UserLoader interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// Authenticator verifies session tokens and loads their users.
type Authenticator struct {
	tokens *tokens.Service
	users  UserLoader
	log    *zap.Logger
}

func NewAuthenticator(ts *tokens.Service, users UserLoader, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: ts, users: users, log: logger}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// Resolve turns a raw session token into the user it names. Credential
// failures are reported as the same Unauthorized error; a failed user
// lookup is returned as is so it surfaces as a server error.
func (a *Authenticator) Resolve(ctx context.Context, raw string) (*SessionUser, error) {
	if raw == "" {
		return nil, apierr.Unauthorized(UnauthorizedMsg)
	}
	claims, err := a.tokens.Verify(raw, tokens.PurposeSession)
	if err != nil {
		return nil, apierr.Unauthorized(UnauthorizedMsg)
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, apierr.Unauthorized(UnauthorizedMsg)
	}
	u, err := a.users.GetByID(ctx, id)
	if errors.Is(err, userstore.ErrNotFound) {
		return nil, apierr.Unauthorized(UnauthorizedMsg)
	}
	if err != nil {
		return nil, fmt.Errorf("load session user %s: %w", claims.UserID, err)
	}
	return &SessionUser{
		ID:           u.ID.Hex(),
		Name:         u.FullName,
		Email:        u.Email,
		Role:         u.Role,
		PricingModel: u.PricingModel,
	}, nil
}

// RequireBearer rejects requests without a valid session token.
func (a *Authenticator) RequireBearer(next http.Handler) http.Handler {
	return a.require(next, false)
}

// RequireBearerOrQuery also accepts ?token=, for websocket clients that
// cannot set headers.
func (a *Authenticator) RequireBearerOrQuery(next http.Handler) http.Handler {
	return a.require(next, true)
}

func (a *Authenticator) require(next http.Handler, allowQuery bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" && allowQuery {
			raw = strings.TrimSpace(r.URL.Query().Get("token"))
		}
		u, err := a.Resolve(r.Context(), raw)
		if err != nil {
			apierr.Write(w, a.log, err)
			return
		}
		next.ServeHTTP(w, withUser(r, u))
	})
}
