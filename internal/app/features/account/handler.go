// internal/app/features/account/handler.go
package account

import (
	"errors"
	"net/http"

	memberstore "github.com/dalemusser/projecthub/internal/app/store/projectmembers"
	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auditlog"
	"github.com/dalemusser/projecthub/internal/app/system/mailer"
	"github.com/dalemusser/projecthub/internal/app/system/ratelimit"
	"github.com/dalemusser/projecthub/internal/app/system/tokens"
	"github.com/dalemusser/projecthub/internal/app/system/uploads"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Links are the frontend pages that emailed tokens point at.
type Links struct {
	SiteName          string
	CreatePasswordURL string
	ResetPasswordURL  string
}

// Handler owns registration, login, password reset and profile endpoints.
type Handler struct {
	DB      *mongo.Database
	Users   *userstore.Store
	Members *memberstore.Store
	Tokens  *tokens.Service
	Mail    mailer.Sender
	Uploads uploads.Store
	Audit   *auditlog.Logger
	Limiter *ratelimit.AuthLimiter
	Links   Links
	Log     *zap.Logger
}

// NewHandler constructs an account Handler. limiter may be nil to disable
// throttling.
func NewHandler(db *mongo.Database, ts *tokens.Service, mail mailer.Sender, up uploads.Store,
	audit *auditlog.Logger, limiter *ratelimit.AuthLimiter, links Links, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Users:   userstore.New(db),
		Members: memberstore.New(db),
		Tokens:  ts,
		Mail:    mail,
		Uploads: up,
		Audit:   audit,
		Limiter: limiter,
		Links:   links,
		Log:     logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, userstore.ErrNotFound) {
		err = apierr.NotFound(MsgUserNotFound)
	}
	apierr.Write(w, h.Log, err)
}

func (h *Handler) allow(r *http.Request, email string) error {
	if h.Limiter == nil {
		return nil
	}
	if ok, reason := h.Limiter.Check(r, email); !ok {
		return apierr.RateLimited(reason)
	}
	return nil
}
