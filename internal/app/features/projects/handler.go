// internal/app/features/projects/handler.go
package projects

import (
	"errors"
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	commentstore "github.com/dalemusser/projecthub/internal/app/store/comments"
	issuestore "github.com/dalemusser/projecthub/internal/app/store/issues"
	labelstore "github.com/dalemusser/projecthub/internal/app/store/labels"
	memberstore "github.com/dalemusser/projecthub/internal/app/store/projectmembers"
	projectstore "github.com/dalemusser/projecthub/internal/app/store/projects"
	taskstore "github.com/dalemusser/projecthub/internal/app/store/tasks"
	userstore "github.com/dalemusser/projecthub/internal/app/store/users"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auditlog"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/mailer"
	"github.com/dalemusser/projecthub/internal/app/system/metrics"
	"github.com/dalemusser/projecthub/internal/app/system/tokens"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Links are the frontend pages that emailed invite tokens point at.
type Links struct {
	SiteName  string
	InviteURL string
}

// Handler owns project, membership, invite and label endpoints.
type Handler struct {
	DB       *mongo.Database
	Projects *projectstore.Store
	Members  *memberstore.Store
	Labels   *labelstore.Store
	Tasks    *taskstore.Store
	Issues   *issuestore.Store
	Comments *commentstore.Store
	Users    *userstore.Store
	Policy   *projectpolicy.Policy
	Tokens   *tokens.Service
	Mail     mailer.Sender
	Audit    *auditlog.Logger
	Metrics  *metrics.Registry
	Links    Links
	Log      *zap.Logger
}

// NewHandler constructs a projects Handler. audit and reg may be nil.
func NewHandler(db *mongo.Database, ts *tokens.Service, mail mailer.Sender, audit *auditlog.Logger,
	reg *metrics.Registry, links Links, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Projects: projectstore.New(db),
		Members:  memberstore.New(db),
		Labels:   labelstore.New(db),
		Tasks:    taskstore.New(db),
		Issues:   issuestore.New(db),
		Comments: commentstore.New(db),
		Users:    userstore.New(db),
		Policy:   projectpolicy.New(db),
		Tokens:   ts,
		Mail:     mail,
		Audit:    audit,
		Metrics:  reg,
		Links:    links,
		Log:      logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, projectstore.ErrNotFound):
		err = apierr.NotFound(projectpolicy.MsgProjectNotFound)
	case errors.Is(err, memberstore.ErrNotFound):
		err = apierr.NotFound(projectpolicy.MsgMemberNotFound)
	case errors.Is(err, memberstore.ErrVersionConflict):
		err = apierr.Conflict(MsgMemberChanged)
	case errors.Is(err, userstore.ErrNotFound):
		err = apierr.NotFound("User not found")
	}
	apierr.Write(w, h.Log, err)
}

func projectID(r *http.Request) (primitive.ObjectID, error) {
	return inputval.ObjectID(chi.URLParam(r, "projectID"), "projectId", "params")
}

func memberID(r *http.Request) (primitive.ObjectID, error) {
	return inputval.ObjectID(chi.URLParam(r, "memberID"), "memberId", "params")
}
