// internal/app/features/issues/handler.go
package issues

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/projecthub/internal/app/features/shared/workitem"
	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	commentstore "github.com/dalemusser/projecthub/internal/app/store/comments"
	issuestore "github.com/dalemusser/projecthub/internal/app/store/issues"
	labelstore "github.com/dalemusser/projecthub/internal/app/store/labels"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auditlog"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/metrics"
	"github.com/dalemusser/projecthub/internal/app/system/realtime"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	MsgNotFound = "Project issue not found"
	MsgDeleted  = "Project issue deleted successfully."
	MsgClosed   = "Issue closed successfully"
	MsgReopened = "Issue reopened successfully"
)

// Handler owns the issue tracker endpoints of a project.
type Handler struct {
	DB       *mongo.Database
	Issues   *issuestore.Store
	Labels   *labelstore.Store
	Comments *commentstore.Store
	Policy   *projectpolicy.Policy
	Events   realtime.Publisher
	Notify   *workitem.Notifier
	Audit    *auditlog.Logger
	Metrics  *metrics.Registry
	AppURL   string
	Log      *zap.Logger
}

// NewHandler constructs an issues Handler. events, notify, audit and reg
// may be nil.
func NewHandler(db *mongo.Database, events realtime.Publisher, notify *workitem.Notifier,
	audit *auditlog.Logger, reg *metrics.Registry, appURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Issues:   issuestore.New(db),
		Labels:   labelstore.New(db),
		Comments: commentstore.New(db),
		Policy:   projectpolicy.New(db),
		Events:   events,
		Notify:   notify,
		Audit:    audit,
		Metrics:  reg,
		AppURL:   strings.TrimRight(appURL, "/"),
		Log:      logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, issuestore.ErrNotFound) {
		err = apierr.NotFound(MsgNotFound)
	}
	apierr.Write(w, h.Log, err)
}

func (h *Handler) link(is *models.Issue) string {
	return fmt.Sprintf("%s/projects/%s/issues/%s", h.AppURL, is.ProjectID.Hex(), is.ID.Hex())
}

func (h *Handler) access(ctx context.Context, r *http.Request) (projectpolicy.Access, error) {
	su, _ := auth.CurrentUser(r)
	pid, err := inputval.ObjectID(chi.URLParam(r, "projectID"), "projectId", "params")
	if err != nil {
		return projectpolicy.Access{}, err
	}
	return h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID())
}

// issue resolves access and loads the path's issue within the path's project.
func (h *Handler) issue(ctx context.Context, r *http.Request) (projectpolicy.Access, *models.Issue, error) {
	a, err := h.access(ctx, r)
	if err != nil {
		return a, nil, err
	}
	id, err := inputval.ObjectID(chi.URLParam(r, "issueID"), "issueId", "params")
	if err != nil {
		return a, nil, err
	}
	is, err := h.Issues.GetByID(ctx, id)
	if err != nil {
		return a, nil, err
	}
	if is.ProjectID != a.Project.ID {
		return a, nil, apierr.NotFound(MsgNotFound)
	}
	return a, is, nil
}

// checkLabels requires every name to be a live label of the project.
func (h *Handler) checkLabels(ctx context.Context, projectID primitive.ObjectID, names []string) error {
	if len(names) == 0 {
		return nil
	}
	known, err := h.Labels.Names(ctx, projectID)
	if err != nil {
		return err
	}
	for _, n := range names {
		if !known[strings.TrimSpace(n)] {
			return apierr.Validation("labels", "body", fmt.Sprintf("Label %q does not exist in this project.", n))
		}
	}
	return nil
}

func (h *Handler) row(ctx context.Context, w http.ResponseWriter, a projectpolicy.Access, id primitive.ObjectID, extra map[string]any) {
	row, err := h.Issues.Row(ctx, id, workitem.Viewer(a))
	if err != nil {
		h.fail(w, err)
		return
	}
	out := map[string]any{"projectIssue": row}
	for k, v := range extra {
		out[k] = v
	}
	apierr.WriteOK(w, out)
}
