// internal/app/features/tasks/handler.go
package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dalemusser/projecthub/internal/app/features/shared/workitem"
	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	commentstore "github.com/dalemusser/projecthub/internal/app/store/comments"
	taskstore "github.com/dalemusser/projecthub/internal/app/store/tasks"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
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
	MsgNotFound = "Project task not found"
	MsgDeleted  = "Project task deleted successfully."
	MsgBadRange = "End date should not be before start date."
)

// Handler owns the task board endpoints of a project.
type Handler struct {
	DB       *mongo.Database
	Tasks    *taskstore.Store
	Comments *commentstore.Store
	Policy   *projectpolicy.Policy
	Events   realtime.Publisher
	Notify   *workitem.Notifier
	Metrics  *metrics.Registry
	AppURL   string // frontend base for links in assignment emails
	Log      *zap.Logger
}

// NewHandler constructs a tasks Handler. events, notify and reg may be nil.
func NewHandler(db *mongo.Database, events realtime.Publisher, notify *workitem.Notifier,
	reg *metrics.Registry, appURL string, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Tasks:    taskstore.New(db),
		Comments: commentstore.New(db),
		Policy:   projectpolicy.New(db),
		Events:   events,
		Notify:   notify,
		Metrics:  reg,
		AppURL:   strings.TrimRight(appURL, "/"),
		Log:      logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, taskstore.ErrNotFound) {
		err = apierr.NotFound(MsgNotFound)
	}
	apierr.Write(w, h.Log, err)
}

func (h *Handler) link(t *models.Task) string {
	return fmt.Sprintf("%s/projects/%s/tasks/%s", h.AppURL, t.ProjectID.Hex(), t.ID.Hex())
}

func projectID(r *http.Request) (primitive.ObjectID, error) {
	return inputval.ObjectID(chi.URLParam(r, "projectID"), "projectId", "params")
}

// access resolves the caller's accepted membership in the path's project.
func (h *Handler) access(ctx context.Context, r *http.Request) (projectpolicy.Access, error) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		return projectpolicy.Access{}, err
	}
	return h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID())
}

// task resolves access and loads the path's task, which must belong to
// the path's project.
func (h *Handler) task(ctx context.Context, r *http.Request) (projectpolicy.Access, *models.Task, error) {
	a, err := h.access(ctx, r)
	if err != nil {
		return a, nil, err
	}
	id, err := inputval.ObjectID(chi.URLParam(r, "taskID"), "taskId", "params")
	if err != nil {
		return a, nil, err
	}
	t, err := h.Tasks.GetByID(ctx, id)
	if err != nil {
		return a, nil, err
	}
	if t.ProjectID != a.Project.ID {
		return a, nil, apierr.NotFound(MsgNotFound)
	}
	return a, t, nil
}

// row answers with the display-ready task.
func (h *Handler) row(ctx context.Context, w http.ResponseWriter, a projectpolicy.Access, id primitive.ObjectID, status int) {
	row, err := h.Tasks.Row(ctx, id, workitem.Viewer(a))
	if err != nil {
		h.fail(w, err)
		return
	}
	if status == http.StatusCreated {
		apierr.WriteCreated(w, map[string]any{"projectTask": row})
		return
	}
	apierr.WriteOK(w, map[string]any{"projectTask": row})
}
