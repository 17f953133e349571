package tasks

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/projecthub/internal/app/features/shared/workitem"
	taskstore "github.com/dalemusser/projecthub/internal/app/store/tasks"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/realtime"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type createBody struct {
	Title       string   `json:"title" validate:"required,max=200" msg:"Title should be required."`
	Description string   `json:"description" validate:"max=20000"`
	Status      string   `json:"status" validate:"omitempty,oneof=todo in_progress under_review completed" msg:"Status should be one of todo, in_progress, under_review, completed."`
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high" msg:"Priority should be one of low, medium, high."`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Tags        []string `json:"tags" validate:"max=20,dive,max=40"`
	AssignedTo  []string `json:"assignedTo" validate:"max=50"`
	Attachments []string `json:"attachments" validate:"max=20,dive,url" msg:"Attachments should be valid URLs."`
}

type updateBody struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200" msg:"Title should be between 1 and 200 characters."`
	Description *string  `json:"description" validate:"omitempty,max=20000"`
	Status      *string  `json:"status" validate:"omitempty,oneof=todo in_progress under_review completed" msg:"Status should be one of todo, in_progress, under_review, completed."`
	Priority    *string  `json:"priority" validate:"omitempty,oneof=low medium high" msg:"Priority should be one of low, medium, high."`
	StartDate   *string  `json:"startDate"`
	EndDate     *string  `json:"endDate"`
	Tags        []string `json:"tags" validate:"omitempty,max=20,dive,max=40"`
	Attachments []string `json:"attachments" validate:"omitempty,max=20,dive,url" msg:"Attachments should be valid URLs."`
}

func dateRange(start, end string) (*time.Time, *time.Time, error) {
	s, err := inputval.OptionalDate(start, "startDate", "body")
	if err != nil {
		return nil, nil, err
	}
	e, err := inputval.OptionalDate(end, "endDate", "body")
	if err != nil {
		return nil, nil, err
	}
	if s != nil && e != nil && e.Before(*s) {
		return nil, nil, apierr.Validation("endDate", "body", MsgBadRange)
	}
	return s, e, nil
}

// List returns the project's board. With isGroup the rows come bucketed by
// status; otherwise one page plus totalCount.
// GET /projects/{projectID}/tasks
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := workitem.ParseList(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "tasks.list")
	defer cancel()

	a, err := h.access(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	q := taskstore.ListQuery{
		ProjectID:     a.Project.ID,
		Viewer:        workitem.Viewer(a),
		Search:        p.Search,
		Priority:      p.Priority,
		CreatedByMe:   p.CreatedByMe,
		AssignedToMe:  p.AssignedToMe,
		OnlyCompleted: inputval.Flag(query.Get(r, "onlyCompleted")),
		Ascending:     p.Ascending,
	}

	if p.Grouped {
		groups, err := h.Tasks.ListGrouped(ctx, q)
		if err != nil {
			h.fail(w, err)
			return
		}
		apierr.WriteOK(w, map[string]any{"projectTasks": groups})
		return
	}

	rows, total, err := h.Tasks.List(ctx, q, p.Page)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{
		"projectTasks": rows,
		"totalCount":   total,
		"totalPages":   p.Page.TotalPages(total),
	})
}

// Assigned returns every task assigned to the caller, grouped by status.
// GET /projects/{projectID}/tasks/assigned
func (h *Handler) Assigned(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "tasks.assigned")
	defer cancel()

	a, err := h.access(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	groups, err := h.Tasks.AssignedToMember(ctx, a.Project.ID, workitem.Viewer(a))
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"projectTasks": groups})
}

// Get returns one task.
// GET /projects/{projectID}/tasks/{taskID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "tasks.get")
	defer cancel()

	a, t, err := h.task(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.row(ctx, w, a, t.ID, http.StatusOK)
}

// Create adds a task. Any accepted member may create; assignees must be
// accepted members of the same project. Creation is broadcast to the
// project room and assignees are mailed.
// POST /projects/{projectID}/tasks
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	start, end, err := dateRange(body.StartDate, body.EndDate)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "tasks.create")
	defer cancel()

	a, err := h.access(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	assignees, err := workitem.Assignees(ctx, h.Policy, a.Project.ID, body.AssignedTo)
	if err != nil {
		h.fail(w, err)
		return
	}

	t, err := h.Tasks.Create(ctx, models.Task{
		Title:       body.Title,
		Description: htmlsanitize.Sanitize(body.Description),
		Status:      body.Status,
		Priority:    body.Priority,
		ProjectID:   a.Project.ID,
		UserID:      a.UserID,
		StartDate:   start,
		EndDate:     end,
		Tags:        body.Tags,
		AssignedTo:  workitem.IDs(assignees),
		Attachments: body.Attachments,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Metrics.Created("task")

	row, err := h.Tasks.Row(ctx, t.ID, workitem.Viewer(a))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.announce(ctx, row)
	h.Notify.Assigned(ctx, workitem.Assignment{Kind: "task", Title: t.Title, Project: a.Project, Link: h.link(&t)}, assignees...)
	apierr.WriteCreated(w, map[string]any{"projectTask": row})
}

// announce pushes the created task to the project room. Publishing never
// blocks the response and its failures are only logged.
func (h *Handler) announce(ctx context.Context, row *models.TaskRow) {
	if h.Events == nil {
		return
	}
	// Viewer-relative flags are meaningless to other room members.
	payload := *row
	payload.IsCreator = false
	payload.IsAssignee = false
	h.Events.Publish(context.WithoutCancel(ctx), row.ProjectID, realtime.TaskCreated, payload)
}

// Update edits a task. Allowed for its creator and project moderators.
// PUT /projects/{projectID}/tasks/{taskID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "tasks.update")
	defer cancel()

	a, t, err := h.task(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := a.RequireModify(t.UserID); err != nil {
		h.fail(w, err)
		return
	}

	upd := taskstore.Update{
		Title:       body.Title,
		Status:      body.Status,
		Priority:    body.Priority,
		Tags:        body.Tags,
		Attachments: body.Attachments,
	}
	if body.Description != nil {
		clean := htmlsanitize.Sanitize(*body.Description)
		upd.Description = &clean
	}
	startRaw, endRaw := "", ""
	if body.StartDate != nil {
		startRaw = *body.StartDate
	}
	if body.EndDate != nil {
		endRaw = *body.EndDate
	}
	if upd.StartDate, upd.EndDate, err = dateRange(startRaw, endRaw); err != nil {
		h.fail(w, err)
		return
	}
	// Check the range against the stored side when only one end changes.
	if s, e := pick(upd.StartDate, t.StartDate), pick(upd.EndDate, t.EndDate); s != nil && e != nil && e.Before(*s) {
		h.fail(w, apierr.Validation("endDate", "body", MsgBadRange))
		return
	}

	if _, err := h.Tasks.Update(ctx, t.ID, upd); err != nil {
		h.fail(w, err)
		return
	}
	h.row(ctx, w, a, t.ID, http.StatusOK)
}

func pick(v, fallback *time.Time) *time.Time {
	if v != nil {
		return v
	}
	return fallback
}

// Delete removes a task and its comment thread. Allowed for its creator
// and project moderators.
// DELETE /projects/{projectID}/tasks/{taskID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "tasks.delete")
	defer cancel()

	a, t, err := h.task(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := a.RequireModify(t.UserID); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Tasks.Delete(ctx, t.ID); err != nil {
		h.fail(w, err)
		return
	}
	if n, err := h.Comments.DeleteForTargets(ctx, models.AttachTask, []primitive.ObjectID{t.ID}); err != nil {
		h.Log.Warn("task comment cleanup failed", zap.String("task_id", t.ID.Hex()), zap.Error(err))
	} else if n > 0 {
		h.Log.Debug("task comments removed", zap.String("task_id", t.ID.Hex()), zap.Int64("count", n))
	}
	apierr.WriteOK(w, map[string]any{"msg": MsgDeleted, "deletedTaskId": t.ID})
}
