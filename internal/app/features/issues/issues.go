package issues

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/projecthub/internal/app/features/shared/workitem"
	issuestore "github.com/dalemusser/projecthub/internal/app/store/issues"
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
	Priority    string   `json:"priority" validate:"omitempty,oneof=low medium high" msg:"Priority should be one of low, medium, high."`
	Labels      []string `json:"labels" validate:"max=20"`
	Assignees   []string `json:"assignees" validate:"max=50"`
}

type updateBody struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=200" msg:"Title should be between 1 and 200 characters."`
	Description *string  `json:"description" validate:"omitempty,max=20000"`
	Priority    *string  `json:"priority" validate:"omitempty,oneof=low medium high" msg:"Priority should be one of low, medium, high."`
	Labels      []string `json:"labels" validate:"omitempty,max=20"`
}

// List returns the project's issues with open/closed counts. With isGroup
// the rows come bucketed by status; otherwise one page plus totalCount.
// GET /projects/{projectID}/issues
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	p, err := workitem.ParseList(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	status := strings.ToLower(query.Get(r, "status"))
	switch status {
	case "", "all":
		status = ""
	case models.IssueOpen, models.IssueClosed:
	default:
		h.fail(w, apierr.Validation("status", "query", "Status should be one of open, closed, all."))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "issues.list")
	defer cancel()

	a, err := h.access(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	q := issuestore.ListQuery{
		ProjectID:    a.Project.ID,
		Viewer:       workitem.Viewer(a),
		Search:       p.Search,
		Priority:     p.Priority,
		Status:       status,
		Labels:       workitem.Values(r, "labels"),
		CreatedByMe:  p.CreatedByMe,
		AssignedToMe: p.AssignedToMe,
		Ascending:    p.Ascending,
	}
	counts, err := h.Issues.Counts(ctx, a.Project.ID)
	if err != nil {
		h.fail(w, err)
		return
	}

	if p.Grouped {
		groups, err := h.Issues.ListGrouped(ctx, q)
		if err != nil {
			h.fail(w, err)
			return
		}
		apierr.WriteOK(w, map[string]any{"projectIssues": groups, "issueCounts": counts})
		return
	}

	rows, total, err := h.Issues.List(ctx, q, p.Page)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{
		"projectIssues": rows,
		"totalCount":    total,
		"totalPages":    p.Page.TotalPages(total),
		"issueCounts":   counts,
	})
}

// Get returns one issue.
// GET /projects/{projectID}/issues/{issueID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issues.get")
	defer cancel()

	a, is, err := h.issue(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.row(ctx, w, a, is.ID, nil)
}

// Create opens an issue. Any accepted member may create; labels must exist
// in the project and assignees must be accepted members of it.
// POST /projects/{projectID}/issues
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "issues.create")
	defer cancel()

	a, err := h.access(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := h.checkLabels(ctx, a.Project.ID, body.Labels); err != nil {
		h.fail(w, err)
		return
	}
	assignees, err := workitem.Assignees(ctx, h.Policy, a.Project.ID, body.Assignees)
	if err != nil {
		h.fail(w, err)
		return
	}

	is, err := h.Issues.Create(ctx, models.Issue{
		Title:       body.Title,
		Description: htmlsanitize.Sanitize(body.Description),
		Priority:    body.Priority,
		ProjectID:   a.Project.ID,
		UserID:      a.UserID,
		Labels:      body.Labels,
		Assignees:   workitem.IDs(assignees),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.Metrics.Created("issue")

	row, err := h.Issues.Row(ctx, is.ID, workitem.Viewer(a))
	if err != nil {
		h.fail(w, err)
		return
	}
	if h.Events != nil {
		payload := *row
		payload.IsCreator, payload.IsAssignee = false, false
		h.Events.Publish(context.WithoutCancel(ctx), is.ProjectID, realtime.IssueCreated, payload)
	}
	h.Notify.Assigned(ctx, workitem.Assignment{Kind: "issue", Title: is.Title, Project: a.Project, Link: h.link(&is)}, assignees...)
	apierr.WriteCreated(w, map[string]any{"projectIssue": row})
}

// Update edits an issue's content. Allowed for its creator and project
// moderators. Status moves only through SetStatus.
// PUT /projects/{projectID}/issues/{issueID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var body updateBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issues.update")
	defer cancel()

	a, is, err := h.issue(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := a.RequireModify(is.UserID); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.checkLabels(ctx, a.Project.ID, body.Labels); err != nil {
		h.fail(w, err)
		return
	}

	upd := issuestore.Update{Title: body.Title, Priority: body.Priority, Labels: body.Labels}
	if body.Description != nil {
		clean := htmlsanitize.Sanitize(*body.Description)
		upd.Description = &clean
	}
	if _, err := h.Issues.Update(ctx, is.ID, upd); err != nil {
		h.fail(w, err)
		return
	}
	h.row(ctx, w, a, is.ID, nil)
}

// Delete removes an issue and its comment thread. Allowed for its creator
// and project moderators.
// DELETE /projects/{projectID}/issues/{issueID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "issues.delete")
	defer cancel()

	a, is, err := h.issue(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := a.RequireModify(is.UserID); err != nil {
		h.fail(w, err)
		return
	}
	if err := h.Issues.Delete(ctx, is.ID); err != nil {
		h.fail(w, err)
		return
	}
	if _, err := h.Comments.DeleteForTargets(ctx, models.AttachIssue, []primitive.ObjectID{is.ID}); err != nil {
		h.Log.Warn("issue comment cleanup failed", zap.String("issue_id", is.ID.Hex()), zap.Error(err))
	}
	apierr.WriteOK(w, map[string]any{"msg": MsgDeleted, "deletedIssueId": is.ID})
}
