package tasks

import (
	"net/http"
	"slices"

	"github.com/dalemusser/projecthub/internal/app/features/shared/workitem"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type assignBody struct {
	MemberID string `json:"memberId" validate:"required,objectid" msg:"Member id should be a valid id."`
}

// Assign adds an accepted member of the project to the task's assignees.
// Assigning someone already assigned is a no-op; only new assignees are
// mailed.
// POST /projects/{projectID}/tasks/{taskID}/assignees
func (h *Handler) Assign(w http.ResponseWriter, r *http.Request) {
	var body assignBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	mid, err := inputval.ObjectID(body.MemberID, "memberId", "body")
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "tasks.assign")
	defer cancel()

	a, t, err := h.task(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	m, err := h.Policy.Assignable(ctx, a.Project.ID, mid)
	if err != nil {
		h.fail(w, err)
		return
	}
	already := slices.Contains(t.AssignedTo, m.ID)
	if _, err := h.Tasks.Assign(ctx, t.ID, m.ID); err != nil {
		h.fail(w, err)
		return
	}
	if !already {
		h.Notify.Assigned(ctx, workitem.Assignment{Kind: "task", Title: t.Title, Project: a.Project, Link: h.link(t)}, m)
	}
	h.row(ctx, w, a, t.ID, http.StatusOK)
}

// Unassign removes a member from the task's assignees. Allowed for the
// task's creator and project moderators.
// DELETE /projects/{projectID}/tasks/{taskID}/assignees/{memberID}
func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	mid, err := inputval.ObjectID(chi.URLParam(r, "memberID"), "memberId", "params")
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "tasks.unassign")
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
	m, err := h.Policy.Assignable(ctx, a.Project.ID, mid)
	if err != nil {
		h.fail(w, err)
		return
	}
	if _, err := h.Tasks.Unassign(ctx, t.ID, m.ID); err != nil {
		h.fail(w, err)
		return
	}
	h.row(ctx, w, a, t.ID, http.StatusOK)
}
