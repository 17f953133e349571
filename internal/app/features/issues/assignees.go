package issues

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

// Assign adds an accepted member of the project to the issue's assignees.
// POST /projects/{projectID}/issues/{issueID}/assignees
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

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issues.assign")
	defer cancel()

	a, is, err := h.issue(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	m, err := h.Policy.Assignable(ctx, a.Project.ID, mid)
	if err != nil {
		h.fail(w, err)
		return
	}
	already := slices.Contains(is.Assignees, m.ID)
	if _, err := h.Issues.Assign(ctx, is.ID, m.ID); err != nil {
		h.fail(w, err)
		return
	}
	if !already {
		h.Notify.Assigned(ctx, workitem.Assignment{Kind: "issue", Title: is.Title, Project: a.Project, Link: h.link(is)}, m)
	}
	h.row(ctx, w, a, is.ID, nil)
}

// Unassign removes a member from the issue's assignees. Allowed for the
// issue's creator and project moderators.
// DELETE /projects/{projectID}/issues/{issueID}/assignees/{memberID}
func (h *Handler) Unassign(w http.ResponseWriter, r *http.Request) {
	mid, err := inputval.ObjectID(chi.URLParam(r, "memberID"), "memberId", "params")
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issues.unassign")
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
	m, err := h.Policy.Assignable(ctx, a.Project.ID, mid)
	if err != nil {
		h.fail(w, err)
		return
	}
	if _, err := h.Issues.Unassign(ctx, is.ID, m.ID); err != nil {
		h.fail(w, err)
		return
	}
	h.row(ctx, w, a, is.ID, nil)
}
