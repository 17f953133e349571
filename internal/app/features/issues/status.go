package issues

import (
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/domain/models"
)

type statusBody struct {
	Status string `json:"status" validate:"required,oneof=open closed" msg:"Status should be open or closed."`
}

// SetStatus closes or reopens an issue. Only project moderators may do
// this; being the issue's creator is not enough.
// PUT /projects/{projectID}/issues/{issueID}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var body statusBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "issues.status")
	defer cancel()

	a, is, err := h.issue(ctx, r)
	if err != nil {
		h.fail(w, err)
		return
	}
	if !a.IsProjectOwnerOrAdmin() {
		h.fail(w, apierr.Forbidden(projectpolicy.MsgOwnerOrAdminOnly))
		return
	}

	msg := MsgReopened
	if body.Status == models.IssueClosed {
		msg = MsgClosed
	}
	if is.Status != body.Status {
		if _, err := h.Issues.SetStatus(ctx, is.ID, body.Status, a.UserID); err != nil {
			h.fail(w, err)
			return
		}
		h.Audit.IssueStatusChanged(ctx, r, a.UserID, a.Project.ID, is.ID, body.Status == models.IssueClosed)
	}
	h.row(ctx, w, a, is.ID, map[string]any{"msg": msg})
}
