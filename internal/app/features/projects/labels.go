package projects

import (
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
)

// ListLabels lists the project's labels.
// GET /projects/{projectID}/labels
func (h *Handler) ListLabels(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := projectID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "projects.labels")
	defer cancel()

	if _, err := h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID()); err != nil {
		h.fail(w, err)
		return
	}
	labels, err := h.Labels.ListByProject(ctx, pid)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"labels": labels})
}
