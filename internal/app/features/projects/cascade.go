// internal/app/features/projects/cascade.go
package projects

import (
	"context"
	"errors"
	"fmt"

	projectstore "github.com/dalemusser/projecthub/internal/app/store/projects"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Removed counts what a cascade deleted.
type Removed struct {
	Members  int64
	Tasks    int64
	Issues   int64
	Comments int64
	Labels   int64
}

// Cascade deletes a project's members, tasks, issues, their comments and
// the labels, then the project itself. Each step is idempotent, so a
// failed cascade can be re-run; a missing project row is not an error.
func (h *Handler) Cascade(ctx context.Context, pid primitive.ObjectID) (Removed, error) {
	var out Removed
	var err error

	if out.Members, err = h.Members.DeleteAllForProject(ctx, pid); err != nil {
		return out, fmt.Errorf("delete members: %w", err)
	}

	taskIDs, err := h.Tasks.IDsForProject(ctx, pid)
	if err != nil {
		return out, fmt.Errorf("list tasks: %w", err)
	}
	if out.Tasks, err = h.Tasks.DeleteAllForProject(ctx, pid); err != nil {
		return out, fmt.Errorf("delete tasks: %w", err)
	}

	issueIDs, err := h.Issues.IDsForProject(ctx, pid)
	if err != nil {
		return out, fmt.Errorf("list issues: %w", err)
	}
	if out.Issues, err = h.Issues.DeleteAllForProject(ctx, pid); err != nil {
		return out, fmt.Errorf("delete issues: %w", err)
	}

	n, err := h.Comments.DeleteForTargets(ctx, models.AttachTask, taskIDs)
	if err != nil {
		return out, fmt.Errorf("delete task comments: %w", err)
	}
	out.Comments += n
	n, err = h.Comments.DeleteForTargets(ctx, models.AttachIssue, issueIDs)
	if err != nil {
		return out, fmt.Errorf("delete issue comments: %w", err)
	}
	out.Comments += n

	if out.Labels, err = h.Labels.DeleteAllForProject(ctx, pid); err != nil {
		return out, fmt.Errorf("delete labels: %w", err)
	}
	if err := h.Projects.Delete(ctx, pid); err != nil && !errors.Is(err, projectstore.ErrNotFound) {
		return out, fmt.Errorf("delete project: %w", err)
	}
	return out, nil
}

// RemoveOrphan cascades a project found without an owner row. It is the
// orphan worker's cleanup step. The owner count is re-read first, and a
// project that regained an owner since the scan is left alone.
func (h *Handler) RemoveOrphan(ctx context.Context, pid primitive.ObjectID) error {
	owners, err := h.Members.CountOwners(ctx, pid)
	if err != nil {
		return fmt.Errorf("count owners: %w", err)
	}
	if owners > 0 {
		h.Log.Debug("orphan skipped, owner present", zap.String("project_id", pid.Hex()))
		return nil
	}
	removed, err := h.Cascade(ctx, pid)
	if err != nil {
		return err
	}
	h.Log.Debug("orphan cascade",
		zap.String("project_id", pid.Hex()),
		zap.Int64("tasks", removed.Tasks),
		zap.Int64("issues", removed.Issues),
		zap.Int64("labels", removed.Labels))
	return nil
}
