// internal/app/system/workers/orphans.go
package workers

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// OrphanFinder lists projects that never got an owner membership.
type OrphanFinder interface {
	Orphans(ctx context.Context, cutoff time.Time, limit int64) ([]primitive.ObjectID, error)
}

// CascadeFunc removes a project and everything hanging off it.
type CascadeFunc func(ctx context.Context, projectID primitive.ObjectID) error

const orphanBatch = 100

// OrphanReconcileJob finishes the cleanup of projects older than grace
// that have no owner row, which is what an interrupted create leaves
// behind. A failed cascade is logged and retried on the next run.
func OrphanReconcileJob(finder OrphanFinder, cascade CascadeFunc, logger *zap.Logger, interval, grace time.Duration) Job {
	return Job{
		Name:     "orphan-project-reconcile",
		Interval: interval,
		Timeout:  2 * time.Minute,
		Run: func(ctx context.Context) error {
			ids, err := finder.Orphans(ctx, time.Now().UTC().Add(-grace), orphanBatch)
			if err != nil {
				return fmt.Errorf("find orphans: %w", err)
			}
			var failed int
			for _, id := range ids {
				if err := cascade(ctx, id); err != nil {
					failed++
					logger.Warn("orphan cleanup failed",
						zap.String("project_id", id.Hex()),
						zap.Error(err))
					continue
				}
				logger.Info("removed orphaned project", zap.String("project_id", id.Hex()))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d orphaned projects not removed", failed, len(ids))
			}
			return nil
		},
	}
}
