// internal/app/features/live/handler.go
package live

import (
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/realtime"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler streams a project's realtime events over a websocket.
type Handler struct {
	Policy  *projectpolicy.Policy
	Hub     *realtime.Hub
	Origins []string // websocket origin patterns; empty means same-origin only
	Log     *zap.Logger
}

func NewHandler(db *mongo.Database, hub *realtime.Hub, origins []string, logger *zap.Logger) *Handler {
	return &Handler{
		Policy:  projectpolicy.New(db),
		Hub:     hub,
		Origins: origins,
		Log:     logger,
	}
}

// ServeProject upgrades accepted members of the path's project and
// subscribes them to its room. Everyone else gets a JSON error before
// the upgrade.
func (h *Handler) ServeProject(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	pid, err := inputval.ObjectID(chi.URLParam(r, "projectID"), "projectId", "params")
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "live.project")
	_, err = h.Policy.RequireAcceptedMember(ctx, pid, su.ObjectID())
	cancel()
	if err != nil {
		apierr.Write(w, h.Log, err)
		return
	}

	h.Log.Debug("realtime subscriber joined",
		zap.String("project_id", pid.Hex()),
		zap.String("user_id", su.ID))
	h.Hub.Serve(w, r, pid.Hex(), h.Origins)
}
