// internal/app/features/comments/handler.go
package comments

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/policy/projectpolicy"
	commentstore "github.com/dalemusser/projecthub/internal/app/store/comments"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/metrics"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	MsgNotFound     = "Comment not found"
	MsgDeleted      = "Comment deleted successfully."
	MsgEmptyContent = "Content should be required."
	MsgNestedReply  = "Replies cannot be replied to."
)

// Items is the work-item collection comments hang off.
type Items interface {
	ProjectOf(ctx context.Context, id primitive.ObjectID) (primitive.ObjectID, error)
	AddComment(ctx context.Context, id, commentID primitive.ObjectID) error
	RemoveComment(ctx context.Context, id, commentID primitive.ObjectID) error
}

// Target binds the comment endpoints to one kind of work item.
type Target struct {
	Kind        models.AttachmentKind
	Param       string // chi URL parameter carrying the item id
	Items       Items
	ErrNotFound error // the Items store's not-found sentinel
	MsgNotFound string
}

// Handler serves the comment thread of one work-item kind.
type Handler struct {
	DB       *mongo.Database
	Comments *commentstore.Store
	Policy   *projectpolicy.Policy
	Target   Target
	Metrics  *metrics.Registry
	Log      *zap.Logger
}

// NewHandler panics when target.Kind is not a known attachment kind; the
// target is fixed at route wiring, so a bad kind is a startup bug.
func NewHandler(db *mongo.Database, target Target, reg *metrics.Registry, logger *zap.Logger) *Handler {
	if !target.Kind.Valid() {
		panic(fmt.Sprintf("comments: unknown attachment kind %q", target.Kind))
	}
	return &Handler{
		DB:       db,
		Comments: commentstore.New(db),
		Policy:   projectpolicy.New(db),
		Target:   target,
		Metrics:  reg,
		Log:      logger,
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, commentstore.ErrNotFound):
		err = apierr.NotFound(MsgNotFound)
	case errors.Is(err, commentstore.ErrNestedReply):
		err = apierr.Validation("commentId", "params", MsgNestedReply)
	case h.Target.ErrNotFound != nil && errors.Is(err, h.Target.ErrNotFound):
		err = apierr.NotFound(h.Target.MsgNotFound)
	}
	apierr.Write(w, h.Log, err)
}
