// internal/app/features/todos/handler.go
package todos

import (
	"errors"
	"net/http"

	todostore "github.com/dalemusser/projecthub/internal/app/store/todos"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const (
	MsgNotFound = "Todo not found"
	MsgDeleted  = "Todo deleted successfully."
)

// Handler owns the personal todo endpoints.
type Handler struct {
	DB    *mongo.Database
	Todos *todostore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Todos: todostore.New(db), Log: logger}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, todostore.ErrNotFound) {
		err = apierr.NotFound(MsgNotFound)
	}
	apierr.Write(w, h.Log, err)
}
