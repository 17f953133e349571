// internal/app/features/sheets/handler.go
package sheets

import (
	"errors"
	"net/http"

	sheetstore "github.com/dalemusser/projecthub/internal/app/store/blsheets"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// MsgNotFound is returned for missing sheets and sheets owned by others.
const MsgNotFound = "Bl sheet not found"

// Handler owns the BL Sheet endpoints. Every sheet is private to its owner.
type Handler struct {
	DB     *mongo.Database
	Sheets *sheetstore.Store
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{DB: db, Sheets: sheetstore.New(db), Log: logger}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, sheetstore.ErrNotFound) {
		err = apierr.NotFound(MsgNotFound)
	}
	apierr.Write(w, h.Log, err)
}
