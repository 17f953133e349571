package todos

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type todoBody struct {
	Title       string `json:"title" validate:"required,max=200" msg:"Title should be required."`
	Description string `json:"description" validate:"max=2000"`
	Status      string `json:"status" validate:"required,oneof=completed in_progress pending" msg:"Status should be one of completed, in_progress, pending."`
	Level       string `json:"level" validate:"required,oneof=easy medium hard" msg:"Level should be one of easy, medium, hard."`
}

func (b todoBody) toModel(userID primitive.ObjectID) models.Todo {
	return models.Todo{
		Title:       b.Title,
		Description: strings.TrimSpace(b.Description),
		Status:      b.Status,
		Level:       b.Level,
		UserID:      userID,
	}
}

func todoID(r *http.Request) (primitive.ObjectID, error) {
	return inputval.ObjectID(chi.URLParam(r, "todoID"), "todoId", "params")
}

// Create adds a todo for the caller.
// POST /todos
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	var body todoBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "todos.create")
	defer cancel()

	t, err := h.Todos.Create(ctx, body.toModel(su.ObjectID()))
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteCreated(w, map[string]any{"todo": t})
}

// List returns the caller's todos created on one UTC day, newest first.
// GET /todos?date=YYYY-MM-DD (default today)
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	day := time.Now().UTC()
	if raw := query.Get(r, "date"); raw != "" {
		d, err := inputval.Date(raw, "date", "query")
		if err != nil {
			h.fail(w, err)
			return
		}
		day = d
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "todos.list")
	defer cancel()

	list, err := h.Todos.ListForDay(ctx, su.ObjectID(), day)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"todoList": list})
}

// Get returns one of the caller's todos.
// GET /todos/{todoID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	id, err := todoID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "todos.get")
	defer cancel()

	t, err := h.Todos.GetOwned(ctx, id, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"todo": t})
}

// Update replaces one of the caller's todos.
// PUT /todos/{todoID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	id, err := todoID(r)
	if err != nil {
		h.fail(w, err)
		return
	}
	var body todoBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "todos.update")
	defer cancel()

	t, err := h.Todos.Update(ctx, id, su.ObjectID(), body.toModel(su.ObjectID()))
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"todo": t})
}

// Delete removes one of the caller's todos.
// DELETE /todos/{todoID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	id, err := todoID(r)
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "todos.delete")
	defer cancel()

	if err := h.Todos.Delete(ctx, id, su.ObjectID()); err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, MsgDeleted)
}
