package sheets

import (
	"net/http"
	"strings"

	sheetstore "github.com/dalemusser/projecthub/internal/app/store/blsheets"
	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/inputval"
	"github.com/dalemusser/projecthub/internal/app/system/paging"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
	"github.com/dalemusser/projecthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/go-chi/chi/v5"
)

type sheetBody struct {
	ClientName  string   `json:"clientName" validate:"required,max=200" msg:"Client name should be required."`
	Description string   `json:"description" validate:"required,max=2000" msg:"Description should be required."`
	Money       *float64 `json:"money" validate:"required,gte=0" msg:"Money should be a non-negative number."`
	IsPaid      *bool    `json:"isPaid" validate:"required" msg:"Is paid should be required."`
	Tax         *float64 `json:"tax" validate:"required,gte=0" msg:"Tax should be a non-negative number."`
	Date        string   `json:"date" validate:"required" msg:"Date should be required."`
}

func (b sheetBody) toModel() (models.BLSheet, error) {
	date, err := inputval.Date(b.Date, "date", "body")
	if err != nil {
		return models.BLSheet{}, err
	}
	return models.BLSheet{
		ClientName:  b.ClientName,
		Description: strings.TrimSpace(b.Description),
		Money:       *b.Money,
		IsPaid:      *b.IsPaid,
		Tax:         *b.Tax,
		Date:        date,
	}, nil
}

type listPayload struct {
	BLSheets   []models.BLSheet `json:"blSheets"`
	TotalCount int64            `json:"totalCount"`
	TotalPages int64            `json:"totalPages"`
}

// Create records a new sheet for the caller.
// POST /sheets
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	var body sheetBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	sh, err := body.toModel()
	if err != nil {
		h.fail(w, err)
		return
	}
	sh.UserID = su.ObjectID()

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sheets.create")
	defer cancel()

	created, err := h.Sheets.Create(ctx, sh)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteCreated(w, map[string]any{"blSheet": created})
}

// List returns one page of the caller's sheets.
// GET /sheets?search=&type=paid|unpaid|all&from=&to=&currentPage=&perPage=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)

	f := sheetstore.ListFilter{Search: query.Get(r, "search")}
	switch t := strings.ToLower(query.Get(r, "type")); t {
	case "", "all":
	case sheetstore.TypePaid, sheetstore.TypeUnpaid:
		f.Type = t
	default:
		h.fail(w, apierr.Validation("type", "query", "type should be one of: paid, unpaid, all."))
		return
	}
	var err error
	if f.From, err = inputval.OptionalDate(query.Get(r, "from"), "from", "query"); err != nil {
		h.fail(w, err)
		return
	}
	if f.To, err = inputval.OptionalDate(query.Get(r, "to"), "to", "query"); err != nil {
		h.fail(w, err)
		return
	}
	page := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "sheets.list")
	defer cancel()

	rows, total, err := h.Sheets.List(ctx, su.ObjectID(), f, page)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, listPayload{BLSheets: rows, TotalCount: total, TotalPages: page.TotalPages(total)})
}

// Update replaces a sheet owned by the caller.
// PUT /sheets/{sheetID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	id, err := inputval.ObjectID(chi.URLParam(r, "sheetID"), "sheetId", "params")
	if err != nil {
		h.fail(w, err)
		return
	}
	var body sheetBody
	if err := inputval.DecodeJSON(w, r, &body); err != nil {
		h.fail(w, err)
		return
	}
	sh, err := body.toModel()
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sheets.update")
	defer cancel()

	updated, err := h.Sheets.Update(ctx, id, su.ObjectID(), sh)
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"blSheet": updated})
}

// Delete removes a sheet owned by the caller.
// DELETE /sheets/{sheetID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	id, err := inputval.ObjectID(chi.URLParam(r, "sheetID"), "sheetId", "params")
	if err != nil {
		h.fail(w, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "sheets.delete")
	defer cancel()

	if err := h.Sheets.Delete(ctx, id, su.ObjectID()); err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"deletedBlSheetId": id})
}
