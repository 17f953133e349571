package sheets

import (
	"net/http"

	"github.com/dalemusser/projecthub/internal/app/system/apierr"
	"github.com/dalemusser/projecthub/internal/app/system/auth"
	"github.com/dalemusser/projecthub/internal/app/system/timeouts"
)

// Totals sums money and tax split by payment state.
// GET /sheets/analytics/total
func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "sheets.totals")
	defer cancel()

	totals, err := h.Sheets.Totals(ctx, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"totals": totals})
}

// Daily returns per-day totals for the last 30 days.
// GET /sheets/analytics/daily
func (h *Handler) Daily(w http.ResponseWriter, r *http.Request) {
	su, _ := auth.CurrentUser(r)
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "sheets.daily")
	defer cancel()

	days, err := h.Sheets.Daily(ctx, su.ObjectID())
	if err != nil {
		h.fail(w, err)
		return
	}
	apierr.WriteOK(w, map[string]any{"daily": days})
}
