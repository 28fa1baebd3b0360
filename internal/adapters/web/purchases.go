package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"supply-console/internal/app"
	"supply-console/internal/core"
)

// listPurchases handles GET /api/purchases. Filters, in order of precedence:
// ?q= (search), ?start=&end= (date range); otherwise ?page= of the listing.
func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	res, searching, err := h.queryPurchases(r, pageParam(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, listView[purchaseView]{
		Items:      purchaseViews(res.Purchases),
		Page:       res.Page,
		TotalPages: res.TotalPages,
		Total:      res.Total,
		Searching:  searching,
	})
}

func (h *Handler) queryPurchases(r *http.Request, page int) (*app.PurchaseListResult, bool, error) {
	svc := sessionFrom(r).svc
	q := r.URL.Query()
	if text := strings.TrimSpace(q.Get("q")); text != "" {
		res, err := svc.SearchPurchases(r.Context(), text)
		return res, true, err
	}
	if q.Get("start") != "" || q.Get("end") != "" {
		start, err := core.ParseDate(q.Get("start"))
		if err != nil {
			return nil, true, &core.ValidationError{Field: "startDate", Message: err.Error()}
		}
		end, err := core.ParseDate(q.Get("end"))
		if err != nil {
			return nil, true, &core.ValidationError{Field: "endDate", Message: err.Error()}
		}
		res, err := svc.PurchasesByDateRange(r.Context(), start, end)
		return res, true, err
	}
	res, err := svc.ListPurchases(r.Context(), page)
	return res, false, err
}

func (h *Handler) getPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := sessionFrom(r).svc.GetPurchase(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, toPurchaseView(*p))
}

func (h *Handler) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok || !confirmed(w, r, fmt.Sprintf("delete purchase #%d", id)) {
		return
	}
	if err := sessionFrom(r).svc.DeletePurchase(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// changePurchaseStatus handles POST /api/purchases/{id}/status?confirm=true
// with body {"status": "DELIVERED"}.
func (h *Handler) changePurchaseStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	to, err := core.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if !confirmed(w, r, fmt.Sprintf("change purchase #%d to %s", id, core.StatusLabel(h.opts.Language, to))) {
		return
	}
	updated, err := sessionFrom(r).svc.ChangePurchaseStatus(r.Context(), id, to)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	p, err := sessionFrom(r).svc.GetPurchase(r.Context(), updated.ID)
	if err != nil {
		// The change went through; answer with the unresolved copy.
		p = updated
	}
	writeJSON(w, toPurchaseView(*p))
}

// exportPurchases handles GET /api/purchases/export with the same filters as
// the listing; without filters every page is exported.
func (h *Handler) exportPurchases(w http.ResponseWriter, r *http.Request) {
	var rows []core.Purchase
	for page := 0; ; page++ {
		res, searching, err := h.queryPurchases(r, page)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		rows = append(rows, res.Purchases...)
		if searching || page+1 >= res.TotalPages || len(res.Purchases) == 0 {
			break
		}
	}
	var buf bytes.Buffer
	if err := sessionFrom(r).svc.ExportPurchases(r.Context(), &buf, rows); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeWorkbook(w, "purchases.xlsx", &buf)
}
