package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"supply-console/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// draft is an open purchase form owned by one browser session.
type draft struct {
	id      string
	session string
	comp    *core.Composer

	mu       sync.Mutex
	proposal *core.Proposal
}

type pendingView struct {
	Product   *refView    `json:"product"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
}

type draftView struct {
	ID                   string         `json:"id"`
	PurchaseID           int64          `json:"purchase_id,omitempty"`
	Supplier             *refView       `json:"supplier"`
	PurchaseDate         core.Date      `json:"purchase_date"`
	ExpectedDeliveryDate *core.Date     `json:"expected_delivery_date,omitempty"`
	DeliveryDate         *core.Date     `json:"delivery_date,omitempty"`
	Status               core.Status    `json:"status"`
	Notes                string         `json:"notes,omitempty"`
	Pending              pendingView    `json:"pending"`
	Items                []lineItemView `json:"items"`
	Total                json.Number    `json:"total"`
	Submitting           bool           `json:"submitting"`
	Proposal             *core.Proposal `json:"proposal,omitempty"`
}

func (d *draft) view() draftView {
	p := d.comp.Draft()
	v := draftView{
		ID:                   d.id,
		PurchaseID:           p.ID,
		PurchaseDate:         p.PurchaseDate,
		ExpectedDeliveryDate: p.ExpectedDeliveryDate,
		DeliveryDate:         p.DeliveryDate,
		Status:               p.Status,
		Notes:                p.Notes,
		Items:                itemViews(p.Items),
		Total:                money(p.Total),
		Submitting:           d.comp.Submitting(),
	}
	if id, ok := d.comp.Supplier(); ok {
		v.Supplier = &refView{ID: id, Label: d.comp.SupplierLabel()}
	}
	pending := d.comp.Pending()
	v.Pending = pendingView{Quantity: pending.Quantity, UnitPrice: money(pending.UnitPrice)}
	if pending.Product != nil {
		v.Pending.Product = &refView{ID: pending.Product.ID, Label: pending.Product.Label()}
	}
	d.mu.Lock()
	v.Proposal = d.proposal
	d.mu.Unlock()
	return v
}

// draftFrom loads the {draft} of the caller's session, writing 404 otherwise.
func (h *Handler) draftFrom(w http.ResponseWriter, r *http.Request) (*draft, bool) {
	d, ok := h.drafts.get(chi.URLParam(r, "draft"))
	if !ok || d.session != sessionFrom(r).id {
		writeError(w, r, "draft not found", "NOT_FOUND", http.StatusNotFound)
		return nil, false
	}
	return d, true
}

// openDraft handles POST /api/drafts. With {"purchase_id": n} the draft is
// pre-populated from the server copy of purchase n.
func (h *Handler) openDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PurchaseID int64 `json:"purchase_id"`
	}
	if r.ContentLength > 0 && !decodeJSON(w, r, &req) {
		return
	}
	s := sessionFrom(r)
	d := &draft{id: uuid.NewString(), session: s.id}
	if req.PurchaseID > 0 {
		comp, err := s.svc.EditPurchase(r.Context(), req.PurchaseID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		if comp.Status().Terminal() {
			writeError(w, r, "purchase can no longer be edited", "INVALID_TRANSITION", http.StatusConflict)
			return
		}
		d.comp = comp
	} else {
		d.comp = s.svc.NewPurchase()
	}
	h.drafts.put(d.id, d)
	writeJSONStatus(w, http.StatusCreated, d.view())
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	writeJSON(w, d.view())
}

// closeDraft handles DELETE /api/drafts/{draft}: the form was closed.
func (h *Handler) closeDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	h.drafts.delete(d.id)
	w.WriteHeader(http.StatusNoContent)
}

// updateDraft handles PATCH /api/drafts/{draft} for the date and notes
// fields. Absent fields are left alone; an empty delivery date clears it.
func (h *Handler) updateDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		PurchaseDate         *string `json:"purchase_date"`
		ExpectedDeliveryDate *string `json:"expected_delivery_date"`
		DeliveryDate         *string `json:"delivery_date"`
		Notes                *string `json:"notes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		purchase           core.Date
		expected, delivery *core.Date
		err                error
	)
	if req.PurchaseDate != nil {
		if purchase, err = core.ParseDate(*req.PurchaseDate); err != nil {
			h.writeServiceError(w, r, &core.ValidationError{Field: "purchaseDate", Message: err.Error()})
			return
		}
	}
	if expected, err = optionalDate(req.ExpectedDeliveryDate); err != nil {
		h.writeServiceError(w, r, &core.ValidationError{Field: "expectedDeliveryDate", Message: err.Error()})
		return
	}
	if delivery, err = optionalDate(req.DeliveryDate); err != nil {
		h.writeServiceError(w, r, &core.ValidationError{Field: "deliveryDate", Message: err.Error()})
		return
	}

	if req.PurchaseDate != nil {
		d.comp.SetPurchaseDate(purchase)
	}
	if req.ExpectedDeliveryDate != nil {
		d.comp.SetExpectedDeliveryDate(expected)
	}
	if req.DeliveryDate != nil {
		d.comp.SetDeliveryDate(delivery)
	}
	if req.Notes != nil {
		d.comp.SetNotes(strings.TrimSpace(*req.Notes))
	}
	writeJSON(w, d.view())
}

func optionalDate(s *string) (*core.Date, error) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	d, err := core.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// selectDraftSupplier handles PUT /api/drafts/{draft}/supplier with
// {"supplier_id": n}; 0 clears the selection.
func (h *Handler) selectDraftSupplier(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		SupplierID int64 `json:"supplier_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.SupplierID <= 0 {
		d.comp.SelectSupplier(0)
		writeJSON(w, d.view())
		return
	}
	s, err := sessionFrom(r).svc.GetSupplier(r.Context(), req.SupplierID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	d.comp.SelectSupplierRecord(*s)
	writeJSON(w, d.view())
}

// setDraftPending handles PUT /api/drafts/{draft}/pending. Choosing a product
// seeds the unit price from its default; quantity and unit_price, when given,
// are applied afterwards.
func (h *Handler) setDraftPending(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		ProductID *int64  `json:"product_id"`
		Quantity  *int    `json:"quantity"`
		UnitPrice *string `json:"unit_price"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	var price *decimal.Decimal
	if req.UnitPrice != nil {
		p, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(*req.UnitPrice), ",", "."))
		if err != nil {
			h.writeServiceError(w, r, &core.ValidationError{Field: "unitPrice", Message: "invalid unit price"})
			return
		}
		price = &p
	}
	if req.ProductID != nil {
		p, err := sessionFrom(r).svc.GetProduct(r.Context(), *req.ProductID)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		d.comp.SetPendingProduct(*p)
	}
	if req.Quantity != nil {
		d.comp.SetPendingQuantity(*req.Quantity)
	}
	if price != nil {
		d.comp.SetPendingUnitPrice(*price)
	}
	writeJSON(w, d.view())
}

// addDraftItem handles POST /api/drafts/{draft}/items: the pending item is
// appended and the pending slot reset.
func (h *Handler) addDraftItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	if !d.comp.AddItem() {
		h.writeServiceError(w, r, &core.ValidationError{Field: "product", Message: "select a product first"})
		return
	}
	writeJSONStatus(w, http.StatusCreated, d.view())
}

// removeDraftItem handles DELETE /api/drafts/{draft}/items/{index} (zero-based).
func (h *Handler) removeDraftItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, r, "invalid index", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := d.comp.RemoveItem(index); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, d.view())
}

// submitDraft handles POST /api/drafts/{draft}/submit. The draft stays open
// and adopts the saved id, so a later submit updates the same purchase.
func (h *Handler) submitDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	svc := sessionFrom(r).svc
	saved, err := svc.SubmitPurchase(r.Context(), d.comp)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if fresh, err := svc.GetPurchase(r.Context(), saved.ID); err == nil {
		saved = fresh
	}
	writeJSON(w, map[string]any{
		"purchase": toPurchaseView(*saved),
		"draft":    d.view(),
	})
}

// interpretDraft handles POST /api/drafts/{draft}/interpret with {"text": "..."}.
// The proposal is kept on the draft until applied; nothing changes yet.
func (h *Handler) interpretDraft(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		h.writeServiceError(w, r, &core.ValidationError{Field: "text", Message: "text is required"})
		return
	}
	res, err := sessionFrom(r).svc.DraftPurchase(r.Context(), req.Text)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if res.IsClarification {
		writeJSON(w, map[string]any{"clarification": res.ClarificationMessage})
		return
	}
	d.mu.Lock()
	d.proposal = res.Proposal
	d.mu.Unlock()
	writeJSON(w, map[string]any{"proposal": res.Proposal})
}

// applyDraftProposal handles POST /api/drafts/{draft}/apply?confirm=true.
func (h *Handler) applyDraftProposal(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draftFrom(w, r)
	if !ok {
		return
	}
	d.mu.Lock()
	proposal := d.proposal
	d.mu.Unlock()
	if proposal == nil {
		writeError(w, r, "no proposal to apply", "NOT_FOUND", http.StatusNotFound)
		return
	}
	if !confirmed(w, r, "apply the drafted purchase") {
		return
	}
	if err := sessionFrom(r).svc.ApplyProposal(r.Context(), d.comp, *proposal); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	d.mu.Lock()
	d.proposal = nil
	d.mu.Unlock()
	writeJSON(w, d.view())
}
