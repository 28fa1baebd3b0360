package web

import (
	"fmt"
	"net/http"
	"strings"

	"supply-console/internal/core"
)

// listSuppliers handles GET /api/suppliers?page=&q=. A query switches to
// unpaginated search results.
func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	svc := sessionFrom(r).svc
	var (
		out listView[core.Supplier]
		q   = strings.TrimSpace(r.URL.Query().Get("q"))
	)
	if q != "" {
		res, err := svc.SearchSuppliers(r.Context(), q)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		out = listView[core.Supplier]{Items: res.Suppliers, TotalPages: 1, Total: res.Total, Searching: true}
	} else {
		res, err := svc.ListSuppliers(r.Context(), pageParam(r))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		out = listView[core.Supplier]{Items: res.Suppliers, Page: res.Page, TotalPages: res.TotalPages, Total: res.Total}
	}
	if out.Items == nil {
		out.Items = []core.Supplier{}
	}
	writeJSON(w, out)
}

func (h *Handler) getSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	s, err := sessionFrom(r).svc.GetSupplier(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, s)
}

// saveSupplier handles POST /api/suppliers and PUT /api/suppliers/{id}.
func (h *Handler) saveSupplier(w http.ResponseWriter, r *http.Request) {
	d := core.NewSupplierDraft()
	if !decodeJSON(w, r, &d) {
		return
	}
	status := http.StatusCreated
	d.ID = 0
	if r.Method == http.MethodPut {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		d.ID = id
		status = http.StatusOK
	}
	saved, err := sessionFrom(r).svc.SaveSupplier(r.Context(), d)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, status, saved)
}

func (h *Handler) deleteSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok || !confirmed(w, r, fmt.Sprintf("delete supplier #%d", id)) {
		return
	}
	if err := sessionFrom(r).svc.DeleteSupplier(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// supplierPurchases handles GET /api/suppliers/{id}/purchases.
func (h *Handler) supplierPurchases(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	res, err := sessionFrom(r).svc.PurchasesBySupplier(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, listView[purchaseView]{Items: purchaseViews(res.Purchases), TotalPages: 1, Total: res.Total, Searching: true})
}

// listProducts handles GET /api/products?page=&q=.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	svc := sessionFrom(r).svc
	var (
		out listView[core.Product]
		q   = strings.TrimSpace(r.URL.Query().Get("q"))
	)
	if q != "" {
		res, err := svc.SearchProducts(r.Context(), q)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		out = listView[core.Product]{Items: res.Products, TotalPages: 1, Total: res.Total, Searching: true}
	} else {
		res, err := svc.ListProducts(r.Context(), pageParam(r))
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		out = listView[core.Product]{Items: res.Products, Page: res.Page, TotalPages: res.TotalPages, Total: res.Total}
	}
	if out.Items == nil {
		out.Items = []core.Product{}
	}
	writeJSON(w, out)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	p, err := sessionFrom(r).svc.GetProduct(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// saveProduct handles POST /api/products and PUT /api/products/{id}.
// Numeric fields are accepted as strings as typed into the form.
func (h *Handler) saveProduct(w http.ResponseWriter, r *http.Request) {
	d := core.NewProductDraft()
	if !decodeJSON(w, r, &d) {
		return
	}
	status := http.StatusCreated
	d.ID = 0
	if r.Method == http.MethodPut {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		d.ID = id
		status = http.StatusOK
	}
	saved, err := sessionFrom(r).svc.SaveProduct(r.Context(), d)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, status, saved)
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok || !confirmed(w, r, fmt.Sprintf("delete product #%d", id)) {
		return
	}
	if err := sessionFrom(r).svc.DeleteProduct(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
