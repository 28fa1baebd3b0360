package web

import (
	"encoding/json"

	"supply-console/internal/core"
)

// refView is a reference rendered with its display label.
type refView struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
}

type lineItemView struct {
	Key       string      `json:"key"`
	ID        int64       `json:"id,omitempty"`
	Product   refView     `json:"product"`
	Quantity  int         `json:"quantity"`
	UnitPrice json.Number `json:"unit_price"`
	Total     json.Number `json:"total"`
}

type purchaseView struct {
	ID                   int64          `json:"id"`
	Supplier             refView        `json:"supplier"`
	PurchaseDate         core.Date      `json:"purchase_date"`
	ExpectedDeliveryDate *core.Date     `json:"expected_delivery_date,omitempty"`
	DeliveryDate         *core.Date     `json:"delivery_date,omitempty"`
	Status               core.Status    `json:"status"`
	Transitions          []core.Status  `json:"transitions"`
	Items                []lineItemView `json:"items"`
	Total                json.Number    `json:"total"`
	Notes                string         `json:"notes,omitempty"`
}

type listView[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	TotalPages int   `json:"total_pages"`
	Total      int64 `json:"total"`
	// Searching is set for unpaginated search results.
	Searching bool `json:"searching"`
}

func money(d interface{ StringFixed(int32) string }) json.Number {
	return json.Number(d.StringFixed(2))
}

func itemViews(items []core.LineItem) []lineItemView {
	out := make([]lineItemView, 0, len(items))
	for _, li := range items {
		out = append(out, lineItemView{
			Key:       li.Key(),
			ID:        li.ID,
			Product:   refView{ID: li.Product.ID(), Label: li.Product.Label()},
			Quantity:  li.Quantity,
			UnitPrice: money(li.UnitPrice),
			Total:     money(li.Total),
		})
	}
	return out
}

func toPurchaseView(p core.Purchase) purchaseView {
	transitions := p.Status.Transitions()
	if transitions == nil {
		transitions = []core.Status{}
	}
	return purchaseView{
		ID:                   p.ID,
		Supplier:             refView{ID: p.Supplier.ID(), Label: p.Supplier.Label()},
		PurchaseDate:         p.PurchaseDate,
		ExpectedDeliveryDate: p.ExpectedDeliveryDate,
		DeliveryDate:         p.DeliveryDate,
		Status:               p.Status,
		Transitions:          transitions,
		Items:                itemViews(p.Items),
		Total:                money(p.Total),
		Notes:                p.Notes,
	}
}

func purchaseViews(ps []core.Purchase) []purchaseView {
	out := make([]purchaseView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPurchaseView(p))
	}
	return out
}
