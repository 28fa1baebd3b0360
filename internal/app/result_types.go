package app

import (
	"time"

	"supply-console/internal/core"
)

// SessionResult describes the logged-in user.
type SessionResult struct {
	UserID    int64
	Username  string
	FullName  string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// SupplierListResult is returned by supplier listings and searches.
// TotalPages is 1 for searches.
type SupplierListResult struct {
	Suppliers  []core.Supplier
	Page       int
	TotalPages int
	Total      int64
}

// ProductListResult is returned by product listings and searches.
type ProductListResult struct {
	Products   []core.Product
	Page       int
	TotalPages int
	Total      int64
}

// PurchaseListResult is returned by purchase listings and searches.
type PurchaseListResult struct {
	Purchases  []core.Purchase
	Page       int
	TotalPages int
	Total      int64
}

// AIResult is returned by DraftPurchase.
type AIResult struct {
	Proposal             *core.Proposal
	ClarificationMessage string
	IsClarification      bool
}
