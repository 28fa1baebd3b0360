package app

import (
	"context"
	"io"

	"supply-console/internal/core"
	"supply-console/internal/search"
	"supply-console/internal/views"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from the API client and the domain rules.
// Implementations must contain no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// Login authenticates against the API and stores the token pair.
	Login(ctx context.Context, username, password string) (*SessionResult, error)

	// Register creates a user account without logging in.
	Register(ctx context.Context, req RegisterRequest) error

	// Logout forgets the stored credentials.
	Logout(ctx context.Context) error

	// WhoAmI describes the current session, or returns an AuthError when logged out.
	WhoAmI(ctx context.Context) (*SessionResult, error)

	ListSuppliers(ctx context.Context, page int) (*SupplierListResult, error)
	SearchSuppliers(ctx context.Context, query string) (*SupplierListResult, error)
	GetSupplier(ctx context.Context, id int64) (*core.Supplier, error)

	// SaveSupplier normalizes and validates the draft, then creates it, or
	// updates it when the draft carries an id.
	SaveSupplier(ctx context.Context, draft core.SupplierDraft) (*core.Supplier, error)
	DeleteSupplier(ctx context.Context, id int64) error

	ListProducts(ctx context.Context, page int) (*ProductListResult, error)
	SearchProducts(ctx context.Context, query string) (*ProductListResult, error)
	GetProduct(ctx context.Context, id int64) (*core.Product, error)
	SaveProduct(ctx context.Context, draft core.ProductDraft) (*core.Product, error)
	DeleteProduct(ctx context.Context, id int64) error

	// ListPurchases returns one page with supplier and product references resolved.
	ListPurchases(ctx context.Context, page int) (*PurchaseListResult, error)
	SearchPurchases(ctx context.Context, query string) (*PurchaseListResult, error)
	PurchasesBySupplier(ctx context.Context, supplierID int64) (*PurchaseListResult, error)
	PurchasesByDateRange(ctx context.Context, start, end core.Date) (*PurchaseListResult, error)
	GetPurchase(ctx context.Context, id int64) (*core.Purchase, error)

	// NewPurchase opens an empty draft.
	NewPurchase() *core.Composer

	// EditPurchase opens a draft pre-populated from the server copy of id.
	EditPurchase(ctx context.Context, id int64) (*core.Composer, error)

	// SubmitPurchase submits the draft and returns the server's canonical copy.
	SubmitPurchase(ctx context.Context, c *core.Composer) (*core.Purchase, error)

	// ChangePurchaseStatus checks the transition against the server's current
	// status and sends it. Callers must have obtained user confirmation.
	ChangePurchaseStatus(ctx context.Context, id int64, to core.Status) (*core.Purchase, error)
	DeletePurchase(ctx context.Context, id int64) error

	// SupplierSearcher and ProductSearcher return debounced lookups for the
	// purchase form's and list screens' search boxes. Close them when the
	// form or screen closes. An empty query browses the first page.
	SupplierSearcher() *search.Searcher[core.Supplier]
	ProductSearcher() *search.Searcher[core.Product]
	// PurchaseSearcher returns a debounced purchase lookup with references
	// resolved. An empty query yields no items; PurchaseListView.Apply then
	// reverts to the listing.
	PurchaseSearcher() *search.Searcher[core.Purchase]

	// SupplierView, ProductView and PurchaseView return list-screen state holders.
	SupplierView() *views.ListView[core.Supplier]
	ProductView() *views.ListView[core.Product]
	PurchaseView() *views.PurchaseListView

	Dashboard(ctx context.Context) (*core.Metrics, error)
	Inventory(ctx context.Context) (*core.Inventory, error)

	// DraftPurchase asks the AI agent to turn text into a purchase proposal
	// or a clarification request. Nothing is applied.
	DraftPurchase(ctx context.Context, text string) (*AIResult, error)

	// ApplyProposal replays an approved proposal into c.
	// Must only be called after explicit user approval.
	ApplyProposal(ctx context.Context, c *core.Composer, p core.Proposal) error

	// ExportPurchases writes purchases as an .xlsx workbook to w.
	ExportPurchases(ctx context.Context, w io.Writer, purchases []core.Purchase) error

	// ExportInventory writes the current inventory as an .xlsx workbook to w.
	ExportInventory(ctx context.Context, w io.Writer) error

	// Message renders err for the user in the configured language.
	Message(err error) string
}
