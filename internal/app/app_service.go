package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"supply-console/internal/ai"
	"supply-console/internal/api"
	"supply-console/internal/core"
	"supply-console/internal/export"
	"supply-console/internal/search"
	"supply-console/internal/views"

	"github.com/sirupsen/logrus"
)

type appService struct {
	client    *api.Client
	suppliers core.SupplierService
	products  core.ProductService
	purchases core.PurchaseService
	dashboard core.DashboardService
	resolver  *core.Resolver
	agent     ai.AgentService
	opts      Options
	logger    logrus.FieldLogger
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil when no OpenAI key is configured.
func NewAppService(client *api.Client, agent ai.AgentService, opts Options, logger logrus.FieldLogger) ApplicationService {
	if opts.PageSize <= 0 {
		opts.PageSize = 10
	}
	if opts.PhoneRegion == "" {
		opts.PhoneRegion = "BR"
	}
	if opts.Language == "" {
		opts.Language = "pt"
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	suppliers := core.NewSupplierService(client)
	products := core.NewProductService(client)
	purchases := core.NewPurchaseService(client)
	return &appService{
		client:    client,
		suppliers: suppliers,
		products:  products,
		purchases: purchases,
		dashboard: core.NewDashboardService(client, suppliers, products, purchases),
		resolver:  core.NewResolver(suppliers, products),
		agent:     agent,
		opts:      opts,
		logger:    logger,
	}
}

// Login authenticates and returns the session profile.
func (s *appService) Login(ctx context.Context, username, password string) (*SessionResult, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, &core.ValidationError{Field: "username", Message: "username and password are required"}
	}
	if _, err := s.client.Login(ctx, strings.TrimSpace(username), password); err != nil {
		return nil, err
	}
	return s.WhoAmI(ctx)
}

// Register creates a user account.
func (s *appService) Register(ctx context.Context, req RegisterRequest) error {
	if req.Username == "" || req.Password == "" || req.Email == "" {
		return &core.ValidationError{Field: "username", Message: "username, password and email are required"}
	}
	if req.Phone != "" {
		if err := core.ValidatePhone(req.Phone, s.opts.PhoneRegion); err != nil {
			return &core.ValidationError{Field: "phone", Message: err.Error()}
		}
	}
	return s.client.Register(ctx, api.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
}

// Logout clears stored credentials and cached lookups.
func (s *appService) Logout(ctx context.Context) error {
	s.resolver.Forget()
	return s.client.Logout(ctx)
}

// WhoAmI reports the stored profile and token expiry.
func (s *appService) WhoAmI(ctx context.Context) (*SessionResult, error) {
	sess := s.client.Session()
	if !sess.Authenticated() {
		return nil, &api.AuthError{}
	}
	creds := sess.Get()
	out := &SessionResult{
		UserID:   creds.UserID,
		Username: creds.Username,
		FullName: creds.FullName,
		Email:    creds.Email,
		Role:     creds.Role,
	}
	if claims, err := sess.Claims(); err == nil {
		out.ExpiresAt = claims.ExpiresAt
		if out.Username == "" {
			out.Username = claims.Subject
		}
	} else {
		s.logger.WithError(err).Debug("access token is not a readable JWT")
	}
	return out, nil
}

// ListSuppliers returns one page of suppliers.
func (s *appService) ListSuppliers(ctx context.Context, page int) (*SupplierListResult, error) {
	p, err := s.suppliers.List(ctx, page, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: p.Items, Page: p.Number, TotalPages: p.TotalPages, Total: p.TotalElements}, nil
}

// SearchSuppliers returns every supplier matching query.
func (s *appService) SearchSuppliers(ctx context.Context, query string) (*SupplierListResult, error) {
	items, err := s.suppliers.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SupplierListResult{Suppliers: items, TotalPages: 1, Total: int64(len(items))}, nil
}

func (s *appService) GetSupplier(ctx context.Context, id int64) (*core.Supplier, error) {
	return s.suppliers.Get(ctx, id)
}

// SaveSupplier validates and persists a supplier form.
func (s *appService) SaveSupplier(ctx context.Context, draft core.SupplierDraft) (*core.Supplier, error) {
	draft.Normalize()
	if err := draft.Validate(s.opts.PhoneRegion); err != nil {
		return nil, err
	}
	sup := draft.Supplier()
	if sup.ID != 0 {
		return s.suppliers.Update(ctx, sup.ID, sup)
	}
	return s.suppliers.Create(ctx, sup)
}

func (s *appService) DeleteSupplier(ctx context.Context, id int64) error {
	return s.suppliers.Delete(ctx, id)
}

// ListProducts returns one page of products.
func (s *appService) ListProducts(ctx context.Context, page int) (*ProductListResult, error) {
	p, err := s.products.List(ctx, page, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: p.Items, Page: p.Number, TotalPages: p.TotalPages, Total: p.TotalElements}, nil
}

// SearchProducts returns every product matching query.
func (s *appService) SearchProducts(ctx context.Context, query string) (*ProductListResult, error) {
	items, err := s.products.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: items, TotalPages: 1, Total: int64(len(items))}, nil
}

func (s *appService) GetProduct(ctx context.Context, id int64) (*core.Product, error) {
	return s.products.Get(ctx, id)
}

// SaveProduct validates and persists a product form.
func (s *appService) SaveProduct(ctx context.Context, draft core.ProductDraft) (*core.Product, error) {
	draft.Normalize()
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	prod, err := draft.Product()
	if err != nil {
		return nil, err
	}
	if prod.ID != 0 {
		return s.products.Update(ctx, prod.ID, prod)
	}
	return s.products.Create(ctx, prod)
}

func (s *appService) DeleteProduct(ctx context.Context, id int64) error {
	return s.products.Delete(ctx, id)
}

// ListPurchases returns one page of purchases with references resolved.
func (s *appService) ListPurchases(ctx context.Context, page int) (*PurchaseListResult, error) {
	p, err := s.purchases.List(ctx, page, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	s.resolve(ctx, p.Items)
	return &PurchaseListResult{Purchases: p.Items, Page: p.Number, TotalPages: p.TotalPages, Total: p.TotalElements}, nil
}

// SearchPurchases returns every purchase matching query.
func (s *appService) SearchPurchases(ctx context.Context, query string) (*PurchaseListResult, error) {
	items, err := s.purchases.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.purchaseList(ctx, items), nil
}

// PurchasesBySupplier returns every purchase placed with a supplier.
func (s *appService) PurchasesBySupplier(ctx context.Context, supplierID int64) (*PurchaseListResult, error) {
	items, err := s.purchases.BySupplier(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	return s.purchaseList(ctx, items), nil
}

// PurchasesByDateRange returns purchases dated within [start, end].
func (s *appService) PurchasesByDateRange(ctx context.Context, start, end core.Date) (*PurchaseListResult, error) {
	items, err := s.purchases.ByDateRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.purchaseList(ctx, items), nil
}

// GetPurchase returns one purchase with references resolved.
func (s *appService) GetPurchase(ctx context.Context, id int64) (*core.Purchase, error) {
	p, err := s.purchases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	one := []core.Purchase{*p}
	s.resolve(ctx, one)
	return &one[0], nil
}

func (s *appService) NewPurchase() *core.Composer {
	return core.NewComposer(s.purchases)
}

// EditPurchase opens a draft from the server copy. Product labels are
// resolved so the form can show them.
func (s *appService) EditPurchase(ctx context.Context, id int64) (*core.Composer, error) {
	p, err := s.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}
	return core.ComposerFrom(s.purchases, *p), nil
}

// SubmitPurchase submits the draft; the caller should reload from the result.
func (s *appService) SubmitPurchase(ctx context.Context, c *core.Composer) (*core.Purchase, error) {
	saved, err := c.Submit(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"purchase_id": saved.ID, "items": len(saved.Items)}).Info("purchase saved")
	return saved, nil
}

// ChangePurchaseStatus sends a status transition after checking it against
// the server's current status.
func (s *appService) ChangePurchaseStatus(ctx context.Context, id int64, to core.Status) (*core.Purchase, error) {
	current, err := s.purchases.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(to) {
		return nil, &core.TransitionError{From: current.Status, To: to}
	}
	updated, err := s.purchases.UpdateStatus(ctx, id, to)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{"purchase_id": id, "from": current.Status, "to": to}).Info("purchase status changed")
	return updated, nil
}

func (s *appService) DeletePurchase(ctx context.Context, id int64) error {
	return s.purchases.Delete(ctx, id)
}

func (s *appService) SupplierSearcher() *search.Searcher[core.Supplier] {
	return search.New(s.opts.SearchDebounce, s.suppliers.Search, s.firstSuppliers)
}

func (s *appService) ProductSearcher() *search.Searcher[core.Product] {
	return search.New(s.opts.SearchDebounce, s.products.Search, s.firstProducts)
}

func (s *appService) PurchaseSearcher() *search.Searcher[core.Purchase] {
	find := func(ctx context.Context, q string) ([]core.Purchase, error) {
		items, err := s.purchases.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		s.resolve(ctx, items)
		return items, nil
	}
	none := func(context.Context, string) ([]core.Purchase, error) { return nil, nil }
	return search.New(s.opts.SearchDebounce, find, none)
}

func (s *appService) firstSuppliers(ctx context.Context, _ string) ([]core.Supplier, error) {
	p, err := s.suppliers.List(ctx, 0, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

func (s *appService) firstProducts(ctx context.Context, _ string) ([]core.Product, error) {
	p, err := s.products.List(ctx, 0, s.opts.PageSize)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

func (s *appService) SupplierView() *views.ListView[core.Supplier] {
	return views.NewListView(views.SourceFrom[core.Supplier](s.suppliers), s.opts.PageSize)
}

func (s *appService) ProductView() *views.ListView[core.Product] {
	return views.NewListView(views.SourceFrom[core.Product](s.products), s.opts.PageSize)
}

func (s *appService) PurchaseView() *views.PurchaseListView {
	return views.NewPurchaseListView(s.purchases, s.resolver, s.opts.PageSize, s.logger)
}

func (s *appService) Dashboard(ctx context.Context) (*core.Metrics, error) {
	m, err := s.dashboard.Metrics(ctx)
	if err != nil {
		return nil, err
	}
	if m.Derived {
		s.logger.Debug("dashboard endpoint unavailable, metrics derived from listings")
	}
	return m, nil
}

// Inventory derives the stock view from every product.
func (s *appService) Inventory(ctx context.Context) (*core.Inventory, error) {
	var all []core.Product
	for page := 0; ; page++ {
		p, err := s.products.List(ctx, page, 100)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)
		if !p.HasNext() || len(p.Items) == 0 {
			break
		}
	}
	inv := core.BuildInventory(all)
	return &inv, nil
}

// DraftPurchase builds the supplier and product catalogue and asks the agent.
func (s *appService) DraftPurchase(ctx context.Context, text string) (*AIResult, error) {
	if s.agent == nil {
		return nil, fmt.Errorf("AI drafting is not configured: set OPENAI_API_KEY")
	}
	catalog, err := s.catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("build catalogue: %w", err)
	}
	resp, err := s.agent.InterpretPurchase(ctx, text, catalog)
	if err != nil {
		return nil, err
	}
	if resp.IsClarificationRequest {
		return &AIResult{IsClarification: true, ClarificationMessage: resp.Clarification.Message}, nil
	}
	return &AIResult{Proposal: resp.Proposal}, nil
}

func (s *appService) catalog(ctx context.Context) (string, error) {
	suppliers, err := s.suppliers.List(ctx, 0, 200)
	if err != nil {
		return "", err
	}
	products, err := s.products.List(ctx, 0, 500)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("Suppliers:\n")
	for _, sup := range suppliers.Items {
		if !sup.Active {
			continue
		}
		fmt.Fprintf(&sb, "- id %d: %s\n", sup.ID, sup.Name)
	}
	sb.WriteString("Products:\n")
	for _, p := range products.Items {
		if !p.Active {
			continue
		}
		fmt.Fprintf(&sb, "- id %d: %s (default price %s per %s)\n", p.ID, p.Label(), p.DefaultPrice.StringFixed(2), p.Unit)
	}
	return sb.String(), nil
}

func (s *appService) ApplyProposal(ctx context.Context, c *core.Composer, p core.Proposal) error {
	p.Normalize()
	if err := p.Validate(); err != nil {
		return err
	}
	return p.ApplyTo(ctx, c, s.suppliers, s.products)
}

func (s *appService) ExportPurchases(ctx context.Context, w io.Writer, purchases []core.Purchase) error {
	s.resolve(ctx, purchases)
	return export.Purchases(w, purchases, s.opts.Language)
}

func (s *appService) ExportInventory(ctx context.Context, w io.Writer) error {
	inv, err := s.Inventory(ctx)
	if err != nil {
		return err
	}
	return export.Inventory(w, *inv)
}

func (s *appService) Message(err error) string {
	return core.Message(s.opts.Language, err)
}

func (s *appService) purchaseList(ctx context.Context, items []core.Purchase) *PurchaseListResult {
	s.resolve(ctx, items)
	return &PurchaseListResult{Purchases: items, TotalPages: 1, Total: int64(len(items))}
}

// resolve fills in references; failures leave "#<id>" labels.
func (s *appService) resolve(ctx context.Context, items []core.Purchase) {
	if err := s.resolver.Purchases(ctx, items); err != nil {
		s.logger.WithError(err).Warn("some purchase references could not be resolved")
	}
}
