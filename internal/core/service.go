package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Requester sends a JSON request to the supply API. *api.Client satisfies it.
type Requester interface {
	Do(ctx context.Context, method, path string, query url.Values, body, out any) error
}

// EntityService is the REST surface shared by suppliers, products and purchases.
type EntityService[T any] interface {
	// List returns one page; page is zero-based.
	List(ctx context.Context, page, size int) (*Page[T], error)

	// Get returns the entity or an error wrapping api.NotFoundError.
	Get(ctx context.Context, id int64) (*T, error)

	Create(ctx context.Context, v T) (*T, error)

	Update(ctx context.Context, id int64, v T) (*T, error)

	Delete(ctx context.Context, id int64) error

	// Search returns every match, unpaginated.
	Search(ctx context.Context, query string) ([]T, error)
}

// SupplierService manages suppliers.
type SupplierService = EntityService[Supplier]

// ProductService manages products.
type ProductService = EntityService[Product]

// PurchaseService manages purchases.
type PurchaseService interface {
	EntityService[Purchase]

	// UpdateStatus asks the server to move a purchase to status.
	UpdateStatus(ctx context.Context, id int64, status Status) (*Purchase, error)

	// BySupplier returns every purchase placed with a supplier.
	BySupplier(ctx context.Context, supplierID int64) ([]Purchase, error)

	// ByDateRange returns purchases dated within [start, end].
	ByDateRange(ctx context.Context, start, end Date) ([]Purchase, error)
}

type restService[T any] struct {
	api  Requester
	path string
	noun string
}

// NewSupplierService constructs a SupplierService over the REST API.
func NewSupplierService(api Requester) SupplierService {
	return &restService[Supplier]{api: api, path: "/suppliers", noun: "supplier"}
}

// NewProductService constructs a ProductService over the REST API.
func NewProductService(api Requester) ProductService {
	return &restService[Product]{api: api, path: "/products", noun: "product"}
}

func (s *restService[T]) List(ctx context.Context, page, size int) (*Page[T], error) {
	if page < 0 {
		page = 0
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if size > 0 {
		q.Set("size", strconv.Itoa(size))
	}
	var out Page[T]
	if err := s.api.Do(ctx, http.MethodGet, s.path, q, nil, &out); err != nil {
		return nil, fmt.Errorf("list %ss: %w", s.noun, err)
	}
	return &out, nil
}

func (s *restService[T]) Get(ctx context.Context, id int64) (*T, error) {
	var out T
	if err := s.api.Do(ctx, http.MethodGet, s.itemPath(id), nil, nil, &out); err != nil {
		return nil, fmt.Errorf("get %s %d: %w", s.noun, id, err)
	}
	return &out, nil
}

func (s *restService[T]) Create(ctx context.Context, v T) (*T, error) {
	var out T
	if err := s.api.Do(ctx, http.MethodPost, s.path, nil, v, &out); err != nil {
		return nil, fmt.Errorf("create %s: %w", s.noun, err)
	}
	return &out, nil
}

func (s *restService[T]) Update(ctx context.Context, id int64, v T) (*T, error) {
	var out T
	if err := s.api.Do(ctx, http.MethodPut, s.itemPath(id), nil, v, &out); err != nil {
		return nil, fmt.Errorf("update %s %d: %w", s.noun, id, err)
	}
	return &out, nil
}

func (s *restService[T]) Delete(ctx context.Context, id int64) error {
	if err := s.api.Do(ctx, http.MethodDelete, s.itemPath(id), nil, nil, nil); err != nil {
		return fmt.Errorf("delete %s %d: %w", s.noun, id, err)
	}
	return nil
}

func (s *restService[T]) Search(ctx context.Context, query string) ([]T, error) {
	q := url.Values{}
	q.Set("query", strings.TrimSpace(query))
	var out Page[T]
	if err := s.api.Do(ctx, http.MethodGet, s.path+"/search", q, nil, &out); err != nil {
		return nil, fmt.Errorf("search %ss %q: %w", s.noun, query, err)
	}
	return out.Items, nil
}

func (s *restService[T]) itemPath(id int64) string {
	return s.path + "/" + strconv.FormatInt(id, 10)
}

type purchaseService struct {
	*restService[Purchase]
}

// NewPurchaseService constructs a PurchaseService over the REST API.
func NewPurchaseService(api Requester) PurchaseService {
	return &purchaseService{&restService[Purchase]{api: api, path: "/purchases", noun: "purchase"}}
}

func (s *purchaseService) UpdateStatus(ctx context.Context, id int64, status Status) (*Purchase, error) {
	var out Purchase
	body := map[string]Status{"status": status}
	if err := s.api.Do(ctx, http.MethodPatch, s.itemPath(id)+"/status", nil, body, &out); err != nil {
		return nil, fmt.Errorf("update purchase %d status to %s: %w", id, status, err)
	}
	return &out, nil
}

func (s *purchaseService) BySupplier(ctx context.Context, supplierID int64) ([]Purchase, error) {
	var out Page[Purchase]
	path := s.path + "/supplier/" + strconv.FormatInt(supplierID, 10)
	if err := s.api.Do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, fmt.Errorf("purchases for supplier %d: %w", supplierID, err)
	}
	return out.Items, nil
}

func (s *purchaseService) ByDateRange(ctx context.Context, start, end Date) ([]Purchase, error) {
	if end.Before(start.Time) {
		return nil, &ValidationError{Field: "endDate", Message: "end date must not be before start date"}
	}
	q := url.Values{}
	q.Set("startDate", start.String())
	q.Set("endDate", end.String())
	var out Page[Purchase]
	if err := s.api.Do(ctx, http.MethodGet, s.path+"/date-range", q, nil, &out); err != nil {
		return nil, fmt.Errorf("purchases %s..%s: %w", start, end, err)
	}
	return out.Items, nil
}
