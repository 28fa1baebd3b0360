// Package apitest runs an in-memory stand-in for the supply REST API, for
// tests of code that talks to it over HTTP.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"supply-console/internal/core"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// Username and Password are the only credentials the server accepts.
const (
	Username = "admin"
	Password = "secret"
)

// Server is an httptest.Server serving /auth, /suppliers, /products,
// /purchases and /dashboard from memory.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	token        string
	refreshToken string
	issued       int
	nextID       int64

	suppliers *collection[core.Supplier]
	products  *collection[core.Product]
	purchases *collection[core.Purchase]

	// NoDashboard makes GET /dashboard answer 404.
	NoDashboard bool
}

type collection[T any] struct {
	rows  map[int64]T
	setID func(*T, int64)
	match func(T, string) bool
}

// New starts a server. Close it when done.
func New() *Server {
	s := &Server{
		suppliers: &collection[core.Supplier]{
			rows:  map[int64]core.Supplier{},
			setID: func(v *core.Supplier, id int64) { v.ID = id },
			match: func(v core.Supplier, q string) bool { return contains(v.Name, q) || contains(v.TaxID, q) },
		},
		products: &collection[core.Product]{
			rows:  map[int64]core.Product{},
			setID: func(v *core.Product, id int64) { v.ID = id },
			match: func(v core.Product, q string) bool { return contains(v.Name, q) || contains(v.SKU, q) },
		},
		purchases: &collection[core.Purchase]{
			rows:  map[int64]core.Purchase{},
			setID: func(v *core.Purchase, id int64) { v.ID = id },
			match: func(v core.Purchase, q string) bool {
				return contains(v.Notes, q) || strconv.FormatInt(v.ID, 10) == q
			},
		},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// ExpireToken invalidates the current access token so the next request
// answers 401 until the client refreshes.
func (s *Server) ExpireToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = "expired"
}

// AddSupplier stores v under a fresh id and returns it.
func (s *Server) AddSupplier(v core.Supplier) core.Supplier {
	return add(s, s.suppliers, v)
}

// AddProduct stores v under a fresh id and returns it.
func (s *Server) AddProduct(v core.Product) core.Product {
	return add(s, s.products, v)
}

// AddPurchase stores v under a fresh id and returns it.
func (s *Server) AddPurchase(v core.Purchase) core.Purchase {
	if v.Status == "" {
		v.Status = core.StatusPending
	}
	return add(s, s.purchases, v)
}

// Purchase returns the stored purchase.
func (s *Server) Purchase(id int64) (core.Purchase, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases.rows[id]
	return p, ok
}

// PurchaseCount reports how many purchases are stored.
func (s *Server) PurchaseCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.purchases.rows)
}

func add[T any](s *Server, c *collection[T], v T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.setID(&v, s.nextID)
	c.rows[s.nextID] = v
	return v
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", s.login)
	r.Post("/auth/register", s.register)
	r.Post("/auth/refresh-token", s.refresh)

	r.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/dashboard", s.dashboard)
		r.Route("/suppliers", func(r chi.Router) { crud(r, s, s.suppliers) })
		r.Route("/products", func(r chi.Router) { crud(r, s, s.products) })
		r.Route("/purchases", func(r chi.Router) {
			r.Get("/supplier/{id}", s.purchasesBySupplier)
			r.Get("/date-range", s.purchasesByDate)
			r.Patch("/{id}/status", s.purchaseStatus)
			crud(r, s, s.purchases)
		})
	})
	return r
}

func (s *Server) issue() (string, string) {
	s.issued++
	n := strconv.Itoa(s.issued)
	s.token = "access-" + n
	s.refreshToken = "refresh-" + n
	return s.token, s.refreshToken
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}
	if body.Username != Username || body.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Bad credentials"})
		return
	}
	s.mu.Lock()
	token, refresh := s.issue()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"token":        token,
		"refreshToken": refresh,
		"type":         "Bearer",
		"id":           1,
		"username":     Username,
		"email":        "admin@example.com",
		"fullName":     "Admin User",
		"role":         "ADMIN",
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body["username"] == Username {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "username already taken"})
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.refreshToken == "" || r.Header.Get("Authorization") != "Bearer "+s.refreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid refresh token"})
		return
	}
	s.issued++
	s.token = "access-" + strconv.Itoa(s.issued)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": s.token, "tokenType": "Bearer"})
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		ok := s.token != "" && r.Header.Get("Authorization") == "Bearer "+s.token
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func crud[T any](r chi.Router, s *Server, c *collection[T]) {
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		size, _ := strconv.Atoi(r.URL.Query().Get("size"))
		if size <= 0 {
			size = 10
		}
		s.mu.Lock()
		rows := sorted(c.rows)
		s.mu.Unlock()
		start := page * size
		if start > len(rows) {
			start = len(rows)
		}
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"content":       rows[start:end],
			"totalElements": len(rows),
			"totalPages":    (len(rows) + size - 1) / size,
			"number":        page,
			"size":          size,
		})
	})
	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("query"))
		s.mu.Lock()
		out := []T{}
		for _, v := range sorted(c.rows) {
			if c.match(v, q) {
				out = append(out, v)
			}
		}
		s.mu.Unlock()
		writeJSON(w, http.StatusOK, out)
	})
	r.Post("/", func(w http.ResponseWriter, r *http.Request) {
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		writeJSON(w, http.StatusCreated, add(s, c, normalize(v)))
	})
	r.Get("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		s.mu.Lock()
		v, ok := c.rows[id]
		s.mu.Unlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		writeJSON(w, http.StatusOK, v)
	})
	r.Put("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		var v T
		if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := c.rows[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		v = normalize(v)
		c.setID(&v, id)
		c.rows[id] = v
		writeJSON(w, http.StatusOK, v)
	})
	r.Delete("/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := c.rows[id]; !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
			return
		}
		delete(c.rows, id)
		w.WriteHeader(http.StatusNoContent)
	})
}

// normalize applies the server-side defaults a real backend would.
func normalize[T any](v T) T {
	if p, ok := any(&v).(*core.Purchase); ok && p.Status == "" {
		p.Status = core.StatusPending
	}
	return v
}

func (s *Server) purchaseStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var body struct {
		Status core.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases.rows[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	if !p.Status.CanTransitionTo(body.Status) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid status transition"})
		return
	}
	p.Status = body.Status
	if body.Status == core.StatusDelivered {
		d := core.Today()
		p.DeliveryDate = &d
	}
	s.purchases.rows[id] = p
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) purchasesBySupplier(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	s.mu.Lock()
	out := []core.Purchase{}
	for _, p := range sorted(s.purchases.rows) {
		if p.Supplier.ID() == id {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) purchasesByDate(w http.ResponseWriter, r *http.Request) {
	start, err1 := core.ParseDate(r.URL.Query().Get("startDate"))
	end, err2 := core.ParseDate(r.URL.Query().Get("endDate"))
	if err1 != nil || err2 != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid date range"})
		return
	}
	s.mu.Lock()
	out := []core.Purchase{}
	for _, p := range sorted(s.purchases.rows) {
		if !p.PurchaseDate.Before(start.Time) && !p.PurchaseDate.After(end.Time) {
			out = append(out, p)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) dashboard(w http.ResponseWriter, _ *http.Request) {
	if s.NoDashboard {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "not found"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m := core.Metrics{
		Suppliers:     int64(len(s.suppliers.rows)),
		Products:      int64(len(s.products.rows)),
		StockTotal:    decimal.Zero,
		StockValue:    decimal.Zero,
		IncomingValue: decimal.Zero,
	}
	for _, p := range s.products.rows {
		m.StockTotal = m.StockTotal.Add(p.Volume)
		m.StockValue = m.StockValue.Add(p.DefaultPrice)
	}
	for _, p := range s.purchases.rows {
		if p.Status == core.StatusPending {
			m.PendingPurchases++
			m.IncomingValue = m.IncomingValue.Add(p.Total)
		}
	}
	writeJSON(w, http.StatusOK, m)
}

func sorted[T any](rows map[int64]T) []T {
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id])
	}
	return out
}

func contains(s, q string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(q))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
