package web_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"supply-console/internal/adapters/web"
	"supply-console/internal/api"
	"supply-console/internal/api/apitest"
	"supply-console/internal/app"
	"supply-console/internal/core"
	"supply-console/internal/store"

	"github.com/shopspring/decimal"
)

type console struct {
	t      *testing.T
	url    string
	client *http.Client
}

func newConsole(t *testing.T) (*console, *apitest.Server) {
	t.Helper()
	upstream := apitest.New()
	t.Cleanup(upstream.Close)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	factory := func(_ context.Context, _ string) (app.ApplicationService, error) {
		client := api.NewClient(upstream.URL, 5*time.Second, api.NewSession(store.NewMemory()), nil)
		return app.NewAppService(client, nil, app.Options{Language: "en"}, nil), nil
	}
	srv := httptest.NewServer(web.NewHandler(ctx, factory, web.Options{Language: "en"}))
	t.Cleanup(srv.Close)

	return &console{t: t, url: srv.URL, client: browser(t)}, upstream
}

func browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

// do sends body as JSON and decodes the response into out when out is non-nil.
func (c *console) do(method, path, body string, out any) int {
	c.t.Helper()
	req, err := http.NewRequest(method, c.url+path, strings.NewReader(body))
	if err != nil {
		c.t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (c *console) login() {
	c.t.Helper()
	body := `{"username":"` + apitest.Username + `","password":"` + apitest.Password + `"}`
	if code := c.do(http.MethodPost, "/api/auth/login", body, nil); code != http.StatusOK {
		c.t.Fatalf("login status = %d", code)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type draftBody struct {
	ID       string `json:"id"`
	Supplier *struct {
		ID    int64  `json:"id"`
		Label string `json:"label"`
	} `json:"supplier"`
	Pending struct {
		Quantity  int    `json:"quantity"`
		UnitPrice string `json:"unit_price"`
	} `json:"pending"`
	Items []struct {
		Quantity int    `json:"quantity"`
		Total    string `json:"total"`
	} `json:"items"`
	Total      json.Number `json:"total"`
	PurchaseID int64       `json:"purchase_id"`
}

func seed(srv *apitest.Server) (core.Supplier, core.Product) {
	sup := srv.AddSupplier(core.Supplier{Name: "ACME Ltda", TaxID: "11222333000181", Active: true})
	prod := srv.AddProduct(core.Product{
		SKU:          "BOX-1",
		Name:         "Box",
		Unit:         "un",
		Volume:       decimal.NewFromInt(10),
		DefaultPrice: decimal.RequireFromString("2.50"),
		Active:       true,
	})
	return sup, prod
}

func TestHealth(t *testing.T) {
	c, _ := newConsole(t)
	var body struct {
		Status string `json:"status"`
	}
	if code := c.do(http.MethodGet, "/api/health", "", &body); code != http.StatusOK || body.Status != "ok" {
		t.Errorf("health = %d %+v", code, body)
	}
}

func TestAuth(t *testing.T) {
	c, _ := newConsole(t)

	var e errorBody
	if code := c.do(http.MethodGet, "/api/suppliers", "", &e); code != http.StatusUnauthorized || e.Code != "UNAUTHORIZED" {
		t.Fatalf("before login = %d %+v", code, e)
	}

	if code := c.do(http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`, &e); code != http.StatusUnauthorized {
		t.Errorf("bad login = %d %+v", code, e)
	}

	c.login()
	var me struct {
		Username string `json:"username"`
	}
	if code := c.do(http.MethodGet, "/api/auth/me", "", &me); code != http.StatusOK || me.Username != apitest.Username {
		t.Errorf("me = %d %+v", code, me)
	}

	if code := c.do(http.MethodPost, "/api/auth/logout", "", nil); code != http.StatusNoContent {
		t.Errorf("logout = %d", code)
	}
	if code := c.do(http.MethodGet, "/api/auth/me", "", nil); code != http.StatusUnauthorized {
		t.Errorf("me after logout = %d", code)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	c, _ := newConsole(t)
	c.login()

	other := &console{t: t, url: c.url, client: browser(t)}
	if code := other.do(http.MethodGet, "/api/auth/me", "", nil); code != http.StatusUnauthorized {
		t.Errorf("second browser me = %d, want 401", code)
	}

	var d draftBody
	if code := c.do(http.MethodPost, "/api/drafts", "", &d); code != http.StatusCreated {
		t.Fatalf("open draft = %d", code)
	}
	other.login()
	if code := other.do(http.MethodGet, "/api/drafts/"+d.ID, "", nil); code != http.StatusNotFound {
		t.Errorf("foreign draft = %d, want 404", code)
	}
}

func TestSuppliers(t *testing.T) {
	c, srv := newConsole(t)
	seed(srv)
	c.login()

	var list struct {
		Items []core.Supplier `json:"items"`
		Total int64           `json:"total"`
	}
	if code := c.do(http.MethodGet, "/api/suppliers", "", &list); code != http.StatusOK || list.Total != 1 {
		t.Fatalf("list = %d %+v", code, list)
	}

	var e struct {
		Code   string            `json:"code"`
		Fields map[string]string `json:"fields"`
	}
	code := c.do(http.MethodPost, "/api/suppliers", `{"name":"","cnpj":"123"}`, &e)
	if code != http.StatusUnprocessableEntity || e.Code != "VALIDATION_ERROR" {
		t.Errorf("invalid supplier = %d %+v", code, e)
	}

	id := list.Items[0].ID
	if code := c.do(http.MethodDelete, "/api/suppliers/"+itoa(id), "", nil); code != http.StatusConflict {
		t.Errorf("unconfirmed delete = %d, want 409", code)
	}
	if code := c.do(http.MethodDelete, "/api/suppliers/"+itoa(id)+"?confirm=true", "", nil); code != http.StatusNoContent {
		t.Errorf("confirmed delete = %d", code)
	}
}

func TestDraftLifecycle(t *testing.T) {
	c, srv := newConsole(t)
	sup, prod := seed(srv)
	c.login()

	var d draftBody
	if code := c.do(http.MethodPost, "/api/drafts", "", &d); code != http.StatusCreated {
		t.Fatalf("open = %d", code)
	}
	path := "/api/drafts/" + d.ID

	var e errorBody
	if code := c.do(http.MethodPost, path+"/submit", "", &e); code != http.StatusUnprocessableEntity {
		t.Errorf("empty submit = %d %+v", code, e)
	}
	if code := c.do(http.MethodPost, path+"/items", "", &e); code != http.StatusUnprocessableEntity {
		t.Errorf("add without product = %d", code)
	}

	if code := c.do(http.MethodPut, path+"/supplier", `{"supplier_id":`+itoa(sup.ID)+`}`, &d); code != http.StatusOK {
		t.Fatalf("supplier = %d", code)
	}
	if d.Supplier == nil || d.Supplier.Label != "ACME Ltda" {
		t.Errorf("supplier = %+v", d.Supplier)
	}

	if code := c.do(http.MethodPut, path+"/pending", `{"product_id":`+itoa(prod.ID)+`,"quantity":3}`, &d); code != http.StatusOK {
		t.Fatalf("pending = %d", code)
	}
	if d.Pending.Quantity != 3 || d.Pending.UnitPrice != "2.50" {
		t.Errorf("pending = %+v", d.Pending)
	}
	if code := c.do(http.MethodPost, path+"/items", "", &d); code != http.StatusCreated {
		t.Fatalf("add item = %d", code)
	}
	if len(d.Items) != 1 || d.Total.String() != "7.50" {
		t.Errorf("after add: items %+v total %s", d.Items, d.Total)
	}
	if code := c.do(http.MethodDelete, path+"/items/5", "", &e); code != http.StatusBadRequest || e.Code != "BAD_INDEX" {
		t.Errorf("bad index = %d %+v", code, e)
	}

	var saved struct {
		Purchase struct {
			ID     int64  `json:"id"`
			Status string `json:"status"`
		} `json:"purchase"`
		Draft draftBody `json:"draft"`
	}
	if code := c.do(http.MethodPost, path+"/submit", "", &saved); code != http.StatusOK {
		t.Fatalf("submit = %d", code)
	}
	if saved.Purchase.ID == 0 || saved.Draft.PurchaseID != saved.Purchase.ID {
		t.Errorf("submit = %+v", saved)
	}
	if code := c.do(http.MethodPost, path+"/submit", "", &saved); code != http.StatusOK {
		t.Fatalf("resubmit = %d", code)
	}
	if n := srv.PurchaseCount(); n != 1 {
		t.Errorf("purchases on server = %d, want 1", n)
	}

	if code := c.do(http.MethodDelete, path, "", nil); code != http.StatusNoContent {
		t.Errorf("close = %d", code)
	}
	if code := c.do(http.MethodGet, path, "", nil); code != http.StatusNotFound {
		t.Errorf("closed draft = %d, want 404", code)
	}
}

func TestChangePurchaseStatus(t *testing.T) {
	c, srv := newConsole(t)
	sup, prod := seed(srv)
	p := srv.AddPurchase(core.Purchase{
		Supplier:     core.UnresolvedSupplier(sup.ID),
		PurchaseDate: core.Today(),
		Status:       core.StatusPending,
		Items: []core.LineItem{{
			Product:   core.UnresolvedProduct(prod.ID),
			Quantity:  2,
			UnitPrice: prod.DefaultPrice,
			Total:     prod.DefaultPrice.Mul(decimal.NewFromInt(2)),
		}},
		Total: prod.DefaultPrice.Mul(decimal.NewFromInt(2)),
	})
	c.login()
	path := "/api/purchases/" + itoa(p.ID) + "/status"

	tests := []struct {
		name     string
		query    string
		status   string
		wantCode int
		wantErr  string
	}{
		{"needs confirmation", "", "DELIVERED", http.StatusConflict, "CONFIRMATION_REQUIRED"},
		{"delivered", "?confirm=true", "DELIVERED", http.StatusOK, ""},
		{"terminal", "?confirm=true", "CANCELED", http.StatusConflict, "INVALID_TRANSITION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Code   string `json:"code"`
				Status string `json:"status"`
			}
			code := c.do(http.MethodPost, path+tt.query, `{"status":"`+tt.status+`"}`, &body)
			if code != tt.wantCode || body.Code != tt.wantErr {
				t.Errorf("got %d %+v, want %d %q", code, body, tt.wantCode, tt.wantErr)
			}
		})
	}

	got, _ := srv.Purchase(p.ID)
	if got.Status != core.StatusDelivered || got.DeliveryDate == nil {
		t.Errorf("server purchase = %s delivery %v", got.Status, got.DeliveryDate)
	}
}

func TestInterpretWithoutAgent(t *testing.T) {
	c, _ := newConsole(t)
	c.login()

	var d draftBody
	c.do(http.MethodPost, "/api/drafts", "", &d)
	var e errorBody
	if code := c.do(http.MethodPost, "/api/drafts/"+d.ID+"/interpret", `{"text":"10 boxes from ACME"}`, &e); code != http.StatusInternalServerError {
		t.Errorf("interpret = %d %+v", code, e)
	}
	if code := c.do(http.MethodPost, "/api/drafts/"+d.ID+"/apply?confirm=true", "", &e); code != http.StatusNotFound {
		t.Errorf("apply without proposal = %d", code)
	}
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func TestCORS(t *testing.T) {
	h := web.NewHandler(t.Context(), nil, web.Options{AllowedOrigins: "https://console.example.com/, https://ops.example.com"})

	tests := []struct {
		name       string
		origin     string
		wantOrigin string
	}{
		{"allowed", "https://console.example.com", "https://console.example.com"},
		{"second allowed", "https://ops.example.com", "https://ops.example.com"},
		{"other origin", "https://evil.example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/suppliers", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != http.StatusNoContent {
				t.Errorf("status = %d, want 204", rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}
