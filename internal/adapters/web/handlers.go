package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"supply-console/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ServiceFactory builds the ApplicationService for one browser session.
// The session's API credentials are stored under sessionID.
type ServiceFactory func(ctx context.Context, sessionID string) (app.ApplicationService, error)

// Options configures the web console.
type Options struct {
	AllowedOrigins string
	Language       string
	SessionTTL     time.Duration
	DraftTTL       time.Duration
	SecureCookies  bool
	Logger         logrus.FieldLogger
}

// Handler holds the per-browser services, the chi router, and the open drafts.
type Handler struct {
	factory  ServiceFactory
	opts     Options
	logger   logrus.FieldLogger
	router   chi.Router
	sessions *ttlStore[app.ApplicationService]
	drafts   *ttlStore[*draft]
}

// NewHandler creates and wires the chi router with all routes. Background
// purging of idle sessions and drafts stops when ctx is done.
func NewHandler(ctx context.Context, factory ServiceFactory, opts Options) http.Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.DraftTTL <= 0 {
		opts.DraftTTL = 2 * time.Hour
	}
	if opts.Language == "" {
		opts.Language = "pt"
	}
	logger := opts.Logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	h := &Handler{
		factory:  factory,
		opts:     opts,
		logger:   logger,
		sessions: newTTLStore[app.ApplicationService](opts.SessionTTL),
		drafts:   newTTLStore[*draft](opts.DraftTTL),
	}
	h.sessions.startPurge(ctx, 5*time.Minute)
	h.drafts.startPurge(ctx, 5*time.Minute)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(logger))
	r.Use(Recoverer(logger))
	r.Use(CORS(opts.AllowedOrigins))

	// ── Health (public) ───────────────────────────────────────────────────────
	r.Get("/api/health", h.health)

	r.Group(func(r chi.Router) {
		r.Use(h.Session)
		r.Use(RequestBodyLimit(1 << 20)) // 1 MB

		// ── Auth (public API) ─────────────────────────────────────────────────
		r.Post("/api/auth/login", h.login)
		r.Post("/api/auth/register", h.register)
		r.Post("/api/auth/logout", h.logout)

		// ── Protected API routes (return 401 JSON if unauthenticated) ────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/api/auth/me", h.me)

			r.Get("/api/suppliers", h.listSuppliers)
			r.Post("/api/suppliers", h.saveSupplier)
			r.Get("/api/suppliers/{id}", h.getSupplier)
			r.Put("/api/suppliers/{id}", h.saveSupplier)
			r.Delete("/api/suppliers/{id}", h.deleteSupplier)
			r.Get("/api/suppliers/{id}/purchases", h.supplierPurchases)

			r.Get("/api/products", h.listProducts)
			r.Post("/api/products", h.saveProduct)
			r.Get("/api/products/{id}", h.getProduct)
			r.Put("/api/products/{id}", h.saveProduct)
			r.Delete("/api/products/{id}", h.deleteProduct)

			r.Get("/api/purchases", h.listPurchases)
			r.Get("/api/purchases/export", h.exportPurchases)
			r.Get("/api/purchases/{id}", h.getPurchase)
			r.Delete("/api/purchases/{id}", h.deletePurchase)
			r.Post("/api/purchases/{id}/status", h.changePurchaseStatus)

			r.Post("/api/drafts", h.openDraft)
			r.Get("/api/drafts/{draft}", h.getDraft)
			r.Patch("/api/drafts/{draft}", h.updateDraft)
			r.Delete("/api/drafts/{draft}", h.closeDraft)
			r.Put("/api/drafts/{draft}/supplier", h.selectDraftSupplier)
			r.Put("/api/drafts/{draft}/pending", h.setDraftPending)
			r.Post("/api/drafts/{draft}/items", h.addDraftItem)
			r.Delete("/api/drafts/{draft}/items/{index}", h.removeDraftItem)
			r.Post("/api/drafts/{draft}/submit", h.submitDraft)
			r.Post("/api/drafts/{draft}/interpret", h.interpretDraft)
			r.Post("/api/drafts/{draft}/apply", h.applyDraftProposal)

			r.Get("/api/dashboard", h.dashboard)
			r.Get("/api/inventory", h.inventory)
			r.Get("/api/inventory/export", h.exportInventory)
		})
	})

	h.router = r
	return r
}

// health reports service status and the number of live console sessions.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	h.sessions.mu.Lock()
	n := len(h.sessions.items)
	h.sessions.mu.Unlock()
	writeJSON(w, response{Status: "ok", Sessions: n})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses a positive integer URL parameter, writing 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// pageParam reads the zero-based ?page= parameter.
func pageParam(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// confirmed reports whether the caller passed ?confirm=true. Destructive
// actions answer 409 CONFIRMATION_REQUIRED with the prompt otherwise.
func confirmed(w http.ResponseWriter, r *http.Request, prompt string) bool {
	if ok, _ := strconv.ParseBool(r.URL.Query().Get("confirm")); ok {
		return true
	}
	writeError(w, r, prompt, "CONFIRMATION_REQUIRED", http.StatusConflict)
	return false
}
