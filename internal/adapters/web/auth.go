package web

import (
	"net/http"
	"time"

	"supply-console/internal/app"
)

type sessionResponse struct {
	UserID    int64      `json:"user_id"`
	Username  string     `json:"username"`
	FullName  string     `json:"full_name,omitempty"`
	Email     string     `json:"email,omitempty"`
	Role      string     `json:"role"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func toSessionResponse(s *app.SessionResult) sessionResponse {
	out := sessionResponse{UserID: s.UserID, Username: s.Username, FullName: s.FullName, Email: s.Email, Role: s.Role}
	if !s.ExpiresAt.IsZero() {
		t := s.ExpiresAt
		out.ExpiresAt = &t
	}
	return out
}

// login handles POST /api/auth/login. The API tokens stay server-side in the
// browser's session; the browser only holds the session cookie.
func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	who, err := sessionFrom(r).svc.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, toSessionResponse(who))
}

// register handles POST /api/auth/register.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
		Email    string `json:"email"`
		FullName string `json:"full_name"`
		Phone    string `json:"phone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	err := sessionFrom(r).svc.Register(r.Context(), app.RegisterRequest{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		Phone:    req.Phone,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// logout handles POST /api/auth/logout: forgets the API credentials and
// closes the session's drafts.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	s := sessionFrom(r)
	if err := s.svc.Logout(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.drafts.deleteWhere(func(d *draft) bool { return d.session == s.id })
	w.WriteHeader(http.StatusNoContent)
}

// me handles GET /api/auth/me.
func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	who, err := sessionFrom(r).svc.WhoAmI(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, toSessionResponse(who))
}
