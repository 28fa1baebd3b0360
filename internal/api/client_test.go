package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"supply-console/internal/api"
	"supply-console/internal/store"
)

func newClient(t *testing.T, h http.Handler, creds *api.Credentials) (*api.Client, *store.Memory) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	mem := store.NewMemory()
	if creds != nil {
		_ = mem.Save(context.Background(), *creds)
	}
	sess := api.NewSession(mem)
	if err := sess.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return api.NewClient(srv.URL+"/api", 5*time.Second, sess, nil), mem
}

func TestDo_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{"name": "ACME"})
	})
	c, _ := newClient(t, h, &api.Credentials{AccessToken: "tok"})

	var out struct{ Name string }
	if err := c.Do(context.Background(), http.MethodGet, "/suppliers/1", nil, nil, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if out.Name != "ACME" {
		t.Errorf("Name = %q", out.Name)
	}
}

func TestDo_RefreshesOnceAndRetries(t *testing.T) {
	var refreshes, calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshes, 1)
		if r.Header.Get("Authorization") != "Bearer refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh", "tokenType": "Bearer"})
	})
	mux.HandleFunc("/api/products", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	c, mem := newClient(t, mux, &api.Credentials{AccessToken: "stale", RefreshToken: "refresh"})

	if err := c.Do(context.Background(), http.MethodGet, "/products", nil, nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if refreshes != 1 || calls != 2 {
		t.Errorf("refreshes=%d calls=%d, want 1 and 2", refreshes, calls)
	}
	saved, _ := mem.Load(context.Background())
	if saved == nil || saved.AccessToken != "fresh" || saved.RefreshToken != "refresh" {
		t.Errorf("persisted credentials = %+v", saved)
	}
}

func TestDo_SecondUnauthorizedIsAuthError(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh"})
	})
	mux.HandleFunc("/api/purchases", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, mem := newClient(t, mux, &api.Credentials{AccessToken: "stale", RefreshToken: "refresh"})

	err := c.Do(context.Background(), http.MethodGet, "/purchases", nil, nil, nil)
	if !api.IsAuth(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want exactly 2", calls)
	}
	if saved, _ := mem.Load(context.Background()); saved != nil {
		t.Errorf("credentials should be cleared, got %+v", saved)
	}
	if c.Session().Authenticated() {
		t.Error("session still authenticated")
	}
}

func TestDo_RefreshRejectedClearsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/api/suppliers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, mem := newClient(t, mux, &api.Credentials{AccessToken: "stale", RefreshToken: "bad"})

	err := c.Do(context.Background(), http.MethodGet, "/suppliers", nil, nil, nil)
	if !api.IsAuth(err) {
		t.Fatalf("expected AuthError, got %v", err)
	}
	if saved, _ := mem.Load(context.Background()); saved != nil {
		t.Errorf("credentials should be cleared, got %+v", saved)
	}
}

func TestDo_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, api.IsNotFound},
		{"server error", http.StatusInternalServerError, func(err error) bool {
			var se *api.ServerError
			return errors.As(err, &se) && se.Status == 500 && se.Message == "boom" && se.Temporary()
		}},
		{"bad request", http.StatusBadRequest, func(err error) bool {
			var se *api.ServerError
			return errors.As(err, &se) && !se.Temporary()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"message":"boom"}`))
			})
			c, _ := newClient(t, h, &api.Credentials{AccessToken: "tok"})
			err := c.Do(context.Background(), http.MethodGet, "/x", nil, nil, nil)
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestDo_NetworkError(t *testing.T) {
	sess := api.NewSession(store.NewMemory())
	c := api.NewClient("http://127.0.0.1:1/api", time.Second, sess, nil)
	err := c.Do(context.Background(), http.MethodGet, "/suppliers", nil, nil, nil)
	var ne *api.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}
}

func TestLogin_StoresTokens(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" || r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": "a", "refreshToken": "r", "type": "Bearer", "id": 9, "username": "ana", "role": "ADMIN",
		})
	})
	c, mem := newClient(t, h, nil)

	resp, err := c.Login(context.Background(), "ana", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.ID != 9 {
		t.Errorf("ID = %d", resp.ID)
	}
	saved, _ := mem.Load(context.Background())
	if saved == nil || saved.AccessToken != "a" || saved.RefreshToken != "r" || saved.Role != "ADMIN" {
		t.Errorf("saved = %+v", saved)
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if saved, _ := mem.Load(context.Background()); saved != nil {
		t.Errorf("credentials remain after logout: %+v", saved)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, _ := newClient(t, h, nil)
	if _, err := c.Login(context.Background(), "ana", "wrong"); !api.IsAuth(err) {
		t.Errorf("expected AuthError, got %v", err)
	}
}
