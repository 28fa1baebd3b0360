package store_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"supply-console/internal/api"
	"supply-console/internal/db"
	"supply-console/internal/store"

	"github.com/google/uuid"
)

func exercise(t *testing.T, s api.CredentialStore) {
	t.Helper()
	ctx := context.Background()

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load on empty store: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil credentials, got %+v", got)
	}

	want := api.Credentials{AccessToken: "a1", RefreshToken: "r1", Username: "ana", UserID: 4}
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || *got != want {
		t.Fatalf("Load = %+v, want %+v", got, want)
	}

	want.AccessToken = "a2"
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("Save overwrite: %v", err)
	}
	got, _ = s.Load(ctx)
	if got.AccessToken != "a2" {
		t.Errorf("AccessToken = %q, want a2", got.AccessToken)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := s.Load(ctx); got != nil {
		t.Errorf("expected nil after Clear, got %+v", got)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, store.NewMemory())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "credentials.json")
	exercise(t, store.NewFile(path))
}

func TestFile_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	s := store.NewFile(path)
	if err := s.Save(context.Background(), api.Credentials{AccessToken: "x"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
}

func TestPostgres(t *testing.T) {
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	exercise(t, store.NewPostgres(pool, uuid.NewString()))
}
