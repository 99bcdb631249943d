package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/singiamtel/PS-cord/internal/store"
)

var _ store.BlobStore = (*SQLiteStore)(nil)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetMissingKey(t *testing.T) {
	s := newTestStore(t)

	v, ok, err := s.Get(context.Background(), "settings")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok || v != "" {
		t.Fatalf("expected missing key, got %q (%v)", v, ok)
	}
}

func TestSetOverwritesAndDeletes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		value string
	}{
		{"first write", `{"username":"bob"}`},
		{"overwrite", `{"username":"alice"}`},
		{"empty value", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Set(ctx, "settings", tt.value); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			got, ok, err := s.Get(ctx, "settings")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if !ok || got != tt.value {
				t.Errorf("got %q (%v), want %q", got, ok, tt.value)
			}
		})
	}

	if err := s.Delete(ctx, "settings"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "settings"); ok {
		t.Fatalf("expected key to be deleted")
	}
	if err := s.Delete(ctx, "settings"); err != nil {
		t.Fatalf("deleting a missing key must not fail: %v", err)
	}
}

func TestNewPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pscord.db")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Set(ctx, "ps-token", "tok"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = New(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, ok, err := s.Get(ctx, "ps-token")
	if err != nil || !ok || got != "tok" {
		t.Fatalf("got %q (%v, %v), want tok", got, ok, err)
	}
}
