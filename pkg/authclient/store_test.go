package authclient

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	if got := store.Get(AccessTokenKey); got != "" {
		t.Fatalf("expected empty value, got %q", got)
	}
	if err := store.Set(AccessTokenKey, "A1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if got := store.Get(AccessTokenKey); got != "A1" {
		t.Fatalf("expected A1, got %q", got)
	}
	if err := store.Delete(AccessTokenKey); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if got := store.Get(AccessTokenKey); got != "" {
		t.Fatalf("expected deleted value, got %q", got)
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tokens.json")
	store := NewFileStore(path)

	// A missing file reads as empty, not as an error.
	if got := store.Get(AccessTokenKey); got != "" {
		t.Fatalf("expected empty value from missing file, got %q", got)
	}

	if err := store.Set(AccessTokenKey, "A1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	if err := store.Set(RefreshTokenKey, "R1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	// A second store on the same path sees the same values.
	other := NewFileStore(path)
	if other.Get(AccessTokenKey) != "A1" || other.Get(RefreshTokenKey) != "R1" {
		t.Fatalf("values not durable across instances")
	}

	if err := store.Delete(AccessTokenKey); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if got := other.Get(AccessTokenKey); got != "" {
		t.Fatalf("expected delete to be visible, got %q", got)
	}
	if got := other.Get(RefreshTokenKey); got != "R1" {
		t.Fatalf("delete clobbered the other key, got %q", got)
	}
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens.json")
	store := NewFileStore(path)
	if err := store.Set(AccessTokenKey, "A1"); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}
