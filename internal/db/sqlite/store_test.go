package sqlite

import (
	"path/filepath"
	"testing"

	"sla-service/internal/store"
	"sla-service/internal/store/storetest"
)

func setupTestDB(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return setupTestDB(t)
	})
}

func TestNewStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	s.Close()

	// Schema uses IF NOT EXISTS so reopening is safe
	s, err = NewStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	s.Close()
}
