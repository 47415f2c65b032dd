package storage

import (
	"path/filepath"
	"testing"
)

// NewTestStore opens a migrated store in a temporary directory that is
// removed when the test ends.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	store, err := OpenStore(filepath.Join(t.TempDir(), "collection.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}
