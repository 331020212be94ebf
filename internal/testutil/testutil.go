// Package testutil provides shared test helpers for setting up stores.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/berkana/internal/kv"
)

// TestStore creates a temporary SQLite key-value store that is automatically
// cleaned up.
func TestStore(t *testing.T) *kv.SQLite {
	t.Helper()
	store, err := kv.Open(filepath.Join(t.TempDir(), "berkana-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}
