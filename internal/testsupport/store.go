package testsupport

import (
	"path/filepath"
	"testing"

	"ticketferry/internal/state"
)

// MustOpenStore opens a state store in a temp directory and closes it when
// the test finishes.
func MustOpenStore(t testing.TB) *state.Store {
	t.Helper()

	store, err := state.Open(filepath.Join(t.TempDir(), "migration.db"))
	if err != nil {
		t.Fatalf("open state store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close state store: %v", err)
		}
	})
	return store
}
