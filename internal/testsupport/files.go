package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteAttachment places file content under an osTicket-style attachments
// directory, sharded by the key's first character, and returns the path.
func WriteAttachment(t testing.TB, attachmentsDir, key string, content []byte) string {
	t.Helper()

	if key == "" {
		t.Fatal("attachment key must not be empty")
	}
	dir := filepath.Join(attachmentsDir, key[:1])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, key)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
