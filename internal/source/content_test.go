package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeBackingStore struct {
	backing FileBacking
	chunks  [][]byte
	err     error
}

func (f *fakeBackingStore) FileBacking(context.Context, int64) (FileBacking, error) {
	return f.backing, f.err
}

func (f *fakeBackingStore) FileChunks(context.Context, int64) ([][]byte, error) {
	return f.chunks, f.err
}

func writeShardedFile(t *testing.T, dir, key string, content []byte) {
	t.Helper()
	shard := filepath.Join(dir, key[:1])
	if err := os.MkdirAll(shard, 0o755); err != nil {
		t.Fatalf("create shard dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(shard, key), content, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
}

func TestFetchFilesystemBackend(t *testing.T) {
	dir := t.TempDir()
	writeShardedFile(t, dir, "abc123", []byte("attachment bytes"))

	resolver := NewContentResolver(&fakeBackingStore{
		backing: FileBacking{Backend: BackendFilesystem, Key: "abc123"},
	}, dir)

	data, err := resolver.Fetch(context.Background(), 7)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "attachment bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestFetchFilesystemMissingFile(t *testing.T) {
	resolver := NewContentResolver(&fakeBackingStore{
		backing: FileBacking{Backend: BackendFilesystem, Key: "zzz999"},
	}, t.TempDir())

	_, err := resolver.Fetch(context.Background(), 7)
	if !errors.Is(err, ErrContentMissing) {
		t.Fatalf("expected ErrContentMissing, got %v", err)
	}
}

func TestFetchChunkBackendConcatenatesInOrder(t *testing.T) {
	resolver := NewContentResolver(&fakeBackingStore{
		backing: FileBacking{Backend: "D", Key: "ignored"},
		chunks:  [][]byte{[]byte("attach"), []byte("ment "), []byte("bytes")},
	}, t.TempDir())

	data, err := resolver.Fetch(context.Background(), 7)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(data) != "attachment bytes" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestFetchChunkBackendEmpty(t *testing.T) {
	resolver := NewContentResolver(&fakeBackingStore{
		backing: FileBacking{Backend: "D"},
	}, t.TempDir())

	_, err := resolver.Fetch(context.Background(), 7)
	if !errors.Is(err, ErrContentMissing) {
		t.Fatalf("expected ErrContentMissing, got %v", err)
	}
}

// Backend transparency: identical logical content must fetch byte-identically
// regardless of which backend holds it.
func TestFetchBackendTransparency(t *testing.T) {
	content := []byte("same logical payload")

	dir := t.TempDir()
	writeShardedFile(t, dir, "k1file", content)
	fsResolver := NewContentResolver(&fakeBackingStore{
		backing: FileBacking{Backend: BackendFilesystem, Key: "k1file"},
	}, dir)

	chunkResolver := NewContentResolver(&fakeBackingStore{
		backing: FileBacking{Backend: "D"},
		chunks:  [][]byte{content[:4], content[4:]},
	}, dir)

	fromFS, err := fsResolver.Fetch(context.Background(), 1)
	if err != nil {
		t.Fatalf("filesystem fetch failed: %v", err)
	}
	fromChunks, err := chunkResolver.Fetch(context.Background(), 2)
	if err != nil {
		t.Fatalf("chunk fetch failed: %v", err)
	}
	if string(fromFS) != string(fromChunks) {
		t.Fatalf("backends disagree: %q vs %q", fromFS, fromChunks)
	}
}

func TestAttachmentDisplayNameFallsBackToFileName(t *testing.T) {
	a := Attachment{Name: "", FileName: "scan.pdf"}
	if got := a.DisplayName(); got != "scan.pdf" {
		t.Fatalf("DisplayName = %q, want scan.pdf", got)
	}
	a.Name = "contract.pdf"
	if got := a.DisplayName(); got != "contract.pdf" {
		t.Fatalf("DisplayName = %q, want contract.pdf", got)
	}
}
