package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"ticketferry/internal/services"
)

// ErrContentMissing reports that an attachment's bytes could not be located
// on either backend. Callers skip the attachment and log it; the surrounding
// followup or ticket step is never failed by missing content.
var ErrContentMissing = fmt.Errorf("%w: attachment content missing", services.ErrNotFound)

// BackingStore is the slice of the source database the content resolver
// needs. *DB satisfies it; tests substitute fakes.
type BackingStore interface {
	FileBacking(ctx context.Context, fileID int64) (FileBacking, error)
	FileChunks(ctx context.Context, fileID int64) ([][]byte, error)
}

// ContentResolver fetches raw bytes for a stored file, hiding the two
// storage backends osTicket has used over its lifetime: filesystem files
// sharded by the key's first character, and chunk rows in the database.
type ContentResolver struct {
	store          BackingStore
	attachmentsDir string
}

// NewContentResolver builds a resolver rooted at the osTicket attachments
// directory.
func NewContentResolver(store BackingStore, attachmentsDir string) *ContentResolver {
	return &ContentResolver{store: store, attachmentsDir: attachmentsDir}
}

// Fetch returns the complete bytes for a file id. The result is never cached;
// each attachment is resolved exactly once per migration. A missing
// filesystem file or an empty chunk set yields ErrContentMissing.
func (r *ContentResolver) Fetch(ctx context.Context, fileID int64) ([]byte, error) {
	backing, err := r.store.FileBacking(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("resolve backing for file %d: %w", fileID, err)
	}

	if backing.Backend == BackendFilesystem {
		return r.fetchFilesystem(fileID, backing.Key)
	}
	return r.fetchChunks(ctx, fileID)
}

func (r *ContentResolver) fetchFilesystem(fileID int64, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("file %d: %w", fileID, ErrContentMissing)
	}
	// osTicket shards filesystem storage into one directory per leading key
	// character; the full key is the filename.
	path := filepath.Join(r.attachmentsDir, key[:1], key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("file %d at %s: %w", fileID, path, ErrContentMissing)
		}
		return nil, fmt.Errorf("read file %d at %s: %w", fileID, path, err)
	}
	return data, nil
}

func (r *ContentResolver) fetchChunks(ctx context.Context, fileID int64) ([]byte, error) {
	chunks, err := r.store.FileChunks(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("read chunks for file %d: %w", fileID, err)
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("file %d has no chunks: %w", fileID, ErrContentMissing)
	}
	return bytes.Join(chunks, nil), nil
}
