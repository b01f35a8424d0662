package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/pengaduan-service/internal/config"
)

// Uploader stores complaint photo bytes out-of-band and returns a reference
// string persisted on the complaint row.
type Uploader interface {
	UploadBytes(ctx context.Context, filename string, b []byte) (string, error)
	Remove(ctx context.Context, ref string) error
}

// DiskStore writes uploads to a local directory.
type DiskStore struct {
	dir     string
	maxSize int64
}

// ErrTooLarge marks uploads over the configured limit.
type ErrTooLarge struct {
	Limit int64
}

func (e *ErrTooLarge) Error() string {
	return fmt.Sprintf("file exceeds %d bytes", e.Limit)
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(cfg config.UploadConfig) (*DiskStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: cfg.Dir, maxSize: cfg.MaxSizeBytes}, nil
}

// UploadBytes persists the photo under a generated name, keeping the original
// extension. The returned reference is the stored filename.
func (s *DiskStore) UploadBytes(_ context.Context, filename string, b []byte) (string, error) {
	if s.maxSize > 0 && int64(len(b)) > s.maxSize {
		return "", &ErrTooLarge{Limit: s.maxSize}
	}

	ext := strings.ToLower(filepath.Ext(filename))
	ref := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, ref), b, 0o644); err != nil {
		return "", err
	}
	return ref, nil
}

// Remove deletes a stored photo. Missing files are not an error; the row is
// the source of truth and the file may already be gone.
func (s *DiskStore) Remove(_ context.Context, ref string) error {
	if ref == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, filepath.Base(ref)))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
