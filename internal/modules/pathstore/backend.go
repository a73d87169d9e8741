// Package pathstore persists simulated path arrays to a directory or an S3 bucket.
package pathstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aristath/horizon/internal/domain"
)

// Backend stores opaque objects under slash separated keys.
// Get returns domain.ErrNotFound when the key was never written.
type Backend interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Describe names the backend location for logs and run records
	Describe() string
}

// FileBackend stores objects as files below a root directory
type FileBackend struct {
	root string
}

// NewFileBackend creates a backend rooted at dir, creating it when missing
func NewFileBackend(dir string) (*FileBackend, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve %s: %v", domain.ErrStorage, dir, err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create %s: %v", domain.ErrStorage, absDir, err)
	}
	return &FileBackend{root: absDir}, nil
}

// Root returns the absolute root directory
func (b *FileBackend) Root() string {
	return b.root
}

// Describe returns the root directory
func (b *FileBackend) Describe() string {
	return b.root
}

func (b *FileBackend) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: invalid key %q", domain.ErrStorage, key)
	}
	return filepath.Join(b.root, clean), nil
}

// Put writes data to a temporary file next to the target and renames it into place,
// so readers never observe a partially written object.
func (b *FileBackend) Put(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target, err := b.path(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: failed to create %s: %v", domain.ErrStorage, dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: failed to create temp file: %v", domain.ErrStorage, err)
	}
	tmpName := tmp.Name()

	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: failed to write %s: %v", domain.ErrStorage, key, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("%w: failed to sync %s: %v", domain.ErrStorage, key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: failed to close %s: %v", domain.ErrStorage, key, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("%w: failed to move %s into place: %v", domain.ErrStorage, key, err)
	}
	committed = true

	return nil
}

// Get reads the object stored under key
func (b *FileBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := b.path(key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, key)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %v", domain.ErrStorage, key, err)
	}
	return data, nil
}
