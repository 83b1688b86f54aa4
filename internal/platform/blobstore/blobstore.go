// Package blobstore provides the key/bytes store that holds encrypted health
// link artifacts. Keys are slash-separated relative paths such as
// "<submissionID>/bundle.enc"; writes are whole-blob and never mutated after
// creation.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is returned when no blob exists at the requested key.
var ErrNotFound = errors.New("blob not found")

// Store is the minimal write/read contract the link service depends on.
type Store interface {
	Write(ctx context.Context, key string, data []byte) error
	Read(ctx context.Context, key string) ([]byte, error)
}

// FileStore persists blobs on a filesystem rooted at a base path. The afero
// abstraction keeps the same implementation usable against the OS filesystem
// in production and an in-memory filesystem in tests.
type FileStore struct {
	fs       afero.Fs
	basePath string
}

// NewFileStore creates a FileStore over the OS filesystem.
func NewFileStore(basePath string) *FileStore {
	return &FileStore{fs: afero.NewOsFs(), basePath: basePath}
}

// NewFileStoreFS creates a FileStore over the supplied filesystem.
func NewFileStoreFS(fs afero.Fs, basePath string) *FileStore {
	return &FileStore{fs: fs, basePath: basePath}
}

// Write stores data at key, creating parent directories as needed.
func (s *FileStore) Write(_ context.Context, key string, data []byte) error {
	full, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := s.fs.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return fmt.Errorf("blobstore: create directory for %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, full, data, 0o640); err != nil {
		return fmt.Errorf("blobstore: write %s: %w", key, err)
	}
	return nil
}

// Read returns the data stored at key, or ErrNotFound.
func (s *FileStore) Read(_ context.Context, key string) ([]byte, error) {
	full, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, full)
	if err != nil {
		exists, statErr := afero.Exists(s.fs, full)
		if statErr == nil && !exists {
			return nil, fmt.Errorf("blobstore: %s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("blobstore: read %s: %w", key, err)
	}
	return data, nil
}

// resolve joins key onto the base path, rejecting keys that would escape it.
func (s *FileStore) resolve(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("blobstore: invalid key %q", key)
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}
