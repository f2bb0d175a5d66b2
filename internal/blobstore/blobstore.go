// Package blobstore is a filesystem-backed store for file payload bytes,
// addressed by opaque id. It holds no metadata: names, aliases and
// expirations live in metastore.
package blobstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var (
	// ErrNotFound is returned by Open when no blob exists for the id.
	ErrNotFound = errors.New("blobstore: not found")
)

// Store is a directory of flat, opaque-id files.
type Store struct {
	dir string
}

// Config configures the store's root directory.
type Config struct {
	// Dir is the directory blobs are written into. Must already exist.
	Dir string
}

// New verifies dir exists and is a directory, per the admission check the
// pipeline expects at startup rather than on first upload.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("blobstore: dir is required")
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("blobstore: stat dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blobstore: %s is not a directory", cfg.Dir)
	}
	return &Store{dir: cfg.Dir}, nil
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id)
}

// Healthcheck reports whether the store's root directory is still present
// and a directory, the same admission check New performs at startup.
func (s *Store) Healthcheck() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("blobstore: stat dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("blobstore: %s is not a directory", s.dir)
	}
	return nil
}

// Writer is returned by Create; the caller streams payload bytes to it and
// must call Commit to make the blob visible, or Abort to discard it.
type Writer struct {
	f       *os.File
	tmpPath string
	path    string
	done    bool
}

// Write implements io.Writer, streaming directly to the temp file so no
// full-body buffering is required (spec §4.7).
func (w *Writer) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Commit flushes and atomically renames the temp file into place.
func (w *Writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	if err := w.f.Close(); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("blobstore: create_failed: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath)
		return fmt.Errorf("blobstore: create_failed: %w", err)
	}
	return nil
}

// Abort closes and discards the temp file, used on upload rollback.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.f.Close()
	return os.Remove(w.tmpPath)
}

// Create opens a new blob for writing. The blob is not visible to Open
// until Commit succeeds.
func (s *Store) Create(id string) (*Writer, error) {
	path := s.path(id)
	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blobstore: create_failed: %w", err)
	}
	return &Writer{f: f, tmpPath: tmpPath, path: path}, nil
}

// Open returns a ReadCloser streaming the blob's bytes.
func (s *Store) Open(id string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("blobstore: open_failed: %w", err)
	}
	return f, nil
}

// Delete removes a blob. A missing blob is not an error: callers reconcile
// metastore and blobstore independently and deletion must be idempotent.
func (s *Store) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blobstore: remove_failed: %w", err)
	}
	return nil
}
