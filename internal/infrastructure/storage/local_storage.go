// Package storage provides file storage for export artifacts.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pos/backend/internal/application/exchange"
)

// Ensure LocalFileStore implements the exporter's FileStore
var _ exchange.FileStore = (*LocalFileStore)(nil)

// LocalFileStore writes export files under a single directory on the
// local disk. The application runs against an embedded store, so its
// export artifacts live next to it.
type LocalFileStore struct {
	dir    string
	logger *zap.Logger
}

// LocalFileStoreOption is a functional option for configuring LocalFileStore
type LocalFileStoreOption func(*LocalFileStore)

// WithLogger sets a custom logger for LocalFileStore
func WithLogger(logger *zap.Logger) LocalFileStoreOption {
	return func(s *LocalFileStore) {
		s.logger = logger
	}
}

// NewLocalFileStore creates a file store rooted at dir, creating the
// directory if needed
func NewLocalFileStore(dir string, opts ...LocalFileStoreOption) (*LocalFileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("storage directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}

	store := &LocalFileStore{
		dir:    dir,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Write stores data under name and returns the absolute path. Names must
// be plain file names; path traversal is rejected.
func (s *LocalFileStore) Write(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}

	s.logger.Debug("Stored file",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return path, nil
}

// Read loads a previously written file by name
func (s *LocalFileStore) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateName(name); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}

// List returns the names of all stored files in directory order
func (s *LocalFileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list storage directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// Dir returns the root directory of the store
func (s *LocalFileStore) Dir() string {
	return s.dir
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("file name is required")
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid file name %q", name)
	}
	return nil
}
