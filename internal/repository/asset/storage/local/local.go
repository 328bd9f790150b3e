// Package local stores assets on the filesystem under a single root,
// one subdirectory per resource kind. Paths handed to callers are relative
// to the root and map one-to-one onto the public /uploads URL space.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"catalog-media/internal/repository/asset"
)

type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// Save writes data under the given relative path, creating the kind
// directory on first use. Create-or-ensure is idempotent; the directory is
// never removed by this store.
func (s *FileStore) Save(ctx context.Context, path string, data []byte) error {
	abs, err := s.abs(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}

	// O_EXCL guards the path-never-reused invariant against a token
	// collision.
	f, err := os.OpenFile(abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create asset file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(abs)
		return fmt.Errorf("failed to write asset file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close asset file: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, path string) error {
	abs, err := s.abs(path)
	if err != nil {
		return err
	}

	if err := os.Remove(abs); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return asset.ErrFileNotFound
		}
		return fmt.Errorf("failed to delete asset file: %w", err)
	}
	return nil
}

// List walks the storage root and returns every stored file with its
// modification time.
func (s *FileStore) List(ctx context.Context) ([]asset.StoredFile, error) {
	var files []asset.StoredFile

	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		files = append(files, asset.StoredFile{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list storage root: %w", err)
	}
	return files, nil
}

// Root returns the absolute storage root, used by the router to serve the
// /uploads subtree.
func (s *FileStore) Root() string { return s.root }

func (s *FileStore) abs(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid asset path: %q", path)
	}
	return filepath.Join(s.root, clean), nil
}
