package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"enterprise-docs-qa/models"
)

// FilesystemStore serves documents from a local directory tree. Keys are
// slash-separated paths relative to the root.
type FilesystemStore struct {
	root string
}

func NewFilesystemStore(root string) (*FilesystemStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("documents directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("documents path is not a directory: %s", root)
	}
	return &FilesystemStore{root: root}, nil
}

func (s *FilesystemStore) ListByExtension(ctx context.Context, extensions []string) ([]models.DocumentInfo, error) {
	var docs []models.DocumentInfo
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !HasExtension(key, extensions) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		docs = append(docs, models.DocumentInfo{
			Key:          key,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	return docs, nil
}

func (s *FilesystemStore) GetContent(ctx context.Context, key string) ([]byte, error) {
	p, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return data, nil
}

func (s *FilesystemStore) MaterializeToLocalFile(ctx context.Context, key string) (string, error) {
	p, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	src, err := os.Open(p)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", key, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "doc-*"+path.Ext(key))
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("copying %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// resolve maps a key to a path under root, rejecting traversal outside it.
func (s *FilesystemStore) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid key: %s", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
