package storage

import (
	"context"
	"path"
	"strings"

	"enterprise-docs-qa/models"
)

// ObjectStore abstracts enumeration and retrieval of raw documents held in
// object storage. Keys are slash-separated paths within the store. Callers of
// MaterializeToLocalFile own the returned file and must remove it.
type ObjectStore interface {
	ListByExtension(ctx context.Context, extensions []string) ([]models.DocumentInfo, error)
	GetContent(ctx context.Context, key string) ([]byte, error)
	MaterializeToLocalFile(ctx context.Context, key string) (string, error)
}

// HasExtension reports whether key's lowercased extension is in extensions.
func HasExtension(key string, extensions []string) bool {
	ext := strings.ToLower(path.Ext(key))
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
