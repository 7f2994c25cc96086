package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func TestNewFilesystemStoreRejectsMissingDir(t *testing.T) {
	_, err := NewFilesystemStore(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestNewFilesystemStoreRejectsFile(t *testing.T) {
	root := t.TempDir()
	p := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))

	_, err := NewFilesystemStore(p)
	assert.ErrorContains(t, err, "not a directory")
}

func TestListByExtensionFiltersAndRecurses(t *testing.T) {
	root := writeTree(t, map[string]string{
		"policies/leave.txt":  "leave policy",
		"policies/org.html":   "<p>org</p>",
		"assets/logo.png":     "binary",
		"notes.md":            "notes",
		"archive/old/faq.txt": "faq",
	})
	store, err := NewFilesystemStore(root)
	require.NoError(t, err)

	docs, err := store.ListByExtension(context.Background(), []string{".txt", ".md"})
	require.NoError(t, err)

	keys := make([]string, 0, len(docs))
	for _, doc := range docs {
		keys = append(keys, doc.Key)
		assert.Positive(t, doc.Size)
		assert.False(t, doc.LastModified.IsZero())
	}
	assert.ElementsMatch(t, []string{"policies/leave.txt", "notes.md", "archive/old/faq.txt"}, keys)
}

func TestGetContent(t *testing.T) {
	root := writeTree(t, map[string]string{"a/b.txt": "document body"})
	store, err := NewFilesystemStore(root)
	require.NoError(t, err)

	data, err := store.GetContent(context.Background(), "a/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "document body", string(data))

	_, err = store.GetContent(context.Background(), "a/missing.txt")
	assert.Error(t, err)
}

func TestMaterializeToLocalFile(t *testing.T) {
	root := writeTree(t, map[string]string{"doc.pdf": "pdf bytes"})
	store, err := NewFilesystemStore(root)
	require.NoError(t, err)

	local, err := store.MaterializeToLocalFile(context.Background(), "doc.pdf")
	require.NoError(t, err)
	defer os.Remove(local)

	assert.NotEqual(t, filepath.Join(root, "doc.pdf"), local)
	assert.Equal(t, ".pdf", filepath.Ext(local))
	data, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "pdf bytes", string(data))
}

func TestResolveRejectsTraversal(t *testing.T) {
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("secret"), 0o644))
	root := writeTree(t, map[string]string{"inner.txt": "inner"})
	store, err := NewFilesystemStore(root)
	require.NoError(t, err)

	for _, key := range []string{
		"../secret.txt",
		"a/../../secret.txt",
		"..",
	} {
		_, err := store.GetContent(context.Background(), key)
		assert.Error(t, err, "key %q must not escape the root", key)
	}
}

func TestHasExtension(t *testing.T) {
	exts := []string{".txt", ".pdf"}
	assert.True(t, HasExtension("a/b.txt", exts))
	assert.True(t, HasExtension("A/B.TXT", exts))
	assert.True(t, HasExtension("report.pdf", exts))
	assert.False(t, HasExtension("report.docx", exts))
	assert.False(t, HasExtension("noext", exts))
}
