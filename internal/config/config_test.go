package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "filesystem", cfg.StorageBackend)
	assert.Equal(t, 500, cfg.MaxChunkSize)
	assert.Equal(t, 200, cfg.ChunkOverlap)
	assert.Equal(t, 4, cfg.TopK)
	assert.Zero(t, cfg.ReindexInterval)
	assert.Equal(t, 72*time.Hour, cfg.EmbedCacheTTL)
	assert.False(t, cfg.TracingEnabled)
}

func TestLoadConfigReadsEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_BACKEND", "gridfs")
	t.Setenv("MAX_CHUNK_SIZE", "800")
	t.Setenv("CHUNK_OVERLAP", "100")
	t.Setenv("RETRIEVAL_TOP_K", "6")
	t.Setenv("REINDEX_INTERVAL_MINUTES", "30")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "gridfs", cfg.StorageBackend)
	assert.Equal(t, 800, cfg.MaxChunkSize)
	assert.Equal(t, 100, cfg.ChunkOverlap)
	assert.Equal(t, 6, cfg.TopK)
	assert.Equal(t, 30*time.Minute, cfg.ReindexInterval)
}

func TestLoadConfigRejectsOverlapNotBelowChunkSize(t *testing.T) {
	t.Setenv("MAX_CHUNK_SIZE", "200")
	t.Setenv("CHUNK_OVERLAP", "200")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "CHUNK_OVERLAP")
}

func TestLoadConfigRejectsNonPositiveTopK(t *testing.T) {
	t.Setenv("RETRIEVAL_TOP_K", "-1")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "RETRIEVAL_TOP_K")
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "s3")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "STORAGE_BACKEND")
}
