package services

import (
	"context"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"enterprise-docs-qa/internal/logger"
	"enterprise-docs-qa/internal/storage"
	"enterprise-docs-qa/internal/telemetry"
	"enterprise-docs-qa/models"
)

const (
	indexFormatVersion = 1
	manifestFile       = "manifest.json"
	vectorsFile        = "index.gob"

	// sentinelText is the single entry of the placeholder index built when
	// the corpus is empty.
	sentinelText = "no documents available"
)

// vectorIndex is the in-memory index: L2-normalized embeddings parallel to
// their chunks. It is immutable once installed; the manager swaps whole
// instances.
type vectorIndex struct {
	Vectors     [][]float32
	Chunks      []models.Chunk
	Model       string
	Dimension   int
	Placeholder bool
}

// indexManifest is written next to the serialized vectors. A mismatch on any
// field makes the persisted index incompatible, which degrades to a rebuild.
type indexManifest struct {
	Version     int       `json:"version"`
	Model       string    `json:"model"`
	Dimension   int       `json:"dimension"`
	Chunks      int       `json:"chunks"`
	Placeholder bool      `json:"placeholder"`
	BuiltAt     time.Time `json:"built_at"`
}

// BuildReport summarizes how the active index came to be ready.
type BuildReport struct {
	Documents   int
	Chunks      int
	Restored    bool // loaded from disk rather than rebuilt
	Placeholder bool // sentinel index for an empty corpus
}

// IndexManager owns the vector index lifecycle: load-from-disk, build,
// persist, invalidate. All access to chunks goes through the retriever's
// query path; nothing else touches the index. At most one build is in flight;
// concurrent callers await it instead of starting their own.
type IndexManager struct {
	mu     sync.RWMutex
	active *vectorIndex
	group  singleflight.Group

	source   storage.ObjectStore
	loader   *Loader
	chunker  *Chunker
	embedder Embedder
	dir      string
	metrics  *telemetry.Metrics
}

func NewIndexManager(source storage.ObjectStore, loader *Loader, chunker *Chunker, embedder Embedder, dir string, metrics *telemetry.Metrics) *IndexManager {
	return &IndexManager{
		source:   source,
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		dir:      dir,
		metrics:  metrics,
	}
}

// IsReady reports whether an index is installed. Pure query, no side effects.
func (m *IndexManager) IsReady() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active != nil
}

// Status returns the externally visible index state.
func (m *IndexManager) Status() models.IndexStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	status := models.IndexStatus{}
	if m.active != nil {
		status.Ready = true
		status.Placeholder = m.active.Placeholder
		if !m.active.Placeholder {
			status.Chunks = len(m.active.Chunks)
		}
	}
	return status
}

// EnsureReady makes the index queryable: no-op when ready, load from disk
// when a compatible persisted index exists, full rebuild otherwise. Safe to
// call repeatedly and concurrently; all callers observing an in-flight build
// await that build's outcome.
func (m *IndexManager) EnsureReady(ctx context.Context) (*BuildReport, error) {
	if snap := m.snapshot(); snap != nil {
		return reportFor(snap, true), nil
	}

	v, err, _ := m.group.Do("build", func() (interface{}, error) {
		// A concurrent caller may have completed the build between the
		// fast path and joining the group.
		if snap := m.snapshot(); snap != nil {
			return reportFor(snap, true), nil
		}
		if idx, err := m.loadPersisted(); err == nil {
			m.install(idx)
			logger.Info("vector index restored from disk", "chunks", len(idx.Chunks), "placeholder", idx.Placeholder)
			return reportFor(idx, true), nil
		} else if !os.IsNotExist(err) {
			logger.Warn("persisted index unusable, rebuilding", "error", err)
		}
		return m.build(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*BuildReport), nil
}

// Reindex drops the persisted and in-memory index, then rebuilds. An empty
// corpus yields a placeholder index and a non-success result.
func (m *IndexManager) Reindex(ctx context.Context) models.ReindexResult {
	// Best-effort removal; absence is fine.
	if err := os.RemoveAll(m.dir); err != nil {
		logger.Warn("failed to remove persisted index", "dir", m.dir, "error", err)
	}

	m.mu.Lock()
	m.active = nil
	m.mu.Unlock()

	report, err := m.EnsureReady(ctx)
	if err != nil {
		return models.ReindexResult{Success: false, Message: fmt.Sprintf("reindex failed: %v", err)}
	}
	if report.Placeholder {
		return models.ReindexResult{
			Success: false,
			Message: "no documents available; built an empty placeholder index",
		}
	}
	return models.ReindexResult{
		Success: true,
		Message: fmt.Sprintf("reindexed %d documents into %d chunks", report.Documents, report.Chunks),
	}
}

// snapshot returns the active index for lock-free reading by the retriever.
func (m *IndexManager) snapshot() *vectorIndex {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active
}

func (m *IndexManager) install(idx *vectorIndex) {
	m.mu.Lock()
	m.active = idx
	m.mu.Unlock()
}

func reportFor(idx *vectorIndex, restored bool) *BuildReport {
	report := &BuildReport{Restored: restored, Placeholder: idx.Placeholder}
	if !idx.Placeholder {
		report.Chunks = len(idx.Chunks)
	}
	return report
}

// build runs the full ingestion pipeline: enumerate, load, chunk, embed,
// persist, install. Any failure aborts the attempt without installing a
// partial index.
func (m *IndexManager) build(ctx context.Context) (*BuildReport, error) {
	started := time.Now()

	docs, err := m.source.ListByExtension(ctx, SupportedExtensions)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	units := m.loader.LoadAll(ctx, docs)
	chunks := m.chunker.ChunkAll(units)

	if len(chunks) == 0 {
		idx, err := m.buildPlaceholder(ctx)
		if err != nil {
			return nil, err
		}
		m.persistBestEffort(idx)
		m.install(idx)
		logger.Warn("corpus is empty, placeholder index installed", "documents", len(docs))
		return &BuildReport{Documents: len(docs), Placeholder: true}, nil
	}

	vectors := make([][]float32, len(chunks))
	dimension := 0
	for i, chunk := range chunks {
		vec, err := m.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d of %s: %w", chunk.ChunkIndex, chunk.Metadata.Source, err)
		}
		if dimension == 0 {
			dimension = len(vec)
		} else if len(vec) != dimension {
			return nil, fmt.Errorf("embedding dimension changed mid-build: %d != %d", len(vec), dimension)
		}
		vectors[i] = l2Normalize(vec)
	}

	idx := &vectorIndex{
		Vectors:   vectors,
		Chunks:    chunks,
		Model:     m.embedder.Model(),
		Dimension: dimension,
	}
	m.persistBestEffort(idx)
	m.install(idx)

	if m.metrics != nil {
		m.metrics.IndexBuildTime.Record(ctx, time.Since(started).Seconds())
	}
	logger.Info("vector index built",
		"documents", len(docs), "units", len(units), "chunks", len(chunks),
		"dimension", dimension, "elapsed", time.Since(started).String())

	return &BuildReport{Documents: len(docs), Chunks: len(chunks)}, nil
}

func (m *IndexManager) buildPlaceholder(ctx context.Context) (*vectorIndex, error) {
	vec, err := m.embedder.Embed(ctx, sentinelText)
	if err != nil {
		return nil, fmt.Errorf("embedding sentinel entry: %w", err)
	}
	return &vectorIndex{
		Vectors:     [][]float32{l2Normalize(vec)},
		Chunks:      []models.Chunk{{Text: sentinelText, Metadata: models.UnitMetadata{Source: "none"}}},
		Model:       m.embedder.Model(),
		Dimension:   len(vec),
		Placeholder: true,
	}, nil
}

// loadPersisted reads the on-disk index. Any incompatibility or corruption is
// reported as an error so the caller falls through to a rebuild.
func (m *IndexManager) loadPersisted() (*vectorIndex, error) {
	manifestData, err := os.ReadFile(filepath.Join(m.dir, manifestFile))
	if err != nil {
		return nil, err
	}
	var manifest indexManifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("%w: unreadable manifest: %v", ErrIndexIncompatible, err)
	}
	if manifest.Version != indexFormatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrIndexIncompatible, manifest.Version, indexFormatVersion)
	}
	if manifest.Model != m.embedder.Model() {
		return nil, fmt.Errorf("%w: built with model %q, current is %q", ErrIndexIncompatible, manifest.Model, m.embedder.Model())
	}

	f, err := os.Open(filepath.Join(m.dir, vectorsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var idx vectorIndex
	if err := gob.NewDecoder(f).Decode(&idx); err != nil {
		return nil, fmt.Errorf("%w: corrupt vector data: %v", ErrIndexIncompatible, err)
	}
	if len(idx.Vectors) != len(idx.Chunks) || len(idx.Chunks) != manifest.Chunks {
		return nil, fmt.Errorf("%w: vector/chunk count mismatch", ErrIndexIncompatible)
	}
	idx.Model = manifest.Model
	idx.Dimension = manifest.Dimension
	idx.Placeholder = manifest.Placeholder
	return &idx, nil
}

// persistBestEffort serializes the index. Persistence failure is logged, not
// fatal: the in-memory index still serves, the next cold start rebuilds.
func (m *IndexManager) persistBestEffort(idx *vectorIndex) {
	if err := m.persist(idx); err != nil {
		logger.Warn("failed to persist vector index", "dir", m.dir, "error", err)
	}
}

func (m *IndexManager) persist(idx *vectorIndex) error {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return err
	}

	vectorsPath := filepath.Join(m.dir, vectorsFile)
	tmp, err := os.CreateTemp(m.dir, "index-*.gob")
	if err != nil {
		return err
	}
	if err := gob.NewEncoder(tmp).Encode(idx); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), vectorsPath); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	manifest := indexManifest{
		Version:     indexFormatVersion,
		Model:       idx.Model,
		Dimension:   idx.Dimension,
		Chunks:      len(idx.Chunks),
		Placeholder: idx.Placeholder,
		BuiltAt:     time.Now().UTC(),
	}
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(m.dir, manifestFile), data, 0o644)
}

func l2Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
