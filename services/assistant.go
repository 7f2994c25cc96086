package services

import (
	"context"
	"strings"

	"enterprise-docs-qa/internal/storage"
	"enterprise-docs-qa/internal/telemetry"
	"enterprise-docs-qa/models"
)

// Assistant composes the pipeline behind the service-facing operations:
// answer a query, list documents, reindex, report status.
type Assistant struct {
	source      storage.ObjectStore
	index       *IndexManager
	retriever   *Retriever
	synthesizer *Synthesizer
	topK        int
	metrics     *telemetry.Metrics
}

func NewAssistant(source storage.ObjectStore, index *IndexManager, retriever *Retriever, synthesizer *Synthesizer, topK int, metrics *telemetry.Metrics) *Assistant {
	return &Assistant{
		source:      source,
		index:       index,
		retriever:   retriever,
		synthesizer: synthesizer,
		topK:        topK,
		metrics:     metrics,
	}
}

// AnswerQuery runs retrieval and synthesis for one question. Empty queries
// are rejected before any pipeline work.
func (a *Assistant) AnswerQuery(ctx context.Context, query string) (models.AnswerRecord, error) {
	if strings.TrimSpace(query) == "" {
		return models.AnswerRecord{}, ErrInvalidQuery
	}

	retrieved, err := a.retriever.Retrieve(ctx, query, a.topK)
	if err != nil {
		return models.AnswerRecord{}, err
	}

	record, err := a.synthesizer.Synthesize(ctx, query, retrieved)
	if err != nil {
		return models.AnswerRecord{}, err
	}

	if a.metrics != nil {
		a.metrics.QueriesAnswered.Add(ctx, 1)
	}
	return record, nil
}

// ListDocuments enumerates corpus documents with supported extensions. The
// filter is applied here as well, so an adapter returning extra keys never
// leaks them to callers.
func (a *Assistant) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	docs, err := a.source.ListByExtension(ctx, SupportedExtensions)
	if err != nil {
		return nil, err
	}
	filtered := make([]models.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		if storage.HasExtension(doc.Key, SupportedExtensions) {
			filtered = append(filtered, doc)
		}
	}
	return filtered, nil
}

// Reindex discards and rebuilds the vector index.
func (a *Assistant) Reindex(ctx context.Context) models.ReindexResult {
	return a.index.Reindex(ctx)
}

// Status reports the index state.
func (a *Assistant) Status() models.IndexStatus {
	return a.index.Status()
}
