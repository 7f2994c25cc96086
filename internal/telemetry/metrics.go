package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics
type Metrics struct {
	RequestCounter     metric.Int64Counter
	RequestDuration    metric.Float64Histogram
	IndexBuildTime     metric.Float64Histogram
	DocumentsSkipped   metric.Int64Counter
	EmbedCacheHits     metric.Int64Counter
	EmbedCacheMisses   metric.Int64Counter
	QueriesAnswered    metric.Int64Counter
	CitationsExtracted metric.Int64Counter
}

// InitMetrics initializes all application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("enterprise-docs-qa")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	indexBuildTime, err := meter.Float64Histogram(
		"index.build.duration",
		metric.WithDescription("Vector index build duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	documentsSkipped, err := meter.Int64Counter(
		"ingest.documents.skipped",
		metric.WithDescription("Documents skipped during ingestion due to parse failures"),
	)
	if err != nil {
		return nil, err
	}

	embedCacheHits, err := meter.Int64Counter(
		"embeddings.cache.hits",
		metric.WithDescription("Embedding cache hits"),
	)
	if err != nil {
		return nil, err
	}

	embedCacheMisses, err := meter.Int64Counter(
		"embeddings.cache.misses",
		metric.WithDescription("Embedding cache misses"),
	)
	if err != nil {
		return nil, err
	}

	queriesAnswered, err := meter.Int64Counter(
		"queries.answered.total",
		metric.WithDescription("Queries answered end to end"),
	)
	if err != nil {
		return nil, err
	}

	citationsExtracted, err := meter.Int64Counter(
		"citations.extracted.total",
		metric.WithDescription("Citations successfully parsed out of generated answers"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:     requestCounter,
		RequestDuration:    requestDuration,
		IndexBuildTime:     indexBuildTime,
		DocumentsSkipped:   documentsSkipped,
		EmbedCacheHits:     embedCacheHits,
		EmbedCacheMisses:   embedCacheMisses,
		QueriesAnswered:    queriesAnswered,
		CitationsExtracted: citationsExtracted,
	}, nil
}

// RecordRequest records metrics for one HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	ctx := context.Background()
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration, attrs)
}
