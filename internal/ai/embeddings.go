package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"google.golang.org/api/option"

	"enterprise-docs-qa/internal/config"
	"enterprise-docs-qa/internal/telemetry"

	genai "github.com/google/generative-ai-go/genai"
)

// EmbeddingClient is the embedding oracle. Vectors from the provider are
// deterministic enough to cache, so results are kept in Redis keyed by
// model + content hash when a cache client is configured.
type EmbeddingClient struct {
	client  *genai.Client
	model   string
	cache   *redis.Client
	ttl     time.Duration
	metrics *telemetry.Metrics
}

func NewEmbeddingClient(cfg *config.Config, cache *redis.Client, metrics *telemetry.Metrics) (*EmbeddingClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY for embeddings")
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, err
	}
	return &EmbeddingClient{
		client:  client,
		model:   cfg.EmbeddingsModel,
		cache:   cache,
		ttl:     cfg.EmbedCacheTTL,
		metrics: metrics,
	}, nil
}

// Model returns the embedding model identifier. Persisted indexes built with
// a different model are incompatible and must be rebuilt.
func (ec *EmbeddingClient) Model() string { return ec.model }

// Embed returns an embedding vector for the given text.
func (ec *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	key := ec.cacheKey(text)
	if vec, ok := ec.cacheGet(ctx, key); ok {
		return vec, nil
	}

	model := ec.client.EmbeddingModel(ec.model)
	resp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	ec.cachePut(ctx, key, resp.Embedding.Values)
	return resp.Embedding.Values, nil
}

func (ec *EmbeddingClient) Close() {
	ec.client.Close()
}

func (ec *EmbeddingClient) cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "embed:" + ec.model + ":" + hex.EncodeToString(sum[:])
}

func (ec *EmbeddingClient) cacheGet(ctx context.Context, key string) ([]float32, bool) {
	if ec.cache == nil {
		return nil, false
	}
	data, err := ec.cache.Get(ctx, key).Bytes()
	if err != nil {
		if ec.metrics != nil && err == redis.Nil {
			ec.metrics.EmbedCacheMisses.Add(ctx, 1)
		}
		return nil, false
	}
	var vec []float32
	if err := json.Unmarshal(data, &vec); err != nil {
		return nil, false
	}
	if ec.metrics != nil {
		ec.metrics.EmbedCacheHits.Add(ctx, 1)
	}
	return vec, true
}

func (ec *EmbeddingClient) cachePut(ctx context.Context, key string, vec []float32) {
	if ec.cache == nil {
		return
	}
	data, err := json.Marshal(vec)
	if err != nil {
		return
	}
	// Cache failures are non-fatal; the provider call already succeeded.
	ec.cache.Set(ctx, key, data, ec.ttl)
}
