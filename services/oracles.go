package services

import "context"

// Embedder is the embedding oracle: text in, fixed-dimension vector out.
// Implemented by ai.EmbeddingClient; tests substitute deterministic fakes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	// Model identifies the embedding model. Indexes persisted under a
	// different model are incompatible.
	Model() string
}

// Generator is the generation oracle: single-shot prompt in, answer text out.
// Implemented by ai.GeminiClient.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
