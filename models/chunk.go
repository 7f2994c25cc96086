package models

// Chunk is the atomic unit of embedding and retrieval: a bounded, overlapping
// segment of one normalized unit's text. Chunks never cross unit boundaries.
// ChunkIndex increases monotonically from 0 within a unit.
type Chunk struct {
	ChunkID    string       `json:"chunk_id"`
	Text       string       `json:"text"`
	Metadata   UnitMetadata `json:"metadata"`
	ChunkIndex int          `json:"chunk_index"`
}

// ScoredChunk pairs a chunk with its similarity score for one query.
// Retrieval results are ordered by descending score.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}
