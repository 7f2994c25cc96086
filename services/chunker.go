package services

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"enterprise-docs-qa/models"
)

// Chunker splits normalized units into bounded, overlapping segments. Cuts
// prefer paragraph, then sentence, then word boundaries, falling back to a
// hard character cut. Consecutive chunks from one unit share exactly
// `overlap` characters, so concatenating them with the overlap removed
// reconstructs the unit's text: no character is ever dropped.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// NewChunker returns an error when overlap is not strictly smaller than
// maxChunkSize; that configuration cannot make forward progress.
func NewChunker(maxChunkSize, overlap int) (*Chunker, error) {
	if maxChunkSize <= 0 {
		return nil, fmt.Errorf("maxChunkSize must be positive, got %d", maxChunkSize)
	}
	if overlap < 0 || overlap >= maxChunkSize {
		return nil, fmt.Errorf("overlap (%d) must be in [0, maxChunkSize=%d)", overlap, maxChunkSize)
	}
	return &Chunker{maxChunkSize: maxChunkSize, overlap: overlap}, nil
}

// ChunkAll flattens a sequence of units into a chunk sequence. Chunks never
// cross unit boundaries.
func (c *Chunker) ChunkAll(units []models.NormalizedUnit) []models.Chunk {
	var chunks []models.Chunk
	for _, unit := range units {
		chunks = append(chunks, c.ChunkUnit(unit)...)
	}
	return chunks
}

// ChunkUnit splits one unit. ChunkIndex starts at 0 and increases by one per
// chunk within the unit.
func (c *Chunker) ChunkUnit(unit models.NormalizedUnit) []models.Chunk {
	if strings.TrimSpace(unit.Text) == "" {
		return nil
	}
	runes := []rune(unit.Text)

	var chunks []models.Chunk
	start := 0
	idx := 0
	for start < len(runes) {
		end := start + c.maxChunkSize
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = c.cutPoint(runes, start, end)
		}
		chunks = append(chunks, models.Chunk{
			ChunkID:    uuid.NewString(),
			Text:       string(runes[start:end]),
			Metadata:   unit.Metadata,
			ChunkIndex: idx,
		})
		if end == len(runes) {
			break
		}
		start = end - c.overlap
		idx++
	}
	return chunks
}

// cutPoint picks a boundary in (start, end] to cut at, never earlier than
// start+overlap+1 so the next window always advances.
func (c *Chunker) cutPoint(runes []rune, start, end int) int {
	floor := start + c.overlap + 1
	if floor >= end {
		return end
	}

	// Paragraph or line break first.
	for i := end - 1; i >= floor; i-- {
		if runes[i] == '\n' {
			return i + 1
		}
	}
	// Then sentence end.
	for i := end - 2; i >= floor; i-- {
		if isSentenceEnd(runes[i]) && unicode.IsSpace(runes[i+1]) {
			return i + 1
		}
	}
	// Then any word boundary.
	for i := end - 1; i >= floor; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}
	return end
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
