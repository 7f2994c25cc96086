package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"enterprise-docs-qa/internal/telemetry"
	"enterprise-docs-qa/models"
)

// apologyAnswer is returned without invoking the generation oracle when
// nothing relevant was retrieved.
const apologyAnswer = "I'm sorry, I couldn't find any relevant information in the document corpus to answer that question."

const excerptLength = 150

// citationPattern matches the first bracketed citation list, e.g.
// "[Document 1, Document 3]" or "[Document 2, 4]". The oracle is not
// contractually bound to this format, so parsing is strictly best-effort.
var (
	citationPattern = regexp.MustCompile(`\[Document\s+\d+(?:\s*,\s*(?:Document\s+)?\d+)*\]`)
	digitPattern    = regexp.MustCompile(`\d+`)
)

// Synthesizer builds the grounding prompt, invokes the generation oracle once
// and maps cited document numbers back to chunk provenance.
type Synthesizer struct {
	generator Generator
	metrics   *telemetry.Metrics
}

func NewSynthesizer(generator Generator, metrics *telemetry.Metrics) *Synthesizer {
	return &Synthesizer{generator: generator, metrics: metrics}
}

// Synthesize turns retrieved chunks into an answer with citations. Missing or
// malformed citations in the generated text yield empty sources, never an
// error. No partial record is returned on oracle failure.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, retrieved []models.ScoredChunk) (models.AnswerRecord, error) {
	if len(retrieved) == 0 {
		return models.AnswerRecord{Answer: apologyAnswer, Sources: []models.Source{}}, nil
	}

	answer, err := s.generator.Generate(ctx, buildPrompt(query, retrieved))
	if err != nil {
		return models.AnswerRecord{}, fmt.Errorf("answer generation: %w", err)
	}

	sources := extractCitations(answer, retrieved)
	if s.metrics != nil && len(sources) > 0 {
		s.metrics.CitationsExtracted.Add(ctx, int64(len(sources)))
	}
	return models.AnswerRecord{Answer: answer, Sources: sources}, nil
}

func buildPrompt(query string, retrieved []models.ScoredChunk) string {
	var sb strings.Builder
	sb.WriteString("You are an assistant answering questions about an enterprise document corpus.\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Answer using only the information in the context documents below.\n")
	sb.WriteString("- If the context does not contain the answer, say you do not know.\n")
	sb.WriteString("- Keep a professional register.\n")
	sb.WriteString("- Cite the documents your answer draws on.\n\n")
	sb.WriteString("Context documents:\n")
	for i, sc := range retrieved {
		fmt.Fprintf(&sb, "Document [%d] (source: %s): %s\n\n", i+1, sc.Chunk.Metadata.Source, sc.Chunk.Text)
	}
	sb.WriteString("Question: ")
	sb.WriteString(query)
	sb.WriteString("\n\nEnd your answer with the numbers of the documents you cited, in the form [Document 1, Document 2].")
	return sb.String()
}

// extractCitations scans the answer for the first citation list and maps the
// 1-indexed document numbers back to retrieved chunks. Out-of-range numbers
// are dropped silently; duplicates keep their first occurrence; citation
// order is preserved.
func extractCitations(answer string, retrieved []models.ScoredChunk) []models.Source {
	sources := []models.Source{}

	match := citationPattern.FindString(answer)
	if match == "" {
		return sources
	}

	seen := make(map[int]bool)
	for _, raw := range digitPattern.FindAllString(match, -1) {
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		i := n - 1
		if i < 0 || i >= len(retrieved) || seen[i] {
			continue
		}
		seen[i] = true
		chunk := retrieved[i].Chunk
		sources = append(sources, models.Source{
			Title:   chunk.Metadata.Source,
			Excerpt: excerpt(chunk.Text),
		})
	}
	return sources
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) <= excerptLength {
		return text
	}
	return string(runes[:excerptLength]) + "..."
}
