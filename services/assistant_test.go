package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAssistant(t *testing.T, docs map[string]string, gen *fakeGenerator) (*Assistant, *fakeSource) {
	t.Helper()
	embedder := &fakeEmbedder{}
	m, src := newTestIndexManager(t, docs, embedder, t.TempDir())
	retriever := NewRetriever(m, embedder, 4)
	synthesizer := NewSynthesizer(gen, nil)
	return NewAssistant(src, m, retriever, synthesizer, 4, nil), src
}

func TestAnswerQueryRejectsBlankQuestion(t *testing.T) {
	a, _ := newTestAssistant(t, map[string]string{"a.txt": "doc"}, &fakeGenerator{})

	_, err := a.AnswerQuery(context.Background(), "   \t\n")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = a.AnswerQuery(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestAnswerQueryEndToEnd(t *testing.T) {
	gen := &fakeGenerator{reply: "Annual leave is twenty days. [Document 1]"}
	a, _ := newTestAssistant(t, map[string]string{
		"hr/leave.txt":  "Employees accrue twenty days of annual leave.",
		"hr/remote.txt": "Remote work requires manager approval.",
	}, gen)

	record, err := a.AnswerQuery(context.Background(), "how many days of annual leave")
	require.NoError(t, err)
	assert.Equal(t, "Annual leave is twenty days. [Document 1]", record.Answer)
	require.Len(t, record.Sources, 1)
	assert.Equal(t, "hr/leave.txt", record.Sources[0].Title)
	assert.Equal(t, 1, gen.callCount())
}

func TestAnswerQueryEmptyCorpusApologizes(t *testing.T) {
	gen := &fakeGenerator{reply: "unused"}
	a, _ := newTestAssistant(t, nil, gen)

	record, err := a.AnswerQuery(context.Background(), "anything")
	require.NoError(t, err)
	assert.Contains(t, record.Answer, "couldn't find any relevant information")
	assert.Empty(t, record.Sources)
	assert.Zero(t, gen.callCount())
}

func TestListDocumentsFiltersUnsupportedKeys(t *testing.T) {
	a, src := newTestAssistant(t, map[string]string{
		"a.txt":     "text",
		"b.pdf":     "pdf bytes",
		"movie.mp4": "binary",
		"tool.exe":  "binary",
	}, &fakeGenerator{})
	// Misbehaving adapter returns every key regardless of the filter; the
	// service-level filter still hides unsupported ones.
	src.ignoreFilter = true

	docs, err := a.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a.txt", docs[0].Key)
	assert.Equal(t, "b.pdf", docs[1].Key)
	for _, doc := range docs {
		assert.Positive(t, doc.Size)
		assert.False(t, doc.LastModified.IsZero())
	}
}

func TestListDocumentsSourceError(t *testing.T) {
	a, src := newTestAssistant(t, nil, &fakeGenerator{})
	src.listErr = context.DeadlineExceeded

	_, err := a.ListDocuments(context.Background())
	assert.Error(t, err)
}

func TestReindexAndStatusRoundTrip(t *testing.T) {
	a, _ := newTestAssistant(t, map[string]string{"a.txt": "one document"}, &fakeGenerator{})

	assert.False(t, a.Status().Ready)

	result := a.Reindex(context.Background())
	assert.True(t, result.Success)

	status := a.Status()
	assert.True(t, status.Ready)
	assert.False(t, status.Placeholder)
	assert.Equal(t, 1, status.Chunks)
}
