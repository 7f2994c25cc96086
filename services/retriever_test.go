package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(t *testing.T, docs map[string]string, defaultK int) *Retriever {
	t.Helper()
	embedder := &fakeEmbedder{}
	m, _ := newTestIndexManager(t, docs, embedder, t.TempDir())
	return NewRetriever(m, embedder, defaultK)
}

func TestRetrieveRanksByCosineSimilarity(t *testing.T) {
	r := newTestRetriever(t, map[string]string{
		"apples.txt": "apple apple apple apple",
		"zebra.txt":  "zebra zebra zebra",
		"mixed.txt":  "apple zebra",
	}, 4)

	results, err := r.Retrieve(context.Background(), "apple", 3)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "apples.txt", results[0].Chunk.Metadata.Source)
	assert.Equal(t, "mixed.txt", results[1].Chunk.Metadata.Source)
	assert.Equal(t, "zebra.txt", results[2].Chunk.Metadata.Source)
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
	assert.GreaterOrEqual(t, results[1].Score, results[2].Score)
}

func TestRetrieveLimitsToK(t *testing.T) {
	r := newTestRetriever(t, map[string]string{
		"a.txt": "alpha", "b.txt": "bravo", "c.txt": "charlie", "d.txt": "delta",
	}, 4)

	results, err := r.Retrieve(context.Background(), "alpha", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrieveUsesDefaultKWhenUnset(t *testing.T) {
	r := newTestRetriever(t, map[string]string{
		"a.txt": "alpha", "b.txt": "bravo", "c.txt": "charlie",
	}, 2)

	results, err := r.Retrieve(context.Background(), "alpha", 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRetrieveKLargerThanCorpus(t *testing.T) {
	r := newTestRetriever(t, map[string]string{"a.txt": "only document"}, 4)

	results, err := r.Retrieve(context.Background(), "document", 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRetrieveBuildsColdIndex(t *testing.T) {
	embedder := &fakeEmbedder{}
	m, _ := newTestIndexManager(t, map[string]string{"a.txt": "warm me up"}, embedder, t.TempDir())
	r := NewRetriever(m, embedder, 4)
	require.False(t, m.IsReady())

	results, err := r.Retrieve(context.Background(), "warm", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.True(t, m.IsReady())
}

func TestRetrieveEmbedFailure(t *testing.T) {
	embedder := &fakeEmbedder{}
	m, _ := newTestIndexManager(t, map[string]string{"a.txt": "document"}, embedder, t.TempDir())
	_, err := m.EnsureReady(context.Background())
	require.NoError(t, err)

	embedder.fail = true
	_, err = NewRetriever(m, embedder, 4).Retrieve(context.Background(), "query", 1)
	assert.ErrorContains(t, err, "embedding query")
}
