package tfidf

import (
	"context"
	"errors"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

func TestBatchEmbed_ShapeAndNorm(t *testing.T) {
	e := NewEmbedder(nil)
	texts := []string{
		"senior python developer backend system",
		"python developer django backend",
		"graphic designer adobe illustrator",
	}

	res, err := e.BatchEmbed(context.Background(), texts)
	require.NoError(t, err)
	require.NoError(t, res.Validate(len(texts)))
	assert.Zero(t, res.TotalTokens)

	for i, v := range res.Embeddings {
		assert.InDelta(t, 1.0, math.Sqrt(dot(v, v)), 1e-5, "vector %d", i)
	}
}

func TestBatchEmbed_SimilarTextsScoreHigher(t *testing.T) {
	e := NewEmbedder(nil)
	res, err := e.BatchEmbed(context.Background(), []string{
		"senior python developer 6 year backend system",
		"python developer 5 year django postgresql backend",
		"graphic designer adobe illustrator",
	})
	require.NoError(t, err)

	ref := res.Embeddings[0]
	python := dot(ref, res.Embeddings[1])
	designer := dot(ref, res.Embeddings[2])
	assert.Greater(t, python, designer)
	assert.InDelta(t, 0.0, designer, 1e-9)
}

func TestBatchEmbed_EmptyTextIsZeroVector(t *testing.T) {
	e := NewEmbedder(nil)
	res, err := e.BatchEmbed(context.Background(), []string{"python", ""})
	require.NoError(t, err)
	assert.Equal(t, []float32{0}, res.Embeddings[1])
}

func TestBatchEmbed_NoTerms(t *testing.T) {
	e := NewEmbedder(nil)
	_, err := e.BatchEmbed(context.Background(), []string{"", "  "})
	assert.True(t, errors.Is(err, domain.ErrEmbeddingProviderError))
}

func TestBatchEmbed_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewEmbedder(nil).BatchEmbed(ctx, []string{"python"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEmbed_Single(t *testing.T) {
	res, err := NewEmbedder(nil).Embed(context.Background(), "go go rust")
	require.NoError(t, err)
	// vocabulary is sorted: go, rust
	require.Len(t, res.Embedding, 2)
	assert.Greater(t, res.Embedding[0], res.Embedding[1])
}

func TestFit_SortedVocabulary(t *testing.T) {
	vocab, idf := fit([][]string{{"b", "a"}, {"a"}})
	assert.Equal(t, map[string]int{"a": 0, "b": 1}, vocab)
	// a appears in every document, b in one
	assert.Less(t, idf[0], idf[1])
}
