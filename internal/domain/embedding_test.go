package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

func TestInstructionEmbedder_PrependsInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}}}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	result, err := emb.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, "search_document: hello world", inner.got)
	assert.Len(t, result.Embedding, 3)
}

func TestInstructionEmbedder_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &stubEmbedder{err: innerErr}
	emb := NewInstructionEmbedder(inner, "search_document: ")

	_, err := emb.Embed(context.Background(), "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, innerErr)
}

func TestInstructionEmbedder_EmptyInstruction(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.5}}}
	emb := NewInstructionEmbedder(inner, "")

	_, err := emb.Embed(context.Background(), "test")
	require.NoError(t, err)
	assert.Equal(t, "test", inner.got)
}

// --- BatchEmbed tests ---

type stubBatchEmbedder struct {
	stubEmbedder
	batchResult BatchEmbeddingResult
	batchErr    error
	batchTexts  []string
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchTexts = texts
	return s.batchResult, s.batchErr
}

func TestBatchFallback_Success(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{
		Embedding:    []float32{0.1, 0.2},
		PromptTokens: 5,
		TotalTokens:  5,
	}}
	res, err := BatchFallback(context.Background(), inner, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, res.Embeddings, 3)
	assert.Equal(t, 15, res.TotalTokens)
	assert.Equal(t, 15, res.PromptTokens)
}

func TestBatchFallback_Error(t *testing.T) {
	innerErr := errors.New("fail")
	inner := &stubEmbedder{err: innerErr}
	_, err := BatchFallback(context.Background(), inner, []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, innerErr)
}

func TestBatchFallback_Empty(t *testing.T) {
	inner := &stubEmbedder{}
	res, err := BatchFallback(context.Background(), inner, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Embeddings)
}

func TestInstructionEmbedder_BatchEmbed_WithBatchInner(t *testing.T) {
	inner := &stubBatchEmbedder{
		batchResult: BatchEmbeddingResult{
			Embeddings:   [][]float32{{0.1}, {0.2}},
			PromptTokens: 20,
			TotalTokens:  20,
		},
	}
	emb := NewInstructionEmbedder(inner, "search: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"hello", "world"})
	require.NoError(t, err)
	require.Len(t, res.Embeddings, 2)
	// instruction is prepended to every text
	assert.Equal(t, []string{"search: hello", "search: world"}, inner.batchTexts)
}

func TestInstructionEmbedder_BatchEmbed_FallbackToSingle(t *testing.T) {
	// inner has no BatchEmbed, falls back to per-text Embed
	inner := &stubEmbedder{result: EmbeddingResult{
		Embedding:    []float32{0.5},
		PromptTokens: 3,
		TotalTokens:  3,
	}}
	emb := NewInstructionEmbedder(inner, "q: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	require.Len(t, res.Embeddings, 2)
	assert.Equal(t, 6, res.TotalTokens)
}

func TestInstructionEmbedder_BatchEmbed_Error(t *testing.T) {
	innerErr := errors.New("batch fail")
	inner := &stubBatchEmbedder{batchErr: innerErr}
	emb := NewInstructionEmbedder(inner, "x: ")

	_, err := emb.BatchEmbed(context.Background(), []string{"a"})
	require.Error(t, err)
	assert.ErrorIs(t, err, innerErr)
}

func TestBatchEmbeddingResult_Validate(t *testing.T) {
	tests := []struct {
		name    string
		res     BatchEmbeddingResult
		n       int
		wantErr bool
	}{
		{"ok", BatchEmbeddingResult{Embeddings: [][]float32{{1, 0}, {0, 1}}}, 2, false},
		{"count mismatch", BatchEmbeddingResult{Embeddings: [][]float32{{1, 0}}}, 2, true},
		{"empty vector", BatchEmbeddingResult{Embeddings: [][]float32{{1, 0}, {}}}, 2, true},
		{"dim mismatch", BatchEmbeddingResult{Embeddings: [][]float32{{1, 0}, {1, 0, 0}}}, 2, true},
		{"nothing expected", BatchEmbeddingResult{}, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.res.Validate(tc.n)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrEmbeddingProviderError)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAsBatch(t *testing.T) {
	native := &stubBatchEmbedder{}
	assert.Same(t, native, AsBatch(native), "native batch embedder must be returned as is")

	single := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}}}
	res, err := AsBatch(single).BatchEmbed(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, res.Embeddings, 2)
}

func TestEmbeddingUsage(t *testing.T) {
	ctx, usage := NewContextWithUsage(context.Background())
	UsageFromContext(ctx).AddTokens(7)
	UsageFromContext(ctx).AddTokens(3)
	assert.Equal(t, 10, usage.TotalTokens())
	assert.True(t, usage.Used())

	// nil collector is a no-op
	UsageFromContext(context.Background()).AddTokens(5)
	assert.Zero(t, UsageFromContext(context.Background()).TotalTokens(), "nil usage must report zero tokens")
}

func TestErrorTypes(t *testing.T) {
	docErr := NewDocumentError("cv.pdf", ErrExtraction)
	assert.ErrorIs(t, docErr, ErrExtraction)
	var de *DocumentError
	require.ErrorAs(t, docErr, &de)
	assert.Equal(t, "cv.pdf", de.Filename)

	jobErr := NewJobError("embedding service unavailable", ErrEmbeddingProviderError)
	assert.ErrorIs(t, jobErr, ErrEmbeddingProviderError)
	var je *JobError
	require.ErrorAs(t, jobErr, &je)
	assert.Equal(t, "embedding service unavailable", je.Reason)
	assert.EqualError(t, NewJobError("plain", nil), "plain", "JobError without cause must render the reason only")
}
