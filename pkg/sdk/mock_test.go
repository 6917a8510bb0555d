package ats

import (
	"context"
	"strings"
	"sync"

	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// --- Embedder mocks ---

type mockEmbedder struct {
	fn func(ctx context.Context, text string) (EmbeddingResult, error)
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	return m.fn(ctx, text)
}

// keywordBatchEmbedder maps texts mentioning python to one axis and
// everything else to the other.
type keywordBatchEmbedder struct {
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (m *keywordBatchEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	return EmbeddingResult{Embedding: keywordVector(text)}, nil
}

func (m *keywordBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, append([]string(nil), texts...))
	m.mu.Unlock()
	if m.err != nil {
		return BatchEmbeddingResult{}, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = keywordVector(t)
	}
	return BatchEmbeddingResult{Embeddings: out, PromptTokens: len(texts), TotalTokens: len(texts)}, nil
}

func keywordVector(text string) []float32 {
	if strings.Contains(text, "python") {
		return []float32{1, 0.1}
	}
	return []float32{0.1, 1}
}

// --- rankUseCase mock ---

type mockRankUC struct {
	rankFn func(ctx context.Context, j domjob.Job, observe func(domjob.Event)) (domjob.Result, error)
}

func (m *mockRankUC) Rank(ctx context.Context, j domjob.Job, observe func(domjob.Event)) (domjob.Result, error) {
	return m.rankFn(ctx, j, observe)
}

// --- helpers ---

func testClient(rank rankUseCase) *Client {
	return &Client{
		rankSvc: rank,
		topN:    defaultTopN,
		newID:   func() string { return "generated-id" },
	}
}

func txt(name, body string) File {
	return File{Name: name, Data: []byte(body)}
}
