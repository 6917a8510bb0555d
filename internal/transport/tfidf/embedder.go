// Package tfidf is a local embedding provider: it fits a TF-IDF vocabulary
// over each batch and returns L2-normalized vectors. No network, no tokens billed.
package tfidf

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
)

const (
	provider = "local"
	model    = "tfidf"
)

// Embedder vectorizes already normalized text. Vectors are only comparable
// within the batch that produced them, which is exactly how a ranking job uses them.
type Embedder struct {
	logger *zap.Logger
}

// NewEmbedder creates a TF-IDF embedder.
func NewEmbedder(logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{logger: logger}
}

// Embed vectorizes a single text against a vocabulary of its own.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res.Embeddings[0]}, nil
}

// BatchEmbed fits the vocabulary on texts and returns one vector per text.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("tfidf: %w", err)
	}
	start := time.Now()

	docs := make([][]string, len(texts))
	for i, t := range texts {
		docs[i] = strings.Fields(t)
	}
	vocab, idf := fit(docs)
	if len(vocab) == 0 {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, model, "empty_vocabulary").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("no terms in batch of %d: %w",
			len(texts), domain.ErrEmbeddingProviderError)
	}

	out := make([][]float32, len(docs))
	for i, tokens := range docs {
		out[i] = vectorize(tokens, vocab, idf)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, model).Observe(time.Since(start).Seconds())
	e.logger.Debug("TF-IDF batch embedded",
		zap.Int("texts", len(texts)),
		zap.Int("dimensions", len(vocab)),
	)
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

// HealthCheck always succeeds: the embedder has no remote dependency.
func (e *Embedder) HealthCheck(context.Context) error { return nil }

// fit builds a sorted vocabulary and smoothed IDF weights.
func fit(docs [][]string) (map[string]int, []float64) {
	df := make(map[string]int)
	for _, tokens := range docs {
		seen := make(map[string]struct{}, len(tokens))
		for _, tok := range tokens {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return vocab, idf
}

func vectorize(tokens []string, vocab map[string]int, idf []float64) []float32 {
	vec := make([]float32, len(vocab))
	if len(tokens) == 0 {
		return vec
	}

	tf := make(map[int]int, len(tokens))
	for _, tok := range tokens {
		if idx, ok := vocab[tok]; ok {
			tf[idx]++
		}
	}

	weights := make([]float64, len(vocab))
	var norm float64
	for idx, count := range tf {
		w := float64(count) / float64(len(tokens)) * idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i, w := range weights {
		vec[i] = float32(w / norm)
	}
	return vec
}
