// Package gemini is an embedding provider backed by the Google GenAI API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
)

const (
	defaultModel    = "text-embedding-004"
	defaultProvider = "gemini"
	taskType        = "SEMANTIC_SIMILARITY"
)

// contentEmbedder is the slice of genai.Models the embedder calls.
type contentEmbedder interface {
	EmbedContent(
		ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig,
	) (*genai.EmbedContentResponse, error)
}

// Config holds the Gemini embedding settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Logger     *zap.Logger
}

// Embedder vectorizes text with a Gemini embedding model.
type Embedder struct {
	models     contentEmbedder
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedder for the Gemini API backend.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newEmbedder(client.Models, cfg), nil
}

func newEmbedder(models contentEmbedder, cfg *Config) *Embedder {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{models: models, model: model, dimensions: cfg.Dimensions, logger: logger}
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with one EmbedContent call.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}
	cfg := &genai.EmbedContentConfig{TaskType: taskType}
	if e.dimensions > 0 {
		dims := int32(e.dimensions)
		cfg.OutputDimensionality = &dims
	}

	start := time.Now()
	resp, err := e.models.EmbedContent(ctx, e.model, contents, cfg)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(defaultProvider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(defaultProvider, e.model, "api_error").Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embed content: %w", ctxErr)
		}
		return domain.BatchEmbeddingResult{}, classify(err)
	}

	if resp == nil || len(resp.Embeddings) != len(texts) {
		got := 0
		if resp != nil {
			got = len(resp.Embeddings)
		}
		metrics.EmbeddingRequestsTotal.WithLabelValues(defaultProvider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(defaultProvider, e.model, "count_mismatch").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("expected %d embeddings, got %d: %w",
			len(texts), got, domain.ErrEmbeddingProviderError)
	}

	out := domain.BatchEmbeddingResult{Embeddings: make([][]float32, len(texts))}
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			metrics.EmbeddingErrorsTotal.WithLabelValues(defaultProvider, e.model, "empty_response").Inc()
			return domain.BatchEmbeddingResult{}, fmt.Errorf("embedding %d is empty: %w",
				i, domain.ErrEmbeddingProviderError)
		}
		out.Embeddings[i] = emb.Values
		if emb.Statistics != nil {
			out.PromptTokens += int(emb.Statistics.TokenCount)
		}
	}
	out.TotalTokens = out.PromptTokens

	metrics.EmbeddingRequestsTotal.WithLabelValues(defaultProvider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(defaultProvider, e.model).Observe(duration.Seconds())
	if out.TotalTokens > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues(defaultProvider, e.model, "total").Add(float64(out.TotalTokens))
	}
	return out, nil
}

// HealthCheck embeds a single word.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.BatchEmbed(ctx, []string{"ping"}); err != nil {
		return fmt.Errorf("gemini health check: %w", err)
	}
	return nil
}

// classify maps a GenAI error onto the domain error set.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		wrap := domain.ErrEmbeddingProviderError
		if apiErr.Code == http.StatusTooManyRequests {
			wrap = domain.ErrRateLimited
		}
		return fmt.Errorf("gemini API error %d %s: %s: %w", apiErr.Code, apiErr.Status, apiErr.Message, wrap)
	}
	return fmt.Errorf("gemini request failed: %v: %w", err, domain.ErrEmbeddingProviderError)
}
