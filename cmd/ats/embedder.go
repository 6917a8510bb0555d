package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/config"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/db"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
	budgetrepo "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/repository/budget"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/repository/embcache"
	geminiEmb "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/transport/gemini"
	openaiEmb "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/transport/openai"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/transport/tfidf"
	embeddinguc "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/embedding"
)

// embedder is what the job service and the health check need from the chain.
type embedder interface {
	domain.BatchEmbedder
	domain.HealthChecker
}

// buildEmbedder assembles the decorator chain:
// provider -> cache -> instrumented (budget) -> retry -> instruction.
// store may be nil: the cache is skipped and the budget is kept in memory.
func buildEmbedder(ctx context.Context, cfg config.Config, store db.KVStore, logger *zap.Logger) (embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.RegisterEmbeddingMetrics()

	vecCfg := cfg.Embedding.Vectorizer
	provName := vecCfg.Provider
	provCfg, err := cfg.Provider()
	if err != nil {
		return nil, err //nolint:wrapcheck // already names the setting
	}

	// Base provider (with transport metrics built-in)
	var base domain.Embedder
	switch provCfg.Kind {
	case config.ProviderOpenAI:
		base = openaiEmb.NewEmbedder(&openaiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			Provider:   provName,
			Logger:     logger,
		})
	case config.ProviderGemini:
		base, err = geminiEmb.NewEmbedder(ctx, &geminiEmb.Config{
			APIKey:     provCfg.APIKey,
			BaseURL:    provCfg.BaseURL,
			Model:      vecCfg.Model,
			Dimensions: vecCfg.Dimensions,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create gemini embedder: %w", err)
		}
	case config.ProviderTFIDF:
		base = tfidf.NewEmbedder(logger)
	default:
		return nil, fmt.Errorf("unknown embedding provider kind %q", provCfg.Kind)
	}

	// Cached. TF-IDF vectors depend on the whole batch, so they are never cached.
	chain := base
	ttl := time.Duration(cfg.Embedding.Cache.TTLHours) * time.Hour
	if store != nil && ttl > 0 && provCfg.Kind != config.ProviderTFIDF {
		chain = embcache.New(base, store, provName+":"+vecCfg.Model, ttl, metrics.EmbeddingCacheTotal, logger)
	}

	// Pass nil interface (not typed nil pointer!) if budget is not configured.
	var budget embeddinguc.BudgetChecker
	if b := provCfg.Budget; b.DailyTokenLimit > 0 || b.MonthlyTokenLimit > 0 {
		action := embeddinguc.BudgetActionWarn
		if b.Action == "reject" {
			action = embeddinguc.BudgetActionReject
		}
		tracker := embeddinguc.NewBudgetTracker(provName, b.DailyTokenLimit, b.MonthlyTokenLimit, action, logger)
		if store != nil {
			// Connect persistence store: loads current counters from DB.
			tracker = tracker.WithStore(ctx, budgetrepo.New(store, 24*time.Hour))
		}
		budget = tracker
	}

	// Instrumented (budget + usage logs)
	instrumented := embeddinguc.NewInstrumentedEmbedder(chain, provName, vecCfg.Model, budget, logger)

	retrying := embeddinguc.NewRetryingEmbedder(instrumented, provName, embeddinguc.RetryPolicy{
		MaxAttempts:     cfg.Embedding.Retry.MaxAttempts,
		InitialInterval: time.Duration(cfg.Embedding.Retry.InitialIntervalMS) * time.Millisecond,
		MaxInterval:     time.Duration(cfg.Embedding.Retry.MaxIntervalMS) * time.Millisecond,
	}, logger)

	// Instruction prefix (outermost: cache key includes instruction)
	if vecCfg.Instruction != "" {
		return domain.NewInstructionEmbedder(retrying, vecCfg.Instruction), nil
	}
	return retrying, nil
}
