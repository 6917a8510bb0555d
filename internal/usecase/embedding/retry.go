package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/metrics"
)

// RetryPolicy bounds retries of a failed embedding call.
// MaxAttempts counts the first call; values below 2 disable retries.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// RetryingEmbedder retries transient provider failures with exponential backoff.
// Quota exhaustion and cancellation are never retried.
type RetryingEmbedder struct {
	inner    domain.BatchEmbedder
	provider string
	policy   RetryPolicy
	logger   *zap.Logger
}

// NewRetryingEmbedder wraps inner with policy.
func NewRetryingEmbedder(inner domain.BatchEmbedder, provider string, policy RetryPolicy, logger *zap.Logger) *RetryingEmbedder {
	return &RetryingEmbedder{inner: inner, provider: provider, policy: policy, logger: logger}
}

// BatchEmbed calls inner until it succeeds, fails permanently or attempts run out.
func (r *RetryingEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	var (
		res     domain.BatchEmbeddingResult
		attempt int
	)

	op := func() error {
		attempt++
		var err error
		res, err = r.inner.BatchEmbed(ctx, texts)
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		metrics.EmbeddingRetriesTotal.WithLabelValues(r.provider).Inc()
		r.logger.Warn("Embedding call failed, retrying",
			zap.String("provider", r.provider),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, r.backOff(ctx), notify); err != nil {
		return domain.BatchEmbeddingResult{}, fmt.Errorf("embed after %d attempt(s): %w", attempt, err)
	}
	return res, nil
}

// Embed vectorizes one text with the same retry policy.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := r.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	if len(res.Embeddings) != 1 {
		return domain.EmbeddingResult{}, fmt.Errorf("expected 1 embedding, got %d: %w",
			len(res.Embeddings), domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// HealthCheck delegates to inner when it supports health checks.
func (r *RetryingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // pass-through decorator
	}
	return nil
}

func (r *RetryingEmbedder) backOff(ctx context.Context) backoff.BackOff {
	if r.policy.MaxAttempts < 2 {
		return backoff.WithContext(&backoff.StopBackOff{}, ctx)
	}
	exp := backoff.NewExponentialBackOff()
	if r.policy.InitialInterval > 0 {
		exp.InitialInterval = r.policy.InitialInterval
	}
	if r.policy.MaxInterval > 0 {
		exp.MaxInterval = r.policy.MaxInterval
	}
	exp.MaxElapsedTime = 0
	exp.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.policy.MaxAttempts-1)), ctx)
}

// Retryable reports whether err is a transient provider failure.
func Retryable(err error) bool {
	if errors.Is(err, domain.ErrEmbeddingQuotaExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, domain.ErrRateLimited) || errors.Is(err, domain.ErrEmbeddingProviderError)
}
