package ats

import (
	"errors"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidJob             = domain.ErrInvalidJob
	ErrUnsupportedFormat      = domain.ErrUnsupportedFormat
	ErrEmptyReference         = domain.ErrEmptyReference
	ErrNoValidCandidates      = domain.ErrNoValidCandidates
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrRankingInvariant       = domain.ErrRankingInvariant
)

// JobError is a failed ranking job. Reason is the stable, user-visible message.
type JobError = domain.JobError

// FailureReason returns the user-visible reason of a failed job, or "" when
// err is not a job failure.
func FailureReason(err error) string {
	var je *JobError
	if errors.As(err, &je) {
		return je.Reason
	}
	return ""
}
