package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals an unknown job.
	ErrNotFound = errors.New("not found")
	// ErrNotReady signals a known job whose result is not produced yet.
	ErrNotReady = errors.New("not ready")
	// ErrJobFailed signals a job that terminated without a result.
	ErrJobFailed = errors.New("job failed")
	// ErrDocumentNotFound signals a missing stored document.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrCapacityExceeded signals that no more jobs can be tracked right now.
	ErrCapacityExceeded = errors.New("job capacity exceeded")

	// ErrInvalidJob signals a job request that breaks job invariants.
	ErrInvalidJob = errors.New("invalid job")
	// ErrUnsupportedFormat signals a document format other than PDF or plain text.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrExtraction signals a structurally corrupt document.
	ErrExtraction = errors.New("text extraction failed")
	// ErrEmptyReference signals a job description that normalizes to nothing.
	ErrEmptyReference = errors.New("empty or invalid job description")
	// ErrNoValidCandidates signals that every candidate failed extraction.
	ErrNoValidCandidates = errors.New("no valid CV texts extracted")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRankingInvariant signals a vector/candidate mismatch inside the pipeline.
	ErrRankingInvariant = errors.New("ranking invariant violated")
)

// DocumentError is a per-candidate failure. It drops one document, never the job.
type DocumentError struct {
	Filename string
	Err      error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %q: %s", e.Filename, e.Err.Error())
}

func (e *DocumentError) Unwrap() error { return e.Err }

// NewDocumentError wraps err with the filename of the failing document.
func NewDocumentError(filename string, err error) error {
	return &DocumentError{Filename: filename, Err: err}
}

// JobError is a terminal job failure carrying the user-visible reason.
type JobError struct {
	Reason string
	Err    error
}

func (e *JobError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *JobError) Unwrap() error { return e.Err }

// NewJobError creates a terminal job error.
func NewJobError(reason string, err error) error {
	return &JobError{Reason: reason, Err: err}
}
