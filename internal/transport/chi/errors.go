package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
)

// ErrorCode is the machine-readable error code of an API response.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnsupportedFormat      ErrorCode = "unsupported_format"
	CodePayloadTooLarge        ErrorCode = "payload_too_large"
	CodeJobNotFound            ErrorCode = "job_not_found"
	CodeDocumentNotFound       ErrorCode = "document_not_found"
	CodeJobFailed              ErrorCode = "job_failed"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeEmbeddingQuotaExceeded ErrorCode = "embedding_quota_exceeded"
	CodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	CodeCapacityExceeded       ErrorCode = "capacity_exceeded"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrDocumentNotFound,
		domain.ErrInvalidJob,
		domain.ErrUnsupportedFormat,
		domain.ErrRateLimited,
		domain.ErrEmbeddingQuotaExceeded,
		domain.ErrEmbeddingProviderError,
		domain.ErrCapacityExceeded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// jobFailedHandler answers a failed job with 422 and its stable reason.
func jobFailedHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrJobFailed) {
		return false
	}
	reason := domain.ErrJobFailed.Error()
	var jobErr *domain.JobError
	if errors.As(err, &jobErr) && jobErr.Reason != "" {
		reason = jobErr.Reason
	}
	writeError(w, http.StatusUnprocessableEntity, CodeJobFailed, reason)
	return true
}

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		jobFailedHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeJobNotFound),
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, CodeDocumentNotFound),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusBadRequest, CodeUnsupportedFormat),
		sentinelHandler(domain.ErrInvalidJob, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrEmbeddingQuotaExceeded,
			http.StatusPaymentRequired, CodeEmbeddingQuotaExceeded),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, CodeEmbeddingProviderError),
		sentinelHandler(domain.ErrCapacityExceeded,
			http.StatusServiceUnavailable, CodeCapacityExceeded),
	}
}
