package job

import (
	"fmt"
	"strings"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/document"
)

// MaxIDLength bounds caller-supplied job ids.
const MaxIDLength = 128

// Job is one ranking request (immutable value object).
type Job struct {
	id         string
	reference  document.Document
	candidates []document.Document
	topN       int
}

// New validates and creates a Job.
// id is an opaque caller-supplied token; topN >= 1; at least one candidate.
func New(id string, reference document.Document, candidates []document.Document, topN int) (Job, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, fmt.Errorf("job id is required: %w", domain.ErrInvalidJob)
	}
	if len(id) > MaxIDLength {
		return Job{}, fmt.Errorf("job id too long (max %d): %w", MaxIDLength, domain.ErrInvalidJob)
	}
	if topN < 1 {
		return Job{}, fmt.Errorf("top_n must be >= 1, got %d: %w", topN, domain.ErrInvalidJob)
	}
	if len(candidates) == 0 {
		return Job{}, fmt.Errorf("at least one candidate document is required: %w", domain.ErrInvalidJob)
	}
	if reference.Filename() == "" {
		return Job{}, fmt.Errorf("reference document is required: %w", domain.ErrInvalidJob)
	}

	cs := make([]document.Document, len(candidates))
	copy(cs, candidates)

	return Job{id: id, reference: reference, candidates: cs, topN: topN}, nil
}

// ID returns the job identifier.
func (j Job) ID() string { return j.id }

// Reference returns the job description document.
func (j Job) Reference() document.Document { return j.reference }

// Candidates returns the candidate documents in input order.
func (j Job) Candidates() []document.Document {
	out := make([]document.Document, len(j.candidates))
	copy(out, j.candidates)
	return out
}

// TopN returns the requested result size.
func (j Job) TopN() int { return j.topN }
