package job

import (
	"strconv"
	"time"
)

// ScoredCandidate is one ranked entry of a job result (immutable value object).
type ScoredCandidate struct {
	rank     int
	filename string
	score    float64
	handle   string
}

// NewScoredCandidate creates a ranked entry.
func NewScoredCandidate(rank int, filename string, score float64, handle string) ScoredCandidate {
	return ScoredCandidate{rank: rank, filename: filename, score: score, handle: handle}
}

// Rank returns the 1-based dense rank.
func (c ScoredCandidate) Rank() int { return c.rank }

// Filename returns the caller-visible filename.
func (c ScoredCandidate) Filename() string { return c.filename }

// Score returns the cosine similarity in [-1, 1].
func (c ScoredCandidate) Score() float64 { return c.score }

// Handle returns the storage handle used for download.
func (c ScoredCandidate) Handle() string { return c.handle }

// FormattedScore renders the score with fixed 4-decimal precision.
func (c ScoredCandidate) FormattedScore() string {
	return strconv.FormatFloat(c.score, 'f', 4, 64)
}

// Result is the ranked, truncated candidate list of a completed job.
type Result struct {
	jobID       string
	candidates  []ScoredCandidate
	completedAt time.Time
}

// NewResult creates a job result.
func NewResult(jobID string, candidates []ScoredCandidate, completedAt time.Time) Result {
	cs := make([]ScoredCandidate, len(candidates))
	copy(cs, candidates)
	return Result{jobID: jobID, candidates: cs, completedAt: completedAt}
}

// JobID returns the owning job id.
func (r Result) JobID() string { return r.jobID }

// Candidates returns the ranked entries, best first.
func (r Result) Candidates() []ScoredCandidate {
	out := make([]ScoredCandidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Len returns the number of ranked entries.
func (r Result) Len() int { return len(r.candidates) }

// CompletedAt returns when the job completed.
func (r Result) CompletedAt() time.Time { return r.completedAt }
