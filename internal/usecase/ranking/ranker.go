// Package ranking scores candidate vectors against a reference vector.
package ranking

import (
	"fmt"
	"math"
	"sort"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// Candidate is a vectorized candidate document in input order.
type Candidate struct {
	Filename string
	Handle   string
	Vector   []float32
}

// Rank scores every candidate by cosine similarity to reference, sorts by score
// descending (ties keep input order), truncates to topN and assigns dense 1-based ranks.
// It is pure: no I/O, inputs are not modified.
func Rank(reference []float32, candidates []Candidate, topN int) ([]job.ScoredCandidate, error) {
	if topN < 1 {
		return nil, fmt.Errorf("top_n must be >= 1, got %d: %w", topN, domain.ErrRankingInvariant)
	}
	if len(reference) == 0 {
		return nil, fmt.Errorf("empty reference vector: %w", domain.ErrRankingInvariant)
	}

	type scored struct {
		idx   int
		score float64
	}
	scores := make([]scored, len(candidates))
	for i, c := range candidates {
		if len(c.Vector) != len(reference) {
			return nil, fmt.Errorf("candidate %q has %d dimensions, reference has %d: %w",
				c.Filename, len(c.Vector), len(reference), domain.ErrRankingInvariant)
		}
		scores[i] = scored{idx: i, score: Cosine(reference, c.Vector)}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].score > scores[j].score
	})

	n := min(topN, len(scores))
	out := make([]job.ScoredCandidate, n)
	for i := range n {
		c := candidates[scores[i].idx]
		out[i] = job.NewScoredCandidate(i+1, c.Filename, scores[i].score, c.Handle)
	}
	return out, nil
}

// Cosine returns the cosine similarity of a and b, clamped to [-1, 1].
// A zero-norm vector scores 0. a and b must have equal length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, s))
}
