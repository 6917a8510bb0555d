package chi

import (
	"time"

	domjob "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
	healthuc "github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/usecase/health"
)

const documentsPath = "/api/v1/documents/"

// JobAccepted is the 202 body of POST /api/v1/jobs.
type JobAccepted struct {
	JobID      string   `json:"job_id"`
	Status     string   `json:"status"`
	Candidates int      `json:"candidates"`
	Skipped    []string `json:"skipped,omitempty"`
	EventsURL  string   `json:"events_url"`
	ResultsURL string   `json:"results_url"`
}

// JobPending is the 202 body of a result request for a job still in flight.
type JobPending struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// RankedCandidate is one row of a ranking.
type RankedCandidate struct {
	Rank           int     `json:"rank"`
	Filename       string  `json:"filename"`
	Score          float64 `json:"score"`
	FormattedScore string  `json:"formatted_score"`
	DownloadURL    string  `json:"download_url"`
}

// JobResultResponse is the 200 body of GET /api/v1/jobs/{jobID}/results.
type JobResultResponse struct {
	JobID       string            `json:"job_id"`
	CompletedAt time.Time         `json:"completed_at"`
	Results     []RankedCandidate `json:"results"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string                          `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

func resultToResponse(res domjob.Result) JobResultResponse {
	cands := res.Candidates()
	rows := make([]RankedCandidate, len(cands))
	for i, c := range cands {
		rows[i] = RankedCandidate{
			Rank:           c.Rank(),
			Filename:       c.Filename(),
			Score:          c.Score(),
			FormattedScore: c.FormattedScore(),
			DownloadURL:    documentsPath + c.Handle(),
		}
	}
	return JobResultResponse{
		JobID:       res.JobID(),
		CompletedAt: res.CompletedAt().UTC(),
		Results:     rows,
	}
}
