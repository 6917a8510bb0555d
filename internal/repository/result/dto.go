package result

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// recordRow is the JSON representation of a job record in the KV store.
type recordRow struct {
	ID          string         `json:"id"`
	Status      string         `json:"status"`
	Reason      string         `json:"reason,omitempty"`
	Candidates  []candidateRow `json:"candidates,omitempty"`
	CompletedAt int64          `json:"completed_at,omitempty"`
	UpdatedAt   int64          `json:"updated_at"`
}

type candidateRow struct {
	Rank     int     `json:"rank"`
	Filename string  `json:"filename"`
	Score    float64 `json:"score"`
	Handle   string  `json:"handle,omitempty"`
}

func marshalRecord(rec job.Record) ([]byte, error) {
	row := recordRow{
		ID:        rec.ID,
		Status:    string(rec.Status),
		Reason:    rec.Reason,
		UpdatedAt: rec.UpdatedAt.UnixMilli(),
	}
	if rec.Status == job.StatusComplete {
		row.CompletedAt = rec.Result.CompletedAt().UnixMilli()
		for _, c := range rec.Result.Candidates() {
			row.Candidates = append(row.Candidates, candidateRow{
				Rank: c.Rank(), Filename: c.Filename(), Score: c.Score(), Handle: c.Handle(),
			})
		}
	}
	data, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

func unmarshalRecord(data []byte) (job.Record, error) {
	var row recordRow
	if err := json.Unmarshal(data, &row); err != nil {
		return job.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}

	rec := job.Record{
		ID:        row.ID,
		Status:    job.Status(row.Status),
		Reason:    row.Reason,
		UpdatedAt: time.UnixMilli(row.UpdatedAt),
	}
	if rec.Status == job.StatusComplete {
		cands := make([]job.ScoredCandidate, len(row.Candidates))
		for i, c := range row.Candidates {
			cands[i] = job.NewScoredCandidate(c.Rank, c.Filename, c.Score, c.Handle)
		}
		rec.Result = job.NewResult(row.ID, cands, time.UnixMilli(row.CompletedAt))
	}
	return rec, nil
}
