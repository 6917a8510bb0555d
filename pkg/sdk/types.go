package ats

import "strconv"

// File is one uploaded document. The extension of Name selects the
// format: .pdf or .txt.
type File struct {
	Name string
	Data []byte
}

// Request describes one ranking job.
type Request struct {
	// JobID is optional; a random ID is generated when empty.
	JobID          string
	JobDescription File
	CVs            []File
	// TopN caps the number of matches. Zero means the client default.
	TopN int
	// OnProgress, when set, receives the percentage of CVs processed.
	// It runs on the ranking goroutine and should return quickly.
	OnProgress func(percent int)
}

// Match is one ranked CV.
type Match struct {
	Rank     int
	Filename string
	Score    float64
}

// FormattedScore renders the score with four decimals.
func (m Match) FormattedScore() string {
	return strconv.FormatFloat(m.Score, 'f', 4, 64)
}

// Result is the outcome of a completed job, best match first.
type Result struct {
	JobID   string
	Matches []Match
	// Skipped lists CVs rejected before ranking for an unsupported format.
	Skipped []string
}
