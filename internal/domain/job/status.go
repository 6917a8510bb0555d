package job

import "time"

// Status is the externally visible lifecycle of a job in the result store.
type Status string

// Job statuses.
const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Done reports whether the job reached a terminal status.
func (s Status) Done() bool { return s == StatusComplete || s == StatusFailed }

// Record is the stored view of a job: its status, the failure reason,
// and the result once complete.
type Record struct {
	ID        string
	Status    Status
	Reason    string
	Result    Result
	UpdatedAt time.Time
}
