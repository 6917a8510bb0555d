package job

// EventType classifies progress events.
type EventType string

// Event types. Complete and Error are terminal.
const (
	EventProgress EventType = "progress"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is an ephemeral status update for the observer of a job.
type Event struct {
	JobID   string    `json:"job_id"`
	Type    EventType `json:"type"`
	Percent int       `json:"percent"`
	Message string    `json:"message,omitempty"`
}

// Progress creates a progress event.
func Progress(jobID string, percent int) Event {
	return Event{JobID: jobID, Type: EventProgress, Percent: percent}
}

// Complete creates the terminal completion event.
func Complete(jobID string) Event {
	return Event{JobID: jobID, Type: EventComplete, Percent: 100}
}

// Failure creates the terminal error event.
func Failure(jobID, reason string) Event {
	return Event{JobID: jobID, Type: EventError, Message: reason}
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

// Percent computes floor(done/total*100), clamped to [0, 100].
func Percent(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return done * 100 / total
}
