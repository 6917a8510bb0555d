// Package progress delivers job events from workers to observers.
// Delivery is at-most-once: a slow or absent observer loses events, never blocks a job.
package progress

import (
	"context"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// DefaultBuffer is the per-subscriber event buffer.
const DefaultBuffer = 64

// Broker fans job events out to the subscribers of that job.
type Broker interface {
	// Publish delivers ev to current subscribers of ev.JobID.
	Publish(ctx context.Context, ev job.Event) error
	// Subscribe returns a channel of events for jobID once every later
	// Publish is guaranteed to reach it. The channel is closed after a
	// terminal event or when ctx is done.
	Subscribe(ctx context.Context, jobID string) (<-chan job.Event, error)
}
