package progress

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// MemoryBroker is an in-process Broker.
type MemoryBroker struct {
	mu     sync.Mutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	logger *zap.Logger
}

type subscriber struct {
	ch     chan job.Event
	closed bool
}

// NewMemoryBroker creates a broker with the given per-subscriber buffer.
func NewMemoryBroker(buffer int, logger *zap.Logger) *MemoryBroker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryBroker{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

// Publish never blocks: events for a full subscriber are dropped.
func (b *MemoryBroker) Publish(_ context.Context, ev job.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for s := range b.subs[ev.JobID] {
		select {
		case s.ch <- ev:
		default:
			b.logger.Debug("Dropping progress event for slow subscriber",
				zap.String("job_id", ev.JobID),
				zap.String("type", string(ev.Type)),
			)
		}
		if ev.Terminal() {
			b.closeLocked(ev.JobID, s)
		}
	}
	return nil
}

// Subscribe registers a subscriber until ctx is done or the job terminates.
func (b *MemoryBroker) Subscribe(ctx context.Context, jobID string) (<-chan job.Event, error) {
	s := &subscriber{ch: make(chan job.Event, b.buffer)}

	b.mu.Lock()
	if b.subs[jobID] == nil {
		b.subs[jobID] = make(map[*subscriber]struct{})
	}
	b.subs[jobID][s] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		b.closeLocked(jobID, s)
		b.mu.Unlock()
	}()
	return s.ch, nil
}

// Subscribers returns the number of live subscribers of jobID.
func (b *MemoryBroker) Subscribers(jobID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[jobID])
}

func (b *MemoryBroker) closeLocked(jobID string, s *subscriber) {
	if s.closed {
		return
	}
	s.closed = true
	close(s.ch)
	delete(b.subs[jobID], s)
	if len(b.subs[jobID]) == 0 {
		delete(b.subs, jobID)
	}
}
