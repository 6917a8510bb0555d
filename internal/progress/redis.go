package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain"
	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/domain/job"
)

// pubsub is the consumer interface for channel messaging (ISP).
type pubsub interface {
	Publish(ctx context.Context, channel string, msg []byte) error
	Subscribe(ctx context.Context, channel string, ready func(), fn func(msg []byte)) error
}

// RedisBroker relays events over Redis/Valkey pub/sub, one channel per job,
// so workers and observers may live in different processes.
type RedisBroker struct {
	ps     pubsub
	buffer int
	logger *zap.Logger
}

// NewRedisBroker creates a pub/sub backed broker.
func NewRedisBroker(ps pubsub, buffer int, logger *zap.Logger) *RedisBroker {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisBroker{ps: ps, buffer: buffer, logger: logger}
}

func eventChannel(jobID string) string {
	return domain.KeyPrefix + "events:" + jobID
}

// Publish sends ev to the job channel.
func (b *RedisBroker) Publish(ctx context.Context, ev job.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.ps.Publish(ctx, eventChannel(ev.JobID), data); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe listens on the job channel in a background goroutine. It returns
// once the subscription is active, so every event published afterwards
// reaches the returned channel.
func (b *RedisBroker) Subscribe(ctx context.Context, jobID string) (<-chan job.Event, error) {
	out := make(chan job.Event, b.buffer)
	ctx, cancel := context.WithCancel(ctx)
	channel := eventChannel(jobID)

	ready := make(chan struct{})
	ended := make(chan error, 1)
	var once sync.Once
	markReady := func() { once.Do(func() { close(ready) }) }

	go func() {
		defer close(out)
		defer cancel()

		err := b.ps.Subscribe(ctx, channel, markReady, func(msg []byte) {
			var ev job.Event
			if err := json.Unmarshal(msg, &ev); err != nil {
				b.logger.Warn("Dropping malformed progress event", zap.String("job_id", jobID), zap.Error(err))
				return
			}
			select {
			case out <- ev:
			default:
				b.logger.Debug("Dropping progress event for slow subscriber", zap.String("job_id", jobID))
			}
			if ev.Terminal() {
				cancel()
			}
		})
		if err != nil {
			b.logger.Warn("Progress subscription ended", zap.String("job_id", jobID), zap.Error(err))
		}
		ended <- err
	}()

	var err error
	select {
	case <-ready:
	case err = <-ended:
	case <-ctx.Done():
	}
	select {
	case <-ready:
		// confirmed subscriptions win over a quick terminal event
		return out, nil
	default:
	}
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = errors.New("subscription ended before confirmation")
	}
	cancel()
	return nil, fmt.Errorf("subscribe to %s: %w", channel, err)
}
