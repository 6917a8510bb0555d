package redis

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/rueidis"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/db"
)

// Publish sends msg to every current subscriber of channel.
func (s *Store) Publish(ctx context.Context, channel string, msg []byte) error {
	cmd := s.b().Publish().Channel(channel).Message(rueidis.BinaryString(msg)).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPublish, Err: err}
	}
	return nil
}

// Subscribe blocks, calling fn for each message on channel, until ctx is done.
// ready, when not nil, runs once the server confirmed the subscription, so a
// caller may safely look up state that a later message would change.
// Cancellation of ctx is a normal return.
func (s *Store) Subscribe(ctx context.Context, channel string, ready func(), fn func(msg []byte)) error {
	c, release := s.client.Dedicate()
	defer release()
	defer c.Close()

	var once sync.Once
	wait := c.SetPubSubHooks(rueidis.PubSubHooks{
		OnMessage: func(m rueidis.PubSubMessage) {
			fn([]byte(m.Message))
		},
		OnSubscription: func(sub rueidis.PubSubSubscription) {
			if sub.Kind == "subscribe" && sub.Channel == channel && ready != nil {
				once.Do(ready)
			}
		},
	})

	if err := c.Do(ctx, s.b().Subscribe().Channel(channel).Build()).Error(); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return &db.Error{Op: db.OpSubscribe, Err: err}
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-wait:
		if err == nil {
			return nil
		}
		return &db.Error{Op: db.OpSubscribe, Err: err}
	}
}
