// Package db defines the storage contracts shared by the repositories.
package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	PubSub
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}

// PubSub provides fire-and-forget channel messaging.
type PubSub interface {
	Publish(ctx context.Context, channel string, msg []byte) error
	// Subscribe calls fn for every message on channel until ctx is done.
	// ready runs once the subscription is active.
	Subscribe(ctx context.Context, channel string, ready func(), fn func(msg []byte)) error
}
