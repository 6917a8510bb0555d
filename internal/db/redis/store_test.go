package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/muhammadasad149/Applicant-Tracking-System--ATS/internal/db"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	require.NoError(t, s.Ping(context.Background()))
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	require.Error(t, s.Ping(context.Background()))
}

func TestWaitForReady_ImmediatePing(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	require.NoError(t, s.WaitForReady(context.Background(), time.Second))
}

func TestWaitForReady_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(errors.New("connection refused"))).
		AnyTimes()

	s := NewStoreForTest(c)
	err := s.WaitForReady(context.Background(), 250*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	_, err := NewStore(Config{})
	require.Error(t, err)
}

// --- kv.go tests ---

func TestDel_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", "mykey")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	require.NoError(t, s.Del(context.Background(), "mykey"))
}

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisBlobString("value")))

	s := NewStoreForTest(c)
	data, err := s.Get(context.Background(), "mykey")
	require.NoError(t, err)
	assert.Equal(t, "value", string(data))
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	assert.ErrorIs(t, err, db.ErrKeyNotFound)
}

func TestSet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "mykey", "myvalue")).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	require.NoError(t, s.Set(context.Background(), "mykey", []byte("myvalue")))
}

func TestSetWithTTL_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == "mykey" && cmd[2] == "myvalue"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	s := NewStoreForTest(c)
	require.NoError(t, s.SetWithTTL(context.Background(), "mykey", []byte("myvalue"), time.Minute))
}

func TestIncrBy_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("INCRBY", "counter", "5")).
		Return(mock.Result(mock.RedisInt64(5)))

	s := NewStoreForTest(c)
	require.NoError(t, s.IncrBy(context.Background(), "counter", 5))
}

func TestExpire_WithoutNX(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "EXPIRE" && cmd[1] == "mykey"
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	require.NoError(t, s.Expire(context.Background(), "mykey", 5*time.Minute, false))
}

func TestExpire_WithNX(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "EXPIRE" || cmd[1] != "mykey" {
				return false
			}
			// Should have NX flag
			for _, arg := range cmd {
				if arg == "NX" {
					return true
				}
			}
			return false
		})).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	require.NoError(t, s.Expire(context.Background(), "mykey", 5*time.Minute, true))
}

func TestGet_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", "mykey")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	_, err := s.Get(context.Background(), "mykey")
	assert.NotErrorIs(t, err, db.ErrKeyNotFound)
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpGet, dbErr.Op)
}

func TestSetWithTTL_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.SetWithTTL(context.Background(), "mykey", []byte("v"), time.Minute)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

// --- pubsub.go tests ---

func TestPublish_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PUBLISH", "ats:events:job-1", `{"type":"progress"}`)).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	require.NoError(t, s.Publish(context.Background(), "ats:events:job-1", []byte(`{"type":"progress"}`)))
}

func TestPublish_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), gomock.Any()).
		Return(mock.ErrorResult(errors.New("broken pipe")))

	s := NewStoreForTest(c)
	err := s.Publish(context.Background(), "ch", []byte("x"))
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpPublish, dbErr.Op)
}

// expectDedicated wires a dedicated mock connection whose SUBSCRIBE reply
// triggers onSubscribe with the installed hooks.
func expectDedicated(
	ctrl *gomock.Controller,
	c *mock.Client,
	channel string,
	onSubscribe func(hooks rueidis.PubSubHooks) rueidis.RedisResult,
) chan error {
	dc := mock.NewDedicatedClient(ctrl)
	wait := make(chan error, 1)
	var hooks rueidis.PubSubHooks

	c.EXPECT().Dedicate().Return(dc, func() {})
	dc.EXPECT().
		SetPubSubHooks(gomock.Any()).
		DoAndReturn(func(h rueidis.PubSubHooks) <-chan error {
			hooks = h
			return wait
		})
	dc.EXPECT().
		Do(gomock.Any(), mock.Match("SUBSCRIBE", channel)).
		DoAndReturn(func(context.Context, rueidis.Completed) rueidis.RedisResult {
			return onSubscribe(hooks)
		})
	dc.EXPECT().Close()
	return wait
}

func TestSubscribe_DeliversMessages(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var order []string
	expectDedicated(ctrl, c, "ch", func(h rueidis.PubSubHooks) rueidis.RedisResult {
		h.OnSubscription(rueidis.PubSubSubscription{Kind: "subscribe", Channel: "ch", Count: 1})
		h.OnMessage(rueidis.PubSubMessage{Channel: "ch", Message: "first"})
		h.OnMessage(rueidis.PubSubMessage{Channel: "ch", Message: "second"})
		return mock.Result(mock.RedisString("OK"))
	})

	s := NewStoreForTest(c)
	err := s.Subscribe(ctx, "ch",
		func() { order = append(order, "ready") },
		func(msg []byte) {
			order = append(order, string(msg))
			if len(order) == 3 {
				cancel()
			}
		},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"ready", "first", "second"}, order)
}

func TestSubscribe_ReadyWaitsForConfirmation(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	readyCalls := 0
	expectDedicated(ctrl, c, "ch", func(h rueidis.PubSubHooks) rueidis.RedisResult {
		// confirmations for other channels or kinds do not count
		h.OnSubscription(rueidis.PubSubSubscription{Kind: "subscribe", Channel: "other", Count: 1})
		h.OnSubscription(rueidis.PubSubSubscription{Kind: "unsubscribe", Channel: "ch", Count: 0})
		assert.Zero(t, readyCalls, "ready ran before the channel was confirmed")
		h.OnSubscription(rueidis.PubSubSubscription{Kind: "subscribe", Channel: "ch", Count: 1})
		h.OnSubscription(rueidis.PubSubSubscription{Kind: "subscribe", Channel: "ch", Count: 1})
		cancel()
		return mock.Result(mock.RedisString("OK"))
	})

	s := NewStoreForTest(c)
	require.NoError(t, s.Subscribe(ctx, "ch", func() { readyCalls++ }, func([]byte) {}))
	assert.Equal(t, 1, readyCalls)
}

func TestSubscribe_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	expectDedicated(ctrl, c, "ch", func(rueidis.PubSubHooks) rueidis.RedisResult {
		return mock.ErrorResult(errors.New("connection reset"))
	})

	s := NewStoreForTest(c)
	err := s.Subscribe(context.Background(), "ch", nil, func([]byte) {})
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpSubscribe, dbErr.Op)
}

func TestSubscribe_Disconnect(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	var wait chan error
	wait = expectDedicated(ctrl, c, "ch", func(rueidis.PubSubHooks) rueidis.RedisResult {
		wait <- errors.New("broken pipe")
		return mock.Result(mock.RedisString("OK"))
	})

	s := NewStoreForTest(c)
	err := s.Subscribe(context.Background(), "ch", nil, func([]byte) {})
	var dbErr *db.Error
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, db.OpSubscribe, dbErr.Op)
}
