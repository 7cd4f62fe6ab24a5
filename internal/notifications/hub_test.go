package notifications

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEventuallyTimeout = time.Second
	testPollInterval      = 10 * time.Millisecond
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg := <-c.Send:
		return string(msg)
	case <-time.After(testEventuallyTimeout):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub()

	a, err := hub.Register(context.Background(), "tutee-1", nil)
	require.NoError(t, err)
	b, err := hub.Register(context.Background(), "tutor-1", nil)
	require.NoError(t, err)

	assert.True(t, hub.IsOnline("tutee-1"))
	assert.False(t, hub.IsOnline("nobody"))

	hub.Broadcast("tutee-1", "hello")
	assert.Equal(t, "hello", receive(t, a))
	assert.Empty(t, b.Send)

	hub.BroadcastAll("all")
	assert.Equal(t, "all", receive(t, a))
	assert.Equal(t, "all", receive(t, b))
}

func TestHub_ConnectionLimit(t *testing.T) {
	hub := NewHub()
	for i := 0; i < maxConnsPerUser; i++ {
		_, err := hub.Register(context.Background(), "tutee-1", nil)
		require.NoError(t, err)
	}
	_, err := hub.Register(context.Background(), "tutee-1", nil)
	assert.ErrorIs(t, err, ErrUserConnLimit)

	_, err = hub.Register(context.Background(), "tutee-2", nil)
	assert.NoError(t, err)
}

func TestHub_UnregisterClosesQueue(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(context.Background(), "tutor-1", nil)
	require.NoError(t, err)

	hub.UnregisterClient(c)
	assert.False(t, hub.IsOnline("tutor-1"))

	_, open := <-c.Send
	assert.False(t, open)

	// A second unregister is a no-op.
	hub.UnregisterClient(c)
	hub.Broadcast("tutor-1", "ignored")
}

func TestClient_TrySendDropsWhenFull(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(context.Background(), "tutee-1", nil)
	require.NoError(t, err)

	for i := 0; i < sendBuffer+5; i++ {
		c.TrySend([]byte("x"))
	}
	assert.Len(t, c.Send, sendBuffer)
}

func TestHub_StartWiring(t *testing.T) {
	rdb := newTestRedis(t)
	hub := NewHub()
	notifier := NewNotifier(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, hub.StartWiring(ctx, notifier))

	c, err := hub.Register(context.Background(), "tutee-7", nil)
	require.NoError(t, err)

	require.NoError(t, notifier.PublishUser(ctx, "tutee-7", `{"type":"chat_message"}`))
	assert.JSONEq(t, `{"type":"chat_message"}`, receive(t, c))

	require.NoError(t, notifier.PublishBroadcast(ctx, "maintenance"))
	assert.Equal(t, "maintenance", receive(t, c))
}

func TestDispatcher_Notify(t *testing.T) {
	t.Run("direct delivery without redis", func(t *testing.T) {
		hub := NewHub()
		c, err := hub.Register(context.Background(), "tutor-1", nil)
		require.NoError(t, err)

		NewDispatcher(NewNotifier(nil), hub).Notify(context.Background(), "tutor-1",
			Event{Type: EventSessionRequested, Payload: map[string]string{"id": "s-1"}})
		assert.JSONEq(t, `{"type":"session_requested","payload":{"id":"s-1"}}`, receive(t, c))
	})

	t.Run("through redis", func(t *testing.T) {
		rdb := newTestRedis(t)
		hub := NewHub()
		notifier := NewNotifier(rdb)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, hub.StartWiring(ctx, notifier))

		c, err := hub.Register(context.Background(), "tutee-1", nil)
		require.NoError(t, err)

		NewDispatcher(notifier, hub).Notify(ctx, "tutee-1", Event{Type: EventSessionUpdated, Payload: "ok"})
		assert.JSONEq(t, `{"type":"session_updated","payload":"ok"}`, receive(t, c))
		assert.Never(t, func() bool { return len(c.Send) > 0 }, 10*testPollInterval, testPollInterval)
	})

	t.Run("nil dispatcher", func(t *testing.T) {
		var d *Dispatcher
		d.Notify(context.Background(), "x", Event{Type: "noop"})
	})
}

func TestHub_Shutdown(t *testing.T) {
	hub := NewHub()
	c, err := hub.Register(context.Background(), "tutee-1", nil)
	require.NoError(t, err)
	require.NoError(t, hub.Shutdown(context.Background()))
	assert.False(t, hub.IsOnline("tutee-1"))

	_, open := <-c.Send
	assert.False(t, open, "shutdown hands the close to the client's writer")

	// A late unregister from the read side must not close the queue twice.
	assert.NotPanics(t, func() { hub.UnregisterClient(c) })
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:tutor-3", UserChannel("tutor-3"))
}
