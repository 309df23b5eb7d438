package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	server := miniredis.RunT(t)
	client := NewClientWithAddr(context.Background(), server.Addr())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func Test_lock(t *testing.T) {
	client := newTestClient(t)

	locked, err := client.Lock("notify-lock:n1", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, locked)

	t.Run("it should not grant the same key twice", func(t *testing.T) {
		locked, err := client.Lock("notify-lock:n1", 10*time.Second)
		require.NoError(t, err)
		assert.False(t, locked)
	})

	t.Run("it should grant an unrelated key", func(t *testing.T) {
		locked, err := client.Lock("notify-lock:n2", 10*time.Second)
		require.NoError(t, err)
		assert.True(t, locked)
	})

	t.Run("it should grant again after unlock", func(t *testing.T) {
		require.NoError(t, client.Unlock("notify-lock:n1"))

		locked, err := client.Lock("notify-lock:n1", 10*time.Second)
		require.NoError(t, err)
		assert.True(t, locked)
	})
}

func Test_ping(t *testing.T) {
	client := newTestClient(t)
	assert.NoError(t, client.Ping(context.Background()))
}
