package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
	"github.com/dokaw/task-dash-gleam/internal/testutil"
)

func Test_emit(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	queue := testutil.NewQueue()
	emitter := NewEmitter(store, queue, "notifications_test")

	require.NoError(t, emitter.PaymentReceived(ctx, "tasker-1", "task-1", "Paint the fence"))

	t.Run("it should persist the notification row", func(t *testing.T) {
		notifications, err := store.ListNotificationsByUser(ctx, "tasker-1")
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		assert.Equal(t, domain.NotificationPaymentReceived, notifications[0].Type)
		assert.False(t, notifications[0].Read)
	})

	t.Run("it should push the same notification onto the queue", func(t *testing.T) {
		published := queue.Published("notifications_test")
		require.Len(t, published, 1)

		pushed := domain.Notification{}
		require.NoError(t, json.Unmarshal([]byte(published[0]), &pushed))
		assert.Equal(t, "tasker-1", pushed.UserID)
		assert.Equal(t, "task-1", pushed.TaskID)
		assert.NotEmpty(t, pushed.ID)
	})
}

func Test_mark_read(t *testing.T) {
	ctx := context.Background()
	store := testutil.NewStore()
	emitter := NewEmitter(store, testutil.NewQueue(), "notifications_test")

	require.NoError(t, emitter.PaymentReceived(ctx, "tasker-1", "task-1", "Paint the fence"))
	notifications, err := store.ListNotificationsByUser(ctx, "tasker-1")
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	t.Run("it should refuse an empty actor", func(t *testing.T) {
		err := emitter.MarkRead(ctx, "", notifications[0].ID)
		assert.True(t, errors.Is(err, errval.ErrPermissionDenied))
	})

	t.Run("it should hide other users' notifications", func(t *testing.T) {
		err := emitter.MarkRead(ctx, "someone-else", notifications[0].ID)
		assert.True(t, errors.Is(err, errval.ErrNotFound))
	})

	t.Run("it should flip the read flag for the recipient", func(t *testing.T) {
		require.NoError(t, emitter.MarkRead(ctx, "tasker-1", notifications[0].ID))

		refreshed, err := store.ListNotificationsByUser(ctx, "tasker-1")
		require.NoError(t, err)
		require.Len(t, refreshed, 1)
		assert.True(t, refreshed[0].Read)
	})
}
