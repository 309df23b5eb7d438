package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
)

// Emitter creates notification rows and pushes them onto the realtime queue.
// The row is the source of truth; the push is a cue to re-fetch, so publish
// failures are logged and never fail the triggering operation.
type Emitter struct {
	storage   domain.Storage
	queue     domain.Queue
	queueName string
}

func NewEmitter(storage domain.Storage, queue domain.Queue, queueName string) *Emitter {
	return &Emitter{
		storage:   storage,
		queue:     queue,
		queueName: queueName,
	}
}

func (e *Emitter) Emit(ctx context.Context, notification *domain.Notification) (*domain.Notification, error) {
	created, err := e.storage.InsertNotification(ctx, notification)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while calling storage.InsertNotification", "error", err)
		return nil, errval.ErrInternal
	}

	marshalled, err := json.Marshal(created)
	if err != nil {
		slog.Error("There was an error in marshalling newly created notification", "error", err.Error())
		// The row exists; the redeliver sweep will pick it up later.
		return created, nil
	}

	err = e.queue.PublishMessage(e.queueName, string(marshalled))
	if err != nil {
		slog.Error("Error occurred while queuing marshalled notification to push queue", "error", err.Error())
		// Same: delivery is at-least-once via the sweep, not guaranteed here.
	}

	return created, nil
}

// PaymentReceived emits the tasker-facing notification for a paid task.
func (e *Emitter) PaymentReceived(ctx context.Context, taskerID, taskID, taskTitle string) error {
	_, err := e.Emit(ctx, &domain.Notification{
		UserID:  taskerID,
		TaskID:  taskID,
		Type:    domain.NotificationPaymentReceived,
		Title:   "Payment Received!",
		Message: fmt.Sprintf("You have received payment for the task %q.", taskTitle),
	})

	return err
}

func (e *Emitter) List(ctx context.Context, userID string) ([]*domain.Notification, error) {
	return e.storage.ListNotificationsByUser(ctx, userID)
}

// MarkRead flips the read flag; the store filters on recipient so a user can
// only touch their own notifications.
func (e *Emitter) MarkRead(ctx context.Context, actorID, notificationID string) error {
	if actorID == "" {
		return errval.ErrPermissionDenied
	}

	return e.storage.MarkNotificationRead(ctx, notificationID, actorID)
}
