package payments

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dokaw/task-dash-gleam/internal/domain"
	"github.com/dokaw/task-dash-gleam/internal/errval"
	"github.com/dokaw/task-dash-gleam/internal/notify"
)

// Bridge connects the marketplace to the external checkout processor. It
// never moves task status; payment is orthogonal to the lifecycle graph.
type Bridge struct {
	storage  domain.Storage
	provider domain.CheckoutProvider
	emitter  *notify.Emitter
	currency string
}

func NewBridge(storage domain.Storage, provider domain.CheckoutProvider, emitter *notify.Emitter, currency string) *Bridge {
	return &Bridge{
		storage:  storage,
		provider: provider,
		emitter:  emitter,
		currency: currency,
	}
}

// Create opens a checkout session for the accepted tasker of the actor's
// task and records a pending payment row holding the session id. amountCents
// is in minor currency units. Returns the processor redirect URL.
func (b *Bridge) Create(ctx context.Context, actorID, taskID string, amountCents int64) (string, error) {
	if actorID == "" {
		return "", errval.ErrPermissionDenied
	}

	task, err := b.storage.GetTaskByID(ctx, taskID)
	if err != nil {
		return "", err
	}

	if task.UserID != actorID {
		return "", errval.ErrPermissionDenied
	}
	if task.Status == domain.Open || task.Status == domain.Cancelled {
		return "", errval.ErrInvalidTransition
	}

	accepted, err := b.storage.GetAcceptedProposal(ctx, taskID)
	if err != nil {
		if errors.Is(err, errval.ErrNotFound) {
			return "", errval.ErrInvalidTransition
		}

		return "", err
	}

	session, err := b.provider.CreateSession(ctx, domain.CreateSessionParams{
		TaskID:      taskID,
		TaskTitle:   task.Title,
		ClientID:    actorID,
		TaskerID:    accepted.TaskerID,
		AmountCents: amountCents,
		Currency:    b.currency,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while creating checkout session", "error", err, "task_id", taskID)
		return "", errval.ErrExternalService
	}

	_, err = b.storage.InsertPayment(ctx, &domain.Payment{
		TaskID:          taskID,
		ClientID:        actorID,
		TaskerID:        accepted.TaskerID,
		Amount:          amountCents,
		Currency:        b.currency,
		StripeSessionID: session.ID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while calling storage.InsertPayment", "error", err)
		return "", errval.ErrInternal
	}

	slog.Info("Checkout session created", "task_id", taskID, "session_id", session.ID, "amount", amountCents)
	return session.URL, nil
}

// Verify is the webhook entry point and is idempotent: the conditional
// pending->paid update is the guard, and only the call that wins it emits
// the payment_received notification. Re-invocation with an already paid
// session is a no-op.
func (b *Bridge) Verify(ctx context.Context, sessionID string) (domain.PaymentStatus, error) {
	session, err := b.provider.GetSession(ctx, sessionID)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while retrieving checkout session", "error", err, "session_id", sessionID)
		return "", errval.ErrExternalService
	}

	if !session.Paid {
		return domain.PaymentPending, nil
	}

	updated, err := b.storage.MarkPaymentPaid(ctx, sessionID)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while calling storage.MarkPaymentPaid", "error", err)
		return "", errval.ErrInternal
	}

	if !updated {
		// Either an earlier delivery already flipped the row, or no payment
		// was ever recorded for this session. Only the former is a success.
		payment, err := b.storage.GetPaymentBySessionID(ctx, sessionID)
		if err != nil {
			return "", err
		}

		return payment.Status, nil
	}

	payment, err := b.storage.GetPaymentBySessionID(ctx, sessionID)
	if err != nil {
		return "", err
	}

	task, err := b.storage.GetTaskByID(ctx, payment.TaskID)
	if err != nil {
		return "", err
	}

	err = b.emitter.PaymentReceived(ctx, payment.TaskerID, payment.TaskID, task.Title)
	if err != nil {
		slog.ErrorContext(ctx, "error occurred while emitting payment notification", "error", err, "session_id", sessionID)
		// The payment is already marked paid; the notification row failing is
		// surfaced but does not undo the payment.
		return domain.PaymentPaid, err
	}

	slog.Info("Payment verified", "session_id", sessionID, "task_id", payment.TaskID)
	return domain.PaymentPaid, nil
}
