package domain

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Payment rows are written by server-side logic only: created when a client
// initiates checkout, flipped to paid by the processor webhook.
// Amount is in minor currency units (cents).
type Payment struct {
	ID              string        `json:"id"`
	TaskID          string        `json:"task_id"`
	ClientID        string        `json:"client_id"`
	TaskerID        string        `json:"tasker_id"`
	Amount          int64         `json:"amount"`
	Currency        string        `json:"currency"`
	StripeSessionID string        `json:"stripe_session_id"`
	Status          PaymentStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}
