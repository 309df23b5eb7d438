package domain

import "context"

type CheckoutSession struct {
	ID   string
	URL  string
	Paid bool
}

type CreateSessionParams struct {
	TaskID      string
	TaskTitle   string
	ClientID    string
	TaskerID    string
	AmountCents int64
	Currency    string
}

// CheckoutProvider is the external payment processor: session creation
// returns a redirect URL, session retrieval reports the paid flag.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, params CreateSessionParams) (*CheckoutSession, error)
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}
