package stripe

import (
	"context"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"

	"github.com/dokaw/task-dash-gleam/internal/domain"
)

// Provider implements domain.CheckoutProvider on Stripe checkout sessions.
type Provider struct {
	successURL string
	cancelURL  string
}

func NewProvider(secretKey, successURL, cancelURL string) *Provider {
	stripe.Key = secretKey
	return &Provider{
		successURL: successURL,
		cancelURL:  cancelURL,
	}
}

func (p *Provider) CreateSession(ctx context.Context, params domain.CreateSessionParams) (*domain.CheckoutSession, error) {
	sessionParams := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(params.Currency),
					UnitAmount: stripe.Int64(params.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(params.TaskTitle),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.successURL),
		CancelURL:  stripe.String(p.cancelURL),
	}
	sessionParams.AddMetadata("task_id", params.TaskID)
	sessionParams.AddMetadata("client_id", params.ClientID)
	sessionParams.AddMetadata("tasker_id", params.TaskerID)
	sessionParams.Context = ctx

	created, err := session.New(sessionParams)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutSession{
		ID:   created.ID,
		URL:  created.URL,
		Paid: created.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}

func (p *Provider) GetSession(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	retrieved, err := session.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	return &domain.CheckoutSession{
		ID:   retrieved.ID,
		URL:  retrieved.URL,
		Paid: retrieved.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}, nil
}
