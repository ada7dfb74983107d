package cardcheckout

import (
	"context"

	"github.com/stripe/stripe-go/v84"

	pkgstripe "github.com/TheBeardedParaTrooper/LiveBuyNow/pkg/stripe"
)

// SessionClient exposes the Checkout Session calls used by the card flow.
type SessionClient interface {
	Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type sessionClientWrapper struct {
	api *pkgstripe.Client
}

// NewSessionClient wraps the configured Stripe client so the service can be tested.
func NewSessionClient(api *pkgstripe.Client) SessionClient {
	if api == nil {
		return nil
	}
	return &sessionClientWrapper{api: api}
}

func (w *sessionClientWrapper) Create(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return w.api.CreateCheckoutSession(ctx, params)
}

func (w *sessionClientWrapper) Get(ctx context.Context, id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	return w.api.GetCheckoutSession(ctx, id, params)
}
