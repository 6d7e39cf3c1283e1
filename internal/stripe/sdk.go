package stripe

import (
	"context"

	stripego "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// SDK implements API on top of stripe-go with a per-instance key, so several
// clients with different keys can coexist.
type SDK struct {
	api *client.API
}

func NewSDK(secretKey string) *SDK {
	return &SDK{api: client.New(secretKey, nil)}
}

func (s *SDK) CreatePaymentIntent(ctx context.Context, params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error) {
	params.Context = ctx
	return s.api.PaymentIntents.New(params)
}

func (s *SDK) RetrievePaymentIntent(ctx context.Context, id string) (*stripego.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	return s.api.PaymentIntents.Get(id, params)
}

func (s *SDK) CapturePaymentIntent(ctx context.Context, id string, params *stripego.PaymentIntentCaptureParams) (*stripego.PaymentIntent, error) {
	params.Context = ctx
	return s.api.PaymentIntents.Capture(id, params)
}

func (s *SDK) CreateRefund(ctx context.Context, params *stripego.RefundParams) (*stripego.Refund, error) {
	params.Context = ctx
	return s.api.Refunds.New(params)
}

func (s *SDK) CreateSubscription(ctx context.Context, params *stripego.SubscriptionParams) (*stripego.Subscription, error) {
	params.Context = ctx
	return s.api.Subscriptions.New(params)
}

func (s *SDK) UpdateSubscription(ctx context.Context, id string, params *stripego.SubscriptionParams) (*stripego.Subscription, error) {
	params.Context = ctx
	return s.api.Subscriptions.Update(id, params)
}

func (s *SDK) CancelSubscription(ctx context.Context, id string, params *stripego.SubscriptionCancelParams) (*stripego.Subscription, error) {
	params.Context = ctx
	return s.api.Subscriptions.Cancel(id, params)
}

// ConstructWebhookEvent verifies the Stripe-Signature header against secret.
// Events signed for another API version are still accepted.
func (s *SDK) ConstructWebhookEvent(payload []byte, signatureHeader, secret string) (stripego.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signatureHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
