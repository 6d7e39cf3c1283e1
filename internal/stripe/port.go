package stripe

import (
	"context"

	stripego "github.com/stripe/stripe-go/v82"
)

// API is the slice of the Stripe SDK the client depends on.
type API interface {
	CreatePaymentIntent(ctx context.Context, params *stripego.PaymentIntentParams) (*stripego.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripego.PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, id string, params *stripego.PaymentIntentCaptureParams) (*stripego.PaymentIntent, error)
	CreateRefund(ctx context.Context, params *stripego.RefundParams) (*stripego.Refund, error)
	CreateSubscription(ctx context.Context, params *stripego.SubscriptionParams) (*stripego.Subscription, error)
	UpdateSubscription(ctx context.Context, id string, params *stripego.SubscriptionParams) (*stripego.Subscription, error)
	CancelSubscription(ctx context.Context, id string, params *stripego.SubscriptionCancelParams) (*stripego.Subscription, error)
	ConstructWebhookEvent(payload []byte, signatureHeader, secret string) (stripego.Event, error)
}
