package gateway

import (
	"context"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/stripe"
)

type StripeAdapter struct {
	client *stripe.Client
}

func NewStripeAdapter(client *stripe.Client) *StripeAdapter {
	return &StripeAdapter{client: client}
}

func (a *StripeAdapter) CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return a.client.CreatePaymentIntent(ctx, data)
}

func (a *StripeAdapter) CapturePaymentIntent(ctx context.Context, paymentID string) (*payment.Response, error) {
	return a.client.CapturePaymentIntent(ctx, paymentID)
}

func (a *StripeAdapter) RefundPayment(ctx context.Context, paymentID string, data payment.Fields) (*payment.Response, error) {
	return a.client.RefundPayment(ctx, paymentID, data)
}

func (a *StripeAdapter) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return a.client.CreateSubscription(ctx, data)
}

func (a *StripeAdapter) CancelSubscription(ctx context.Context, subscriptionID string) (*payment.Response, error) {
	return a.client.CancelSubscription(ctx, subscriptionID)
}

func (a *StripeAdapter) Client() *stripe.Client { return a.client }
