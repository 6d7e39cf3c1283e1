package gateway

import (
	"context"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/paypal"
)

// PayPalAdapter maps Gateway calls onto the PayPal payments and billing APIs.
type PayPalAdapter struct {
	client *paypal.Client
}

func NewPayPalAdapter(client *paypal.Client) *PayPalAdapter {
	return &PayPalAdapter{client: client}
}

func (a *PayPalAdapter) CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return a.client.CreatePayment(ctx, data)
}

func (a *PayPalAdapter) CapturePaymentIntent(ctx context.Context, paymentID string) (*payment.Response, error) {
	return a.client.CapturePayment(ctx, paymentID)
}

// ExecutePaymentIntent completes a payment after payer approval. PayPal only.
func (a *PayPalAdapter) ExecutePaymentIntent(ctx context.Context, paymentID, payerID string) (*payment.Response, error) {
	return a.client.ExecutePayment(ctx, paymentID, payerID)
}

func (a *PayPalAdapter) RefundPayment(ctx context.Context, paymentID string, data payment.Fields) (*payment.Response, error) {
	return a.client.RefundPayment(ctx, paymentID, data)
}

func (a *PayPalAdapter) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return a.client.CreateSubscription(ctx, data)
}

func (a *PayPalAdapter) CancelSubscription(ctx context.Context, subscriptionID string) (*payment.Response, error) {
	return a.client.CancelSubscription(ctx, subscriptionID, "")
}

func (a *PayPalAdapter) Client() *paypal.Client { return a.client }
