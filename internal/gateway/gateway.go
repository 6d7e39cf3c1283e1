package gateway

import (
	"context"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
)

// Gateway is the provider-neutral payment surface. Disputes, webhooks and
// other provider specific operations live on the provider clients.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error)
	CapturePaymentIntent(ctx context.Context, paymentID string) (*payment.Response, error)
	RefundPayment(ctx context.Context, paymentID string, data payment.Fields) (*payment.Response, error)
	CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*payment.Response, error)
}
