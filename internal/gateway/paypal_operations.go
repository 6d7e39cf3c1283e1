package gateway

import (
	"context"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
)

// PayPalOperations exposes PayPal calls that have no place on Gateway:
// payment execution and the disputes API. They share the provider's
// circuit breaker, spans and metrics.
type PayPalOperations struct {
	adapter *PayPalAdapter
	invoke  invoker
}

func (o *PayPalOperations) ExecutePaymentIntent(ctx context.Context, paymentID, payerID string) (*payment.Response, error) {
	return o.invoke(ctx, payment.OpExecutePaymentIntent, func(ctx context.Context) (*payment.Response, error) {
		return o.adapter.ExecutePaymentIntent(ctx, paymentID, payerID)
	})
}

func (o *PayPalOperations) ListDisputes(ctx context.Context) (*payment.Response, error) {
	return o.invoke(ctx, payment.OpListDisputes, func(ctx context.Context) (*payment.Response, error) {
		return o.adapter.Client().ListDisputes(ctx)
	})
}

func (o *PayPalOperations) GetDispute(ctx context.Context, disputeID string) (*payment.Response, error) {
	return o.invoke(ctx, payment.OpGetDispute, func(ctx context.Context) (*payment.Response, error) {
		return o.adapter.Client().GetDispute(ctx, disputeID)
	})
}

func (o *PayPalOperations) AcceptClaim(ctx context.Context, disputeID string) (*payment.Response, error) {
	return o.invoke(ctx, payment.OpAcceptClaim, func(ctx context.Context) (*payment.Response, error) {
		return o.adapter.Client().AcceptClaim(ctx, disputeID)
	})
}

func (o *PayPalOperations) RespondToDispute(ctx context.Context, disputeID string, evidence payment.Fields) (*payment.Response, error) {
	return o.invoke(ctx, payment.OpRespondToDispute, func(ctx context.Context) (*payment.Response, error) {
		return o.adapter.Client().RespondToDispute(ctx, disputeID, evidence)
	})
}
