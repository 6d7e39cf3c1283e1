package stripe

import (
	"context"
	"strings"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	stripego "github.com/stripe/stripe-go/v82"
)

// PaymentProvider manages PaymentIntents and refunds.
type PaymentProvider struct {
	api API
}

func NewPaymentProvider(api API) *PaymentProvider {
	return &PaymentProvider{api: api}
}

func (p *PaymentProvider) CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	params, err := paymentIntentParams(data)
	if err != nil {
		return nil, err
	}
	pi, err := p.api.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, wrapError("create payment intent", err)
	}
	return response(pi.LastResponse, pi)
}

// CapturePaymentIntent retrieves the intent first, then captures it.
func (p *PaymentProvider) CapturePaymentIntent(ctx context.Context, id string) (*payment.Response, error) {
	if err := requireID("payment_id", id); err != nil {
		return nil, err
	}
	pi, err := p.api.RetrievePaymentIntent(ctx, id)
	if err != nil {
		return nil, wrapError("retrieve payment intent", err)
	}
	captured, err := p.api.CapturePaymentIntent(ctx, pi.ID, &stripego.PaymentIntentCaptureParams{})
	if err != nil {
		return nil, wrapError("capture payment intent", err)
	}
	return response(captured.LastResponse, captured)
}

func (p *PaymentProvider) RefundPayment(ctx context.Context, id string, data payment.Fields) (*payment.Response, error) {
	if err := requireID("payment_id", id); err != nil {
		return nil, err
	}
	params, err := refundParams(id, data)
	if err != nil {
		return nil, err
	}
	refund, err := p.api.CreateRefund(ctx, params)
	if err != nil {
		return nil, wrapError("create refund", err)
	}
	return response(refund.LastResponse, refund)
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domainErrors.NewValidationError(field, "must not be empty")
	}
	return nil
}
