package stripe

import (
	"encoding/json"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	stripego "github.com/stripe/stripe-go/v82"
)

// fieldReader copies caller fields onto SDK params, remembering the first
// type mismatch so mappers can stay linear.
type fieldReader struct {
	f   payment.Fields
	err error
}

func (r *fieldReader) optString(key string) *string {
	if !r.f.Has(key) {
		return nil
	}
	return stripego.String(r.f.String(key))
}

func (r *fieldReader) optInt64(key string) *int64 {
	if !r.f.Has(key) {
		return nil
	}
	n, ok := r.f.Int64(key)
	if !ok {
		r.fail(key, "must be an integer within range")
		return nil
	}
	return stripego.Int64(n)
}

func (r *fieldReader) optBool(key string) *bool {
	if !r.f.Has(key) {
		return nil
	}
	b, ok := r.f.Bool(key)
	if !ok {
		r.fail(key, "must be a boolean")
		return nil
	}
	return stripego.Bool(b)
}

func (r *fieldReader) optStrings(key string) []*string {
	raw := r.f.Slice(key)
	if raw == nil {
		return nil
	}
	out := make([]*string, 0, len(raw))
	for _, v := range raw {
		out = append(out, stripego.String(fmt.Sprint(v)))
	}
	return out
}

func (r *fieldReader) metadata(params *stripego.Params) {
	for k, v := range r.f.StringMap("metadata") {
		params.AddMetadata(k, v)
	}
}

func (r *fieldReader) fail(field, msg string) {
	if r.err == nil {
		r.err = domainErrors.NewValidationError(field, msg)
	}
}

func paymentIntentParams(data payment.Fields) (*stripego.PaymentIntentParams, error) {
	if !data.Has("amount") {
		return nil, domainErrors.NewValidationError("amount", "missing required field")
	}
	if amount, ok := data.Int64("amount"); !ok || amount <= 0 {
		return nil, domainErrors.NewValidationError("amount", "amount must be a positive integer in minor units")
	}
	if data.String("currency") == "" {
		return nil, domainErrors.NewValidationError("currency", "missing required field")
	}

	r := &fieldReader{f: data}
	params := &stripego.PaymentIntentParams{
		Amount:              r.optInt64("amount"),
		Currency:            r.optString("currency"),
		Customer:            r.optString("customer"),
		Description:         r.optString("description"),
		PaymentMethod:       r.optString("payment_method"),
		PaymentMethodTypes:  r.optStrings("payment_method_types"),
		ReceiptEmail:        r.optString("receipt_email"),
		CaptureMethod:       r.optString("capture_method"),
		ConfirmationMethod:  r.optString("confirmation_method"),
		Confirm:             r.optBool("confirm"),
		ReturnURL:           r.optString("return_url"),
		SetupFutureUsage:    r.optString("setup_future_usage"),
		StatementDescriptor: r.optString("statement_descriptor"),
	}
	if apm := data.Map("automatic_payment_methods"); apm != nil {
		ar := &fieldReader{f: apm}
		params.AutomaticPaymentMethods = &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: ar.optBool("enabled"),
		}
		if ar.err != nil {
			return nil, ar.err
		}
	}
	r.metadata(&params.Params)
	return params, r.err
}

func refundParams(paymentIntentID string, data payment.Fields) (*stripego.RefundParams, error) {
	r := &fieldReader{f: data}
	params := &stripego.RefundParams{
		PaymentIntent: stripego.String(paymentIntentID),
		Amount:        r.optInt64("amount"),
		Reason:        r.optString("reason"),
	}
	r.metadata(&params.Params)
	return params, r.err
}

func subscriptionParams(data payment.Fields) (*stripego.SubscriptionParams, error) {
	r := &fieldReader{f: data}
	params := &stripego.SubscriptionParams{
		Customer:             r.optString("customer"),
		DefaultPaymentMethod: r.optString("default_payment_method"),
		Description:          r.optString("description"),
		TrialPeriodDays:      r.optInt64("trial_period_days"),
		CancelAtPeriodEnd:    r.optBool("cancel_at_period_end"),
		PaymentBehavior:      r.optString("payment_behavior"),
		CollectionMethod:     r.optString("collection_method"),
		ProrationBehavior:    r.optString("proration_behavior"),
		DaysUntilDue:         r.optInt64("days_until_due"),
	}
	for i, v := range data.Slice("items") {
		item := payment.AsFields(v)
		if item == nil {
			return nil, domainErrors.NewValidationError(fmt.Sprintf("items[%d]", i), "item must be an object")
		}
		ir := &fieldReader{f: item}
		p := &stripego.SubscriptionItemsParams{
			ID:       ir.optString("id"),
			Price:    ir.optString("price"),
			Quantity: ir.optInt64("quantity"),
			Deleted:  ir.optBool("deleted"),
		}
		if ir.err != nil {
			return nil, ir.err
		}
		params.Items = append(params.Items, p)
	}
	r.metadata(&params.Params)
	return params, r.err
}

// response prefers the raw HTTP reply recorded by the SDK and falls back to
// re-encoding the object (fakes, cached objects).
func response(last *stripego.APIResponse, obj any) (*payment.Response, error) {
	if last != nil && len(last.RawJSON) > 0 {
		return payment.NewResponse(last.StatusCode, last.RawJSON), nil
	}
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode stripe object: %w", err)
	}
	return payment.NewResponse(200, raw), nil
}

type errorBody struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// wrapError maps SDK failures onto the domain taxonomy: Stripe API errors
// become APIError, anything else a TransportError.
func wrapError(op string, err error) error {
	var se *stripego.Error
	if errors.As(err, &se) {
		body, _ := json.Marshal(errorBody{
			Type:    string(se.Type),
			Code:    string(se.Code),
			Message: se.Msg,
		})
		return domainErrors.NewAPIError(providerName, se.HTTPStatusCode, body)
	}
	return domainErrors.NewTransportError(providerName, op, err)
}
