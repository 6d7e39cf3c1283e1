package paypal

import (
	"context"
	"net/http"
	"net/url"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
)

type subscriptionPayload struct {
	PlanID             any                `json:"plan_id"`
	Subscriber         subscriber         `json:"subscriber"`
	ApplicationContext applicationContext `json:"application_context"`
	StartTime          any                `json:"start_time,omitempty"`
	ShippingAddress    any                `json:"shipping_address,omitempty"`
}

type subscriber struct {
	Name         subscriberName `json:"name"`
	EmailAddress any            `json:"email_address"`
}

type subscriberName struct {
	GivenName string `json:"given_name"`
	Surname   string `json:"surname"`
}

type applicationContext struct {
	ReturnURL          any           `json:"return_url"`
	CancelURL          any           `json:"cancel_url"`
	BrandName          string        `json:"brand_name"`
	Locale             string        `json:"locale"`
	ShippingPreference string        `json:"shipping_preference"`
	UserAction         string        `json:"user_action"`
	PaymentMethod      paymentMethod `json:"payment_method"`
}

type paymentMethod struct {
	PayerSelected  string `json:"payer_selected"`
	PayeePreferred string `json:"payee_preferred"`
}

// SubscriptionProvider covers the v1 billing subscriptions API.
type SubscriptionProvider struct {
	req requester
}

func NewSubscriptionProvider(req requester) *SubscriptionProvider {
	return &SubscriptionProvider{req: req}
}

func (p *SubscriptionProvider) Create(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	payload, err := buildSubscription(data)
	if err != nil {
		return nil, err
	}
	return p.req.call(ctx, http.MethodPost, "/v1/billing/subscriptions", payload)
}

// Update patches a subscription; data is sent unchanged.
func (p *SubscriptionProvider) Update(ctx context.Context, subscriptionID string, data payment.Fields) (*payment.Response, error) {
	if err := requireID("subscription_id", subscriptionID); err != nil {
		return nil, err
	}
	if data == nil {
		data = payment.Fields{}
	}
	return p.req.call(ctx, http.MethodPatch, "/v1/billing/subscriptions/"+url.PathEscape(subscriptionID), data)
}

func (p *SubscriptionProvider) Cancel(ctx context.Context, subscriptionID, reason string) (*payment.Response, error) {
	if err := requireID("subscription_id", subscriptionID); err != nil {
		return nil, err
	}
	return p.req.call(ctx, http.MethodPost, "/v1/billing/subscriptions/"+url.PathEscape(subscriptionID)+"/cancel",
		map[string]string{"reason": reason})
}

func buildSubscription(data payment.Fields) (*subscriptionPayload, error) {
	for _, field := range []string{"plan_id", "subscriber", "application_context"} {
		if !data.Has(field) {
			return nil, domainErrors.NewValidationError(field, "missing required field")
		}
	}

	sub := data.Map("subscriber")
	if sub == nil || !sub.Has("name") || !sub.Has("email_address") {
		return nil, domainErrors.NewValidationError("subscriber", "subscriber must have name and email_address")
	}
	appCtx := data.Map("application_context")
	if appCtx == nil || !appCtx.Has("return_url") || !appCtx.Has("cancel_url") {
		return nil, domainErrors.NewValidationError("application_context", "application context must have return_url and cancel_url")
	}

	name := sub.Map("name")
	method := appCtx.Map("payment_method")

	payload := &subscriptionPayload{
		PlanID: data["plan_id"],
		Subscriber: subscriber{
			Name: subscriberName{
				GivenName: name.String("given_name"),
				Surname:   name.String("surname"),
			},
			EmailAddress: sub["email_address"],
		},
		ApplicationContext: applicationContext{
			ReturnURL:          appCtx["return_url"],
			CancelURL:          appCtx["cancel_url"],
			BrandName:          appCtx.StringOr("brand_name", ""),
			Locale:             appCtx.StringOr("locale", "en-US"),
			ShippingPreference: appCtx.StringOr("shipping_preference", "NO_SHIPPING"),
			UserAction:         appCtx.StringOr("user_action", "SUBSCRIBE_NOW"),
			PaymentMethod: paymentMethod{
				PayerSelected:  method.StringOr("payer_selected", "PAYPAL"),
				PayeePreferred: method.StringOr("payee_preferred", "IMMEDIATE_PAYMENT_REQUIRED"),
			},
		},
	}
	if v, ok := data.Lookup("start_time"); ok {
		payload.StartTime = v
	}
	if v, ok := data.Lookup("shipping_address"); ok {
		payload.ShippingAddress = v
	}
	return payload, nil
}
