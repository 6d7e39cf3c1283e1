package stripe

import (
	"context"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	stripego "github.com/stripe/stripe-go/v82"
)

type SubscriptionProvider struct {
	api API
}

func NewSubscriptionProvider(api API) *SubscriptionProvider {
	return &SubscriptionProvider{api: api}
}

func (p *SubscriptionProvider) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	params, err := subscriptionParams(data)
	if err != nil {
		return nil, err
	}
	sub, err := p.api.CreateSubscription(ctx, params)
	if err != nil {
		return nil, wrapError("create subscription", err)
	}
	return response(sub.LastResponse, sub)
}

func (p *SubscriptionProvider) UpdateSubscription(ctx context.Context, id string, data payment.Fields) (*payment.Response, error) {
	if err := requireID("subscription_id", id); err != nil {
		return nil, err
	}
	params, err := subscriptionParams(data)
	if err != nil {
		return nil, err
	}
	sub, err := p.api.UpdateSubscription(ctx, id, params)
	if err != nil {
		return nil, wrapError("update subscription", err)
	}
	return response(sub.LastResponse, sub)
}

func (p *SubscriptionProvider) CancelSubscription(ctx context.Context, id string) (*payment.Response, error) {
	if err := requireID("subscription_id", id); err != nil {
		return nil, err
	}
	sub, err := p.api.CancelSubscription(ctx, id, &stripego.SubscriptionCancelParams{})
	if err != nil {
		return nil, wrapError("cancel subscription", err)
	}
	return response(sub.LastResponse, sub)
}
