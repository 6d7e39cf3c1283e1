package gateway

import (
	"context"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
)

// invoker runs one provider call through the decorators wrapping the
// selected adapter.
type invoker func(ctx context.Context, op payment.Operation, fn func(context.Context) (*payment.Response, error)) (*payment.Response, error)

func invokeDirect(ctx context.Context, _ payment.Operation, fn func(context.Context) (*payment.Response, error)) (*payment.Response, error) {
	return fn(ctx)
}

// Client is what callers hold. Every call is forwarded unchanged to the
// selected provider's Gateway.
type Client struct {
	provider payment.Provider
	gateway  Gateway
	adapter  Gateway
	invoke   invoker
}

func NewClient(provider payment.Provider, g Gateway) *Client {
	return &Client{provider: provider, gateway: g, adapter: g, invoke: invokeDirect}
}

func (c *Client) Provider() payment.Provider { return c.provider }

// Adapter returns the undecorated provider adapter.
func (c *Client) Adapter() Gateway { return c.adapter }

// PayPal returns the PayPal-only operations, wrapped like the unified calls.
// The second value is false when another provider is selected.
func (c *Client) PayPal() (*PayPalOperations, bool) {
	a, ok := c.adapter.(*PayPalAdapter)
	if !ok {
		return nil, false
	}
	return &PayPalOperations{adapter: a, invoke: c.invoke}, true
}

func (c *Client) CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return c.gateway.CreatePaymentIntent(ctx, data)
}

func (c *Client) CapturePaymentIntent(ctx context.Context, paymentID string) (*payment.Response, error) {
	return c.gateway.CapturePaymentIntent(ctx, paymentID)
}

func (c *Client) RefundPayment(ctx context.Context, paymentID string, data payment.Fields) (*payment.Response, error) {
	return c.gateway.RefundPayment(ctx, paymentID, data)
}

func (c *Client) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return c.gateway.CreateSubscription(ctx, data)
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) (*payment.Response, error) {
	return c.gateway.CancelSubscription(ctx, subscriptionID)
}
