package stripe

import (
	"context"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/domain/webhook"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

const providerName = "stripe"

type options struct {
	api     API
	events  EventHandler
	logger  zerolog.Logger
	metrics *observability.Metrics
}

type Option func(*options)

// WithAPI replaces the stripe-go backed SDK.
func WithAPI(api API) Option {
	return func(o *options) { o.api = api }
}

func WithEventHandler(h EventHandler) Option {
	return func(o *options) { o.events = h }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// Client bundles the Stripe payment, subscription and webhook providers.
type Client struct {
	tokens        *TokenProvider
	payments      *PaymentProvider
	subscriptions *SubscriptionProvider
	webhooks      *WebhookHandler
	webhookErr    error
	logger        zerolog.Logger
}

func NewClient(cfg config.StripeConfig, opts ...Option) (*Client, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := observability.ProviderLogger(o.logger, providerName)

	tokens, err := NewTokenProvider(cfg)
	if err != nil {
		return nil, err
	}
	if o.api == nil {
		o.api = NewSDK(tokens.AccessToken())
	}
	if o.events == nil {
		o.events = LoggingEventHandler{Logger: logger}
	}

	c := &Client{
		tokens:        tokens,
		payments:      NewPaymentProvider(o.api),
		subscriptions: NewSubscriptionProvider(o.api),
		logger:        logger,
	}
	// Webhook handling is optional; without a secret only that path fails.
	c.webhooks, c.webhookErr = NewWebhookHandler(o.api, cfg.WebhookSecret, o.events, logger, o.metrics)
	return c, nil
}

func (c *Client) AccessToken() string {
	return c.tokens.AccessToken()
}

func (c *Client) CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return c.payments.CreatePaymentIntent(ctx, data)
}

func (c *Client) CapturePaymentIntent(ctx context.Context, id string) (*payment.Response, error) {
	return c.payments.CapturePaymentIntent(ctx, id)
}

func (c *Client) RefundPayment(ctx context.Context, id string, data payment.Fields) (*payment.Response, error) {
	return c.payments.RefundPayment(ctx, id, data)
}

func (c *Client) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return c.subscriptions.CreateSubscription(ctx, data)
}

func (c *Client) UpdateSubscription(ctx context.Context, id string, data payment.Fields) (*payment.Response, error) {
	return c.subscriptions.UpdateSubscription(ctx, id, data)
}

func (c *Client) CancelSubscription(ctx context.Context, id string) (*payment.Response, error) {
	return c.subscriptions.CancelSubscription(ctx, id)
}

// WebhookHandler returns the handler, or the configuration error that
// prevented building it.
func (c *Client) WebhookHandler() (*WebhookHandler, error) {
	return c.webhooks, c.webhookErr
}

func (c *Client) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) webhook.Result {
	h, err := c.WebhookHandler()
	if err != nil {
		c.logger.Error().Err(err).Msg("Stripe webhook handler not configured")
		return webhook.Failed(msgProcessingFailed)
	}
	return h.Handle(ctx, payload, signatureHeader)
}
