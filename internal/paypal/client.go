package paypal

import (
	"context"
	"net/http"
	"time"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/domain/webhook"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/httpclient"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

const (
	providerName = "paypal"

	LiveBaseURL    = "https://api.paypal.com"
	SandboxBaseURL = "https://api.sandbox.paypal.com"
)

// BaseURL picks the API host for cfg. An explicit base_url wins over the
// sandbox flag.
func BaseURL(cfg config.PayPalConfig) string {
	switch {
	case cfg.BaseURL != "":
		return cfg.BaseURL
	case cfg.Sandbox:
		return SandboxBaseURL
	default:
		return LiveBaseURL
	}
}

// requester issues authenticated JSON calls. The bearer token is resolved on
// every call so an expired token is refreshed transparently.
type requester struct {
	http   *httpclient.Client
	tokens *TokenProvider
}

func (r requester) call(ctx context.Context, method, path string, payload any) (*payment.Response, error) {
	token, err := r.tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	return r.http.JSON(ctx, method, path, token, payload)
}

type options struct {
	logger     zerolog.Logger
	metrics    *observability.Metrics
	clock      Clock
	timeout    time.Duration
	httpClient *http.Client
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func WithClock(c Clock) Option {
	return func(o *options) { o.clock = c }
}

func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// Client is the PayPal REST API surface: payments, subscriptions, disputes
// and webhook handling, sharing one token cache.
type Client struct {
	tokens        *TokenProvider
	payments      *PaymentProvider
	subscriptions *SubscriptionProvider
	disputes      *DisputeProvider
	webhooks      *WebhookHandler
}

func NewClient(cfg config.PayPalConfig, opts ...Option) (*Client, error) {
	o := options{
		logger:  zerolog.Nop(),
		clock:   SystemClock{},
		timeout: httpclient.DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := observability.ProviderLogger(o.logger, providerName)

	hcOpts := []httpclient.Option{
		httpclient.WithTimeout(o.timeout),
		httpclient.WithLogger(logger),
	}
	if o.httpClient != nil {
		hcOpts = append(hcOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	hc := httpclient.New(providerName, BaseURL(cfg), hcOpts...)

	tokens, err := NewTokenProvider(cfg, hc,
		WithTokenClock(o.clock),
		WithTokenLogger(logger),
		WithTokenMetrics(o.metrics),
	)
	if err != nil {
		return nil, err
	}

	req := requester{http: hc, tokens: tokens}
	return &Client{
		tokens:        tokens,
		payments:      NewPaymentProvider(cfg, req),
		subscriptions: NewSubscriptionProvider(req),
		disputes:      NewDisputeProvider(req),
		webhooks:      NewWebhookHandler(cfg, req, logger, o.metrics),
	}, nil
}

func (c *Client) AccessToken(ctx context.Context) (string, error) {
	return c.tokens.AccessToken(ctx)
}

func (c *Client) CreatePayment(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return c.payments.Create(ctx, data)
}

func (c *Client) CapturePayment(ctx context.Context, paymentID string) (*payment.Response, error) {
	return c.payments.Capture(ctx, paymentID)
}

// ExecutePayment completes a payment the payer has approved.
func (c *Client) ExecutePayment(ctx context.Context, paymentID, payerID string) (*payment.Response, error) {
	return c.payments.Execute(ctx, paymentID, payerID)
}

func (c *Client) RefundPayment(ctx context.Context, saleID string, data payment.Fields) (*payment.Response, error) {
	return c.payments.Refund(ctx, saleID, data)
}

func (c *Client) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return c.subscriptions.Create(ctx, data)
}

func (c *Client) UpdateSubscription(ctx context.Context, subscriptionID string, data payment.Fields) (*payment.Response, error) {
	return c.subscriptions.Update(ctx, subscriptionID, data)
}

func (c *Client) CancelSubscription(ctx context.Context, subscriptionID, reason string) (*payment.Response, error) {
	return c.subscriptions.Cancel(ctx, subscriptionID, reason)
}

func (c *Client) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) (*webhook.Event, error) {
	return c.webhooks.Handle(ctx, payload, headers)
}

func (c *Client) DeliverWebhook(ctx context.Context, payload []byte, headers http.Header) webhook.Result {
	return c.webhooks.Deliver(ctx, payload, headers)
}

func (c *Client) ListDisputes(ctx context.Context) (*payment.Response, error) {
	return c.disputes.List(ctx)
}

func (c *Client) GetDispute(ctx context.Context, disputeID string) (*payment.Response, error) {
	return c.disputes.Get(ctx, disputeID)
}

func (c *Client) AcceptClaim(ctx context.Context, disputeID string) (*payment.Response, error) {
	return c.disputes.AcceptClaim(ctx, disputeID)
}

// RespondToDispute submits evidence for a dispute.
func (c *Client) RespondToDispute(ctx context.Context, disputeID string, evidence payment.Fields) (*payment.Response, error) {
	return c.disputes.ProvideSupportingInfo(ctx, disputeID, evidence)
}
