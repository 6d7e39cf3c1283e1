package gateway

import (
	"github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/cassiomorais/unifiedpay/internal/paypal"
	"github.com/cassiomorais/unifiedpay/internal/stripe"
	"github.com/rs/zerolog"
)

// Builder constructs the adapter for one provider.
type Builder func(cfg *config.Config) (Gateway, error)

type FactoryOption func(*Factory)

func WithLogger(l zerolog.Logger) FactoryOption {
	return func(f *Factory) { f.logger = l }
}

func WithMetrics(m *observability.Metrics) FactoryOption {
	return func(f *Factory) { f.metrics = m }
}

// WithBuilder replaces the adapter constructor for a provider.
func WithBuilder(p payment.Provider, b Builder) FactoryOption {
	return func(f *Factory) { f.builders[p] = b }
}

func WithPayPalOptions(opts ...paypal.Option) FactoryOption {
	return func(f *Factory) { f.paypalOpts = append(f.paypalOpts, opts...) }
}

func WithStripeOptions(opts ...stripe.Option) FactoryOption {
	return func(f *Factory) { f.stripeOpts = append(f.stripeOpts, opts...) }
}

// Factory selects and wires the provider adapter named by the configuration.
type Factory struct {
	builders   map[payment.Provider]Builder
	logger     zerolog.Logger
	metrics    *observability.Metrics
	paypalOpts []paypal.Option
	stripeOpts []stripe.Option
}

func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		builders: make(map[payment.Provider]Builder),
		logger:   zerolog.Nop(),
	}
	f.builders[payment.ProviderPayPal] = f.buildPayPal
	f.builders[payment.ProviderStripe] = f.buildStripe

	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create returns a client bound to cfg.Provider. Construction performs no
// network I/O.
func (f *Factory) Create(cfg *config.Config) (*Client, error) {
	provider, ok := payment.ParseProvider(cfg.Provider)
	if !ok {
		return nil, &errors.UnsupportedProviderError{Provider: cfg.Provider}
	}
	build, ok := f.builders[provider]
	if !ok {
		return nil, &errors.UnsupportedProviderError{Provider: cfg.Provider}
	}

	adapter, err := build(cfg)
	if err != nil {
		return nil, err
	}

	logger := observability.ProviderLogger(f.logger, string(provider))

	var g Gateway = adapter
	invoke := invoker(invokeDirect)
	if cfg.Breaker.Enabled {
		b := newBreakerGateway(g, BreakerSettings(string(provider), cfg.Breaker), logger, f.metrics)
		g, invoke = b, b.guard(invoke)
	}
	instrumented := newInstrumentedGateway(g, string(provider), logger, f.metrics)

	logger.Info().Bool("breaker", cfg.Breaker.Enabled).Msg("payment gateway ready")

	return &Client{
		provider: provider,
		gateway:  instrumented,
		adapter:  adapter,
		invoke:   instrumented.guard(invoke),
	}, nil
}

func (f *Factory) buildPayPal(cfg *config.Config) (Gateway, error) {
	opts := append([]paypal.Option{
		paypal.WithLogger(f.logger),
		paypal.WithMetrics(f.metrics),
		paypal.WithTimeout(cfg.HTTP.Timeout),
	}, f.paypalOpts...)

	client, err := paypal.NewClient(cfg.PayPal, opts...)
	if err != nil {
		return nil, err
	}
	return NewPayPalAdapter(client), nil
}

func (f *Factory) buildStripe(cfg *config.Config) (Gateway, error) {
	opts := append([]stripe.Option{
		stripe.WithLogger(f.logger),
		stripe.WithMetrics(f.metrics),
	}, f.stripeOpts...)

	client, err := stripe.NewClient(cfg.Stripe, opts...)
	if err != nil {
		return nil, err
	}
	return NewStripeAdapter(client), nil
}
