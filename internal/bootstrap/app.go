package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/cassiomorais/unifiedpay/internal/controller"
	"github.com/cassiomorais/unifiedpay/internal/gateway"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/idempotency"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	metricsNamespace = "unifiedpay"
	cleanupInterval  = 10 * time.Minute
)

type App struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Metrics     *observability.Metrics
	Gateway     *gateway.Client
	Idempotency idempotency.Store

	tracer *sdktrace.TracerProvider
	redis  *idempotency.RedisStore
}

// New loads configuration from the environment and wires the application.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info().
		Str("service", cfg.Observability.ServiceName).
		Str("provider", cfg.Provider).
		Msg("Starting")

	var tp *sdktrace.TracerProvider
	if cfg.Observability.EnableTracing {
		tp, err = observability.InitTracer(cfg.Observability.ServiceName, cfg.Observability.OTLPEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			logger.Info().Str("endpoint", cfg.Observability.OTLPEndpoint).Msg("Tracing enabled")
		}
	}

	var reg prometheus.Registerer
	if !cfg.Observability.EnableMetrics {
		reg = prometheus.NewRegistry()
	}

	app, err := Build(ctx, cfg, logger, reg)
	if err != nil {
		observability.Shutdown(context.Background(), tp)
		return nil, err
	}
	app.tracer = tp
	return app, nil
}

// Build wires the gateway and HTTP dependencies from an already loaded
// configuration. A nil registerer registers metrics globally.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg prometheus.Registerer, opts ...gateway.FactoryOption) (*App, error) {
	metrics := observability.NewMetrics(metricsNamespace, reg)

	factory := gateway.NewFactory(append([]gateway.FactoryOption{
		gateway.WithLogger(logger),
		gateway.WithMetrics(metrics),
	}, opts...)...)

	client, err := factory.Create(cfg)
	if err != nil {
		return nil, fmt.Errorf("create payment gateway: %w", err)
	}

	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Gateway: client,
	}

	if cfg.Idempotency.Enabled {
		if cfg.Idempotency.Redis.Host != "" {
			rc, err := idempotency.NewRedisClient(ctx, cfg.Idempotency.Redis)
			if err != nil {
				return nil, fmt.Errorf("connect to redis: %w", err)
			}
			app.redis = idempotency.NewRedisStore(rc)
			app.Idempotency = app.redis
			logger.Info().Str("addr", cfg.Idempotency.Redis.Addr()).Msg("Idempotency records stored in Redis")
		} else {
			app.Idempotency = idempotency.NewMemoryStore()
			logger.Info().Msg("Idempotency records kept in memory")
		}
	}

	return app, nil
}

// RouterDeps exposes the provider specific surfaces of the selected adapter.
func (a *App) RouterDeps() controller.RouterDeps {
	deps := controller.RouterDeps{
		Gateway:        a.Gateway,
		Provider:       a.Gateway.Provider(),
		Idempotency:    a.Idempotency,
		IdempotencyTTL: a.Config.Idempotency.TTL,
		Metrics:        a.Metrics,
		Logger:         a.Logger,
		Server:         a.Config.Server,
	}

	if ops, ok := a.Gateway.PayPal(); ok {
		deps.Executor = ops
		deps.Disputes = ops
	}

	// Webhook deliveries are inbound and stay outside the provider breaker.
	switch adapter := a.Gateway.Adapter().(type) {
	case *gateway.PayPalAdapter:
		deps.PayPalWebhooks = adapter.Client()
	case *gateway.StripeAdapter:
		deps.StripeWebhooks = adapter.Client()
	}
	return deps
}

// RunMaintenance drops expired in-memory idempotency records until ctx is
// done. Redis expires its own keys.
func (a *App) RunMaintenance(ctx context.Context) error {
	store, ok := a.Idempotency.(*idempotency.MemoryStore)
	if !ok {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := store.Cleanup(); n > 0 {
				a.Logger.Debug().Int("removed", n).Msg("Expired idempotency records removed")
			}
		}
	}
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
	observability.Shutdown(context.Background(), a.tracer)
}
