package gateway

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/cassiomorais/unifiedpay/internal/gateway"

// instrumentedGateway records a span, a log line and provider metrics for
// every call.
type instrumentedGateway struct {
	next     Gateway
	provider string
	tracer   trace.Tracer
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

func newInstrumentedGateway(next Gateway, provider string, logger zerolog.Logger, m *observability.Metrics) *instrumentedGateway {
	return &instrumentedGateway{
		next:     next,
		provider: provider,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
		metrics:  m,
	}
}

func (g *instrumentedGateway) observe(ctx context.Context, operation payment.Operation, fn func(context.Context) (*payment.Response, error)) (*payment.Response, error) {
	op := string(operation)
	ctx, span := g.tracer.Start(ctx, "gateway."+op, trace.WithAttributes(
		attribute.String("payment.provider", g.provider),
		attribute.String("payment.operation", op),
	))
	defer span.End()

	start := time.Now()
	resp, err := fn(ctx)
	elapsed := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Error().Err(err).
			Str("operation", op).
			Dur("duration", elapsed).
			Msg("provider operation failed")
	} else {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
		g.logger.Debug().
			Str("operation", op).
			Int("status_code", resp.StatusCode).
			Dur("duration", elapsed).
			Msg("provider operation completed")
	}

	if g.metrics != nil {
		g.metrics.ProviderRequestsTotal.WithLabelValues(g.provider, op, status).Inc()
		g.metrics.ProviderRequestDuration.WithLabelValues(g.provider, op).Observe(elapsed.Seconds())
		if err != nil {
			g.metrics.ProviderErrors.WithLabelValues(g.provider, op, errorType(err)).Inc()
		}
	}
	return resp, err
}

func (g *instrumentedGateway) guard(next invoker) invoker {
	return func(ctx context.Context, op payment.Operation, fn func(context.Context) (*payment.Response, error)) (*payment.Response, error) {
		return g.observe(ctx, op, func(ctx context.Context) (*payment.Response, error) {
			return next(ctx, op, fn)
		})
	}
}

// errorType buckets an error into a low-cardinality metric label.
func errorType(err error) string {
	switch {
	case errors.Is(err, domainErrors.ErrProviderUnavailable):
		return "unavailable"
	case errors.Is(err, domainErrors.ErrValidationFailed):
		return "validation"
	case errors.Is(err, domainErrors.ErrConfiguration):
		return "configuration"
	case errors.Is(err, domainErrors.ErrAuthFailed):
		return "auth"
	case errors.Is(err, domainErrors.ErrProviderAPI):
		return "api"
	case errors.Is(err, domainErrors.ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}

func (g *instrumentedGateway) CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return g.observe(ctx, payment.OpCreatePaymentIntent, func(ctx context.Context) (*payment.Response, error) {
		return g.next.CreatePaymentIntent(ctx, data)
	})
}

func (g *instrumentedGateway) CapturePaymentIntent(ctx context.Context, paymentID string) (*payment.Response, error) {
	return g.observe(ctx, payment.OpCapturePaymentIntent, func(ctx context.Context) (*payment.Response, error) {
		return g.next.CapturePaymentIntent(ctx, paymentID)
	})
}

func (g *instrumentedGateway) RefundPayment(ctx context.Context, paymentID string, data payment.Fields) (*payment.Response, error) {
	return g.observe(ctx, payment.OpRefundPayment, func(ctx context.Context) (*payment.Response, error) {
		return g.next.RefundPayment(ctx, paymentID, data)
	})
}

func (g *instrumentedGateway) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return g.observe(ctx, payment.OpCreateSubscription, func(ctx context.Context) (*payment.Response, error) {
		return g.next.CreateSubscription(ctx, data)
	})
}

func (g *instrumentedGateway) CancelSubscription(ctx context.Context, subscriptionID string) (*payment.Response, error) {
	return g.observe(ctx, payment.OpCancelSubscription, func(ctx context.Context) (*payment.Response, error) {
		return g.next.CancelSubscription(ctx, subscriptionID)
	})
}
