package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

const defaultFailureThreshold = 5

// BreakerSettings builds gobreaker settings for one provider. The breaker
// trips after FailureThreshold consecutive provider failures.
func BreakerSettings(name string, cfg config.BreakerConfig) gobreaker.Settings {
	maxRequests := cfg.MaxRequests
	if maxRequests == 0 {
		maxRequests = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = defaultFailureThreshold
	}

	return gobreaker.Settings{
		Name:        name,
		MaxRequests: maxRequests,
		Interval:    60 * time.Second,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: isBreakerSuccess,
	}
}

// isBreakerSuccess reports whether err says nothing about provider health.
// Caller mistakes and 4xx rejections leave the breaker alone.
func isBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, domainErrors.ErrValidationFailed) ||
		errors.Is(err, domainErrors.ErrConfiguration) ||
		errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *domainErrors.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status < http.StatusInternalServerError
	}
	return false
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// breakerGateway short-circuits calls to a provider that keeps failing.
type breakerGateway struct {
	next    Gateway
	cb      *gobreaker.CircuitBreaker[*payment.Response]
	metrics *observability.Metrics
}

func newBreakerGateway(next Gateway, settings gobreaker.Settings, logger zerolog.Logger, m *observability.Metrics) *breakerGateway {
	name := settings.Name
	settings.OnStateChange = func(_ string, from, to gobreaker.State) {
		logger.Warn().
			Str("breaker", name).
			Str("from", from.String()).
			Str("to", to.String()).
			Msg("circuit breaker state changed")
		if m != nil {
			m.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		}
	}
	if m != nil {
		m.CircuitBreakerState.WithLabelValues(name).Set(0)
	}

	return &breakerGateway{
		next:    next,
		cb:      gobreaker.NewCircuitBreaker[*payment.Response](settings),
		metrics: m,
	}
}

func (b *breakerGateway) run(fn func() (*payment.Response, error)) (*payment.Response, error) {
	resp, err := b.cb.Execute(fn)
	result := "success"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
		err = fmt.Errorf("%w: %s: %w", domainErrors.ErrProviderUnavailable, b.cb.Name(), err)
	case err != nil:
		result = "failure"
	}
	if b.metrics != nil {
		b.metrics.CircuitBreakerRequests.WithLabelValues(b.cb.Name(), result).Inc()
	}
	return resp, err
}

func (b *breakerGateway) guard(next invoker) invoker {
	return func(ctx context.Context, op payment.Operation, fn func(context.Context) (*payment.Response, error)) (*payment.Response, error) {
		return b.run(func() (*payment.Response, error) { return next(ctx, op, fn) })
	}
}

func (b *breakerGateway) CreatePaymentIntent(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return b.run(func() (*payment.Response, error) { return b.next.CreatePaymentIntent(ctx, data) })
}

func (b *breakerGateway) CapturePaymentIntent(ctx context.Context, paymentID string) (*payment.Response, error) {
	return b.run(func() (*payment.Response, error) { return b.next.CapturePaymentIntent(ctx, paymentID) })
}

func (b *breakerGateway) RefundPayment(ctx context.Context, paymentID string, data payment.Fields) (*payment.Response, error) {
	return b.run(func() (*payment.Response, error) { return b.next.RefundPayment(ctx, paymentID, data) })
}

func (b *breakerGateway) CreateSubscription(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	return b.run(func() (*payment.Response, error) { return b.next.CreateSubscription(ctx, data) })
}

func (b *breakerGateway) CancelSubscription(ctx context.Context, subscriptionID string) (*payment.Response, error) {
	return b.run(func() (*payment.Response, error) { return b.next.CancelSubscription(ctx, subscriptionID) })
}
