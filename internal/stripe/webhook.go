package stripe

import (
	"context"
	"fmt"
	"strconv"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/webhook"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	stripego "github.com/stripe/stripe-go/v82"
)

const (
	msgWebhookProcessed = "Webhook processed successfully"
	msgSignatureFailed  = "Webhook signature verification failed"
	msgProcessingFailed = "Error processing webhook"
)

// EventHandler receives verified Stripe events.
type EventHandler interface {
	ProcessWebhookEvent(ctx context.Context, event stripego.Event) error
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ctx context.Context, event stripego.Event) error

func (f EventHandlerFunc) ProcessWebhookEvent(ctx context.Context, event stripego.Event) error {
	return f(ctx, event)
}

// LoggingEventHandler only records the events it receives.
type LoggingEventHandler struct {
	Logger zerolog.Logger
}

func (h LoggingEventHandler) ProcessWebhookEvent(_ context.Context, event stripego.Event) error {
	h.Logger.Info().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Bool("livemode", event.Livemode).
		Msg("Stripe webhook event received")
	return nil
}

type WebhookHandler struct {
	api     API
	secret  string
	events  EventHandler
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewWebhookHandler(api API, secret string, events EventHandler, logger zerolog.Logger, metrics *observability.Metrics) (*WebhookHandler, error) {
	if secret == "" {
		return nil, domainErrors.NewConfigurationError("stripe.stripe_webhook_secret", "webhook secret is required")
	}
	if events == nil {
		return nil, domainErrors.NewConfigurationError("stripe.event_handler", "event handler is required")
	}
	return &WebhookHandler{
		api:     api,
		secret:  secret,
		events:  events,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Handle verifies the signature and hands the event to the EventHandler.
// It never returns an error; every outcome is a status code and message.
func (h *WebhookHandler) Handle(ctx context.Context, payload []byte, signatureHeader string) webhook.Result {
	result := h.handle(ctx, payload, signatureHeader)
	if h.metrics != nil {
		h.metrics.WebhooksTotal.WithLabelValues(providerName, strconv.Itoa(result.StatusCode)).Inc()
	}
	return result
}

func (h *WebhookHandler) handle(ctx context.Context, payload []byte, signatureHeader string) webhook.Result {
	event, err := h.api.ConstructWebhookEvent(payload, signatureHeader, h.secret)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Stripe webhook signature verification failed")
		return webhook.BadRequest(msgSignatureFailed)
	}

	if err := h.dispatch(ctx, event); err != nil {
		h.logger.Error().
			Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Msg("Stripe webhook processing failed")
		return webhook.Failed(msgProcessingFailed)
	}

	return webhook.OK(msgWebhookProcessed, nil)
}

func (h *WebhookHandler) dispatch(ctx context.Context, event stripego.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
	}()
	return h.events.ProcessWebhookEvent(ctx, event)
}
