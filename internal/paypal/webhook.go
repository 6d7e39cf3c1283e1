package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/domain/webhook"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
)

const verifyPath = "/v1/notifications/verify-webhook-signature"

const (
	EventSaleCompleted         = "PAYMENT.SALE.COMPLETED"
	EventSaleDenied            = "PAYMENT.SALE.DENIED"
	EventSaleRefunded          = "PAYMENT.SALE.REFUNDED"
	EventSubscriptionCreated   = "BILLING.SUBSCRIPTION.CREATED"
	EventSubscriptionCancelled = "BILLING.SUBSCRIPTION.CANCELLED"
	EventSubscriptionSuspended = "BILLING.SUBSCRIPTION.SUSPENDED"
)

type verifyRequest struct {
	AuthAlgo         string          `json:"auth_algo"`
	CertURL          string          `json:"cert_url"`
	TransmissionID   string          `json:"transmission_id"`
	TransmissionSig  string          `json:"transmission_sig"`
	TransmissionTime string          `json:"transmission_time"`
	WebhookID        string          `json:"webhook_id"`
	WebhookEvent     json.RawMessage `json:"webhook_event"`
}

type envelope struct {
	EventType string         `json:"event_type"`
	Resource  payment.Fields `json:"resource"`
}

// WebhookHandler verifies PayPal notifications through the verify-webhook-signature
// API and normalizes the supported event types.
type WebhookHandler struct {
	webhookID string
	req       requester
	logger    zerolog.Logger
	metrics   *observability.Metrics
}

func NewWebhookHandler(cfg config.PayPalConfig, req requester, logger zerolog.Logger, metrics *observability.Metrics) *WebhookHandler {
	return &WebhookHandler{
		webhookID: cfg.WebhookID,
		req:       req,
		logger:    logger,
		metrics:   metrics,
	}
}

// Handle verifies payload and returns the normalized event. Unknown event
// types are not an error; they yield an "unhandled" event.
func (h *WebhookHandler) Handle(ctx context.Context, payload []byte, headers http.Header) (*webhook.Event, error) {
	if h.webhookID == "" {
		return nil, domainErrors.NewConfigurationError("paypal.webhook_id", "webhook id not configured")
	}
	payload = bytes.TrimSpace(payload)
	if !json.Valid(payload) {
		return nil, &domainErrors.MalformedPayloadError{}
	}

	if err := h.verify(ctx, payload, headers); err != nil {
		return nil, err
	}

	var env envelope
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, &domainErrors.MalformedPayloadError{Err: err}
	}

	event := normalize(env)
	return &event, nil
}

// Deliver wraps Handle for HTTP delivery endpoints. It never fails; errors are
// logged and mapped to a status code.
func (h *WebhookHandler) Deliver(ctx context.Context, payload []byte, headers http.Header) webhook.Result {
	result := h.deliver(ctx, payload, headers)
	if h.metrics != nil {
		h.metrics.WebhooksTotal.WithLabelValues(providerName, strconv.Itoa(result.StatusCode)).Inc()
	}
	return result
}

func (h *WebhookHandler) deliver(ctx context.Context, payload []byte, headers http.Header) webhook.Result {
	event, err := h.Handle(ctx, payload, headers)
	switch {
	case err == nil:
		h.logger.Info().
			Str("status", string(event.Status)).
			Msg("PayPal webhook processed")
		return webhook.OK("Webhook processed successfully", event)
	case errors.Is(err, domainErrors.ErrInvalidSignature):
		h.logger.Warn().Err(err).Msg("PayPal webhook signature verification failed")
		return webhook.BadRequest("Webhook signature verification failed")
	case errors.Is(err, domainErrors.ErrMalformedPayload):
		h.logger.Warn().Err(err).Msg("PayPal webhook payload rejected")
		return webhook.BadRequest("Invalid webhook payload")
	default:
		h.logger.Error().Err(err).Msg("PayPal webhook processing failed")
		return webhook.Failed("Error processing webhook")
	}
}

func (h *WebhookHandler) verify(ctx context.Context, payload []byte, headers http.Header) error {
	body := verifyRequest{
		AuthAlgo:         headers.Get("PAYPAL-AUTH-ALGO"),
		CertURL:          headers.Get("PAYPAL-CERT-URL"),
		TransmissionID:   headers.Get("PAYPAL-TRANSMISSION-ID"),
		TransmissionSig:  headers.Get("PAYPAL-TRANSMISSION-SIG"),
		TransmissionTime: headers.Get("PAYPAL-TRANSMISSION-TIME"),
		WebhookID:        h.webhookID,
		WebhookEvent:     json.RawMessage(payload),
	}

	resp, err := h.req.call(ctx, http.MethodPost, verifyPath, body)
	if err != nil {
		var apiErr *domainErrors.APIError
		if errors.As(err, &apiErr) {
			return domainErrors.NewSignatureError(providerName, "verification request rejected", err)
		}
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return domainErrors.NewSignatureError(providerName, "unexpected verification status "+strconv.Itoa(resp.StatusCode), nil)
	}
	if status := payment.Fields(resp.Body).String("verification_status"); status != "SUCCESS" {
		return domainErrors.NewSignatureError(providerName, "verification_status "+strconv.Quote(status), nil)
	}
	return nil
}

func normalize(env envelope) webhook.Event {
	res := env.Resource
	amount := res.Map("amount")
	get := func(f payment.Fields, key string) any {
		v, _ := f.Lookup(key)
		return v
	}

	switch env.EventType {
	case EventSaleCompleted:
		return webhook.Event{Status: webhook.StatusCompleted, Fields: map[string]any{
			"transaction_id": get(res, "id"),
			"amount":         get(amount, "total"),
			"currency":       get(amount, "currency"),
		}}
	case EventSaleDenied:
		reason, ok := res.Lookup("state_reason")
		if !ok {
			reason = "Unknown"
		}
		return webhook.Event{Status: webhook.StatusDenied, Fields: map[string]any{
			"transaction_id": get(res, "id"),
			"reason":         reason,
		}}
	case EventSaleRefunded:
		return webhook.Event{Status: webhook.StatusRefunded, Fields: map[string]any{
			"transaction_id": get(res, "id"),
			"refund_id":      get(res, "refund_id"),
			"amount":         get(amount, "total"),
			"currency":       get(amount, "currency"),
		}}
	case EventSubscriptionCreated:
		return webhook.Event{Status: webhook.StatusCreated, Fields: map[string]any{
			"subscription_id": get(res, "id"),
			"plan_id":         get(res, "plan_id"),
			"start_time":      get(res, "start_time"),
		}}
	case EventSubscriptionCancelled:
		return webhook.Event{Status: webhook.StatusCancelled, Fields: map[string]any{
			"subscription_id": get(res, "id"),
			"cancel_time":     get(res, "status_update_time"),
		}}
	case EventSubscriptionSuspended:
		return webhook.Event{Status: webhook.StatusSuspended, Fields: map[string]any{
			"subscription_id": get(res, "id"),
			"suspend_time":    get(res, "status_update_time"),
		}}
	default:
		return webhook.Event{Status: webhook.StatusUnhandled, Fields: map[string]any{
			"message": "Unhandled webhook event type: " + env.EventType,
		}}
	}
}
