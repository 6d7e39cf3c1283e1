package controller

import (
	"context"
	"io"
	"net/http"

	"github.com/cassiomorais/unifiedpay/internal/domain/webhook"
	"github.com/rs/zerolog"
)

// Stripe signs payloads up to 64KB; PayPal events are of similar size.
const maxWebhookBodySize = 1 << 16

type PayPalWebhookDeliverer interface {
	DeliverWebhook(ctx context.Context, payload []byte, headers http.Header) webhook.Result
}

type StripeWebhookDeliverer interface {
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) webhook.Result
}

// WebhookController exposes provider delivery endpoints. Providers retry on
// non-2xx answers, so the handler result status is relayed unchanged.
type WebhookController struct {
	paypal PayPalWebhookDeliverer
	stripe StripeWebhookDeliverer
}

func NewWebhookController(paypal PayPalWebhookDeliverer, stripe StripeWebhookDeliverer) *WebhookController {
	return &WebhookController{paypal: paypal, stripe: stripe}
}

// PayPal handles POST /webhooks/paypal
func (h *WebhookController) PayPal(w http.ResponseWriter, r *http.Request) {
	payload, ok := readWebhookBody(w, r)
	if !ok {
		return
	}
	writeResult(w, h.paypal.DeliverWebhook(r.Context(), payload, r.Header))
}

// Stripe handles POST /webhooks/stripe
func (h *WebhookController) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, ok := readWebhookBody(w, r)
	if !ok {
		return
	}
	writeResult(w, h.stripe.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature")))
}

func readWebhookBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to read webhook body")
		writeResult(w, webhook.BadRequest("Invalid webhook payload"))
		return nil, false
	}
	return payload, true
}

func writeResult(w http.ResponseWriter, result webhook.Result) {
	writeJSON(w, result.StatusCode, result)
}
