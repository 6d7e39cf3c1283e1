package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/domain/webhook"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/idempotency"
	"github.com/cassiomorais/unifiedpay/internal/stripe"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
)

// fakeGateway answers every call with resp or err and records the inputs.
type fakeGateway struct {
	calls  []string
	ids    []string
	fields []payment.Fields
	resp   *payment.Response
	err    error
}

func (f *fakeGateway) answer(op, id string, data payment.Fields) (*payment.Response, error) {
	f.calls = append(f.calls, op)
	f.ids = append(f.ids, id)
	f.fields = append(f.fields, data)
	return f.resp, f.err
}

func (f *fakeGateway) CreatePaymentIntent(_ context.Context, data payment.Fields) (*payment.Response, error) {
	return f.answer("create", "", data)
}

func (f *fakeGateway) CapturePaymentIntent(_ context.Context, id string) (*payment.Response, error) {
	return f.answer("capture", id, nil)
}

func (f *fakeGateway) RefundPayment(_ context.Context, id string, data payment.Fields) (*payment.Response, error) {
	return f.answer("refund", id, data)
}

func (f *fakeGateway) CreateSubscription(_ context.Context, data payment.Fields) (*payment.Response, error) {
	return f.answer("subscribe", "", data)
}

func (f *fakeGateway) CancelSubscription(_ context.Context, id string) (*payment.Response, error) {
	return f.answer("cancel", id, nil)
}

type fakeExecutor struct {
	paymentID, payerID string
}

func (f *fakeExecutor) ExecutePaymentIntent(_ context.Context, paymentID, payerID string) (*payment.Response, error) {
	f.paymentID, f.payerID = paymentID, payerID
	return payment.NewResponse(http.StatusOK, []byte(`{"id":"`+paymentID+`","state":"approved"}`)), nil
}

type fakeDisputes struct {
	calls    []string
	evidence payment.Fields
}

func (f *fakeDisputes) reply(op string) (*payment.Response, error) {
	f.calls = append(f.calls, op)
	return payment.NewResponse(http.StatusOK, []byte(`{"op":"`+op+`"}`)), nil
}

func (f *fakeDisputes) ListDisputes(context.Context) (*payment.Response, error) {
	return f.reply("list")
}

func (f *fakeDisputes) GetDispute(_ context.Context, id string) (*payment.Response, error) {
	return f.reply("get:" + id)
}

func (f *fakeDisputes) AcceptClaim(_ context.Context, id string) (*payment.Response, error) {
	return f.reply("accept:" + id)
}

func (f *fakeDisputes) RespondToDispute(_ context.Context, id string, evidence payment.Fields) (*payment.Response, error) {
	f.evidence = evidence
	return f.reply("respond:" + id)
}

type fakePayPalWebhooks struct {
	payload []byte
	headers http.Header
	result  webhook.Result
}

func (f *fakePayPalWebhooks) DeliverWebhook(_ context.Context, payload []byte, headers http.Header) webhook.Result {
	f.payload, f.headers = payload, headers
	return f.result
}

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{CORS: config.CORSConfig{AllowedOrigins: []string{"*"}}}
}

func newTestRouter(deps RouterDeps) http.Handler {
	if deps.Provider == "" {
		deps.Provider = payment.ProviderPayPal
	}
	deps.Logger = zerolog.Nop()
	if deps.Server.CORS.AllowedOrigins == nil {
		deps.Server = testServerConfig()
	}
	return NewRouter(deps)
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}})

	w := do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","provider":"paypal"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_PaymentRoutes(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		wantOp string
		wantID string
	}{
		{"create payment", http.MethodPost, "/api/v1/payments", `{"amount":1999,"currency":"USD","description":"Order"}`, "create", ""},
		{"capture payment", http.MethodPost, "/api/v1/payments/PAY-1/capture", "", "capture", "PAY-1"},
		{"refund payment", http.MethodPost, "/api/v1/payments/SALE-1/refund", `{"amount":{"total":"1.00","currency":"USD"}}`, "refund", "SALE-1"},
		{"create subscription", http.MethodPost, "/api/v1/subscriptions", `{"plan_id":"P-1"}`, "subscribe", ""},
		{"cancel subscription", http.MethodPost, "/api/v1/subscriptions/I-1/cancel", "", "cancel", "I-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &fakeGateway{resp: payment.NewResponse(http.StatusCreated, []byte(`{"id":"X-1"}`))}
			h := newTestRouter(RouterDeps{Gateway: g})

			w := do(h, tt.method, tt.path, tt.body, nil)

			assert.Equal(t, http.StatusCreated, w.Code)
			assert.JSONEq(t, `{"id":"X-1"}`, w.Body.String())
			assert.Equal(t, "paypal", w.Header().Get("X-Payment-Provider"))
			require.Equal(t, []string{tt.wantOp}, g.calls)
			assert.Equal(t, tt.wantID, g.ids[0])
		})
	}
}

func TestRouter_CreatePaymentPassesFields(t *testing.T) {
	g := &fakeGateway{resp: payment.NewResponse(http.StatusOK, []byte(`{}`))}
	h := newTestRouter(RouterDeps{Gateway: g, Provider: payment.ProviderStripe})

	w := do(h, http.MethodPost, "/api/v1/payments", `{"amount":2500,"currency":"eur","metadata":{"order":"42"}}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	f := g.fields[0]
	assert.Equal(t, json.Number("2500"), f["amount"])
	assert.Equal(t, "eur", f.String("currency"))
	assert.Equal(t, map[string]string{"order": "42"}, f.StringMap("metadata"))
}

func TestRouter_CreatePaymentRejectsBadCurrency(t *testing.T) {
	g := &fakeGateway{}
	h := newTestRouter(RouterDeps{Gateway: g})

	w := do(h, http.MethodPost, "/api/v1/payments", `{"amount":2500,"currency":"euro"}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation_error")
	assert.Empty(t, g.calls)
}

func TestRouter_GatewayErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", domainErrors.NewValidationError("amount", "missing required field"), http.StatusBadRequest},
		{"provider rejection", domainErrors.NewAPIError("stripe", http.StatusPaymentRequired, []byte(`{"type":"card_error"}`)), http.StatusBadGateway},
		{"unavailable", domainErrors.ErrProviderUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(RouterDeps{Gateway: &fakeGateway{err: tt.err}})

			w := do(h, http.MethodPost, "/api/v1/payments/pi_1/capture", "", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRouter_ExecutePayment(t *testing.T) {
	exec := &fakeExecutor{}
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, Executor: exec})

	w := do(h, http.MethodPost, "/api/v1/payments/PAY-9/execute", `{"payer_id":"PAYER-1"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PAY-9", exec.paymentID)
	assert.Equal(t, "PAYER-1", exec.payerID)

	w = do(h, http.MethodPost, "/api/v1/payments/PAY-9/execute", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ExecutePaymentUnsupported(t *testing.T) {
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, Provider: payment.ProviderStripe})

	w := do(h, http.MethodPost, "/api/v1/payments/pi_1/execute", `{"payer_id":"X"}`, nil)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "unsupported_operation")
}

func TestRouter_Disputes(t *testing.T) {
	d := &fakeDisputes{}
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, Disputes: d})

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/v1/disputes", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/v1/disputes/PP-D-1", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/disputes/PP-D-1/accept-claim", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/api/v1/disputes/PP-D-1/evidence", `{"notes":"shipped"}`, nil).Code)

	assert.Equal(t, []string{"list", "get:PP-D-1", "accept:PP-D-1", "respond:PP-D-1"}, d.calls)
	assert.Equal(t, "shipped", d.evidence.String("notes"))
}

func TestRouter_DisputesNotMountedWithoutService(t *testing.T) {
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, Provider: payment.ProviderStripe})

	w := do(h, http.MethodGet, "/api/v1/disputes", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Idempotency(t *testing.T) {
	g := &fakeGateway{resp: payment.NewResponse(http.StatusCreated, []byte(`{"id":"PAY-1"}`))}
	h := newTestRouter(RouterDeps{
		Gateway:        g,
		Idempotency:    idempotency.NewMemoryStore(),
		IdempotencyTTL: time.Hour,
	})

	body := `{"amount":1999,"currency":"USD","description":"Order"}`
	headers := map[string]string{"Idempotency-Key": "order-1"}

	first := do(h, http.MethodPost, "/api/v1/payments", body, headers)
	second := do(h, http.MethodPost, "/api/v1/payments", body, headers)

	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.Len(t, g.calls, 1)
}

func TestRouter_RequiresAuthWhenConfigured(t *testing.T) {
	server := testServerConfig()
	server.JWTSecret = "secret"
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, Server: server})

	w := do(h, http.MethodPost, "/api/v1/payments", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Health and webhooks stay open.
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", nil).Code)
}

func TestRouter_PayPalWebhook(t *testing.T) {
	hooks := &fakePayPalWebhooks{result: webhook.OK("Webhook processed successfully", &webhook.Event{
		Status: webhook.StatusCompleted,
		Fields: map[string]any{"transaction_id": "SALE-1"},
	})}
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, PayPalWebhooks: hooks})

	w := do(h, http.MethodPost, "/webhooks/paypal", `{"event_type":"PAYMENT.SALE.COMPLETED"}`,
		map[string]string{"PAYPAL-TRANSMISSION-ID": "tx-1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"statusCode": 200,
		"message": "Webhook processed successfully",
		"event": {"status": "completed", "transaction_id": "SALE-1"}
	}`, w.Body.String())
	assert.Equal(t, `{"event_type":"PAYMENT.SALE.COMPLETED"}`, string(hooks.payload))
	assert.Equal(t, "tx-1", hooks.headers.Get("PAYPAL-TRANSMISSION-ID"))
}

func TestRouter_PayPalWebhookRelaysFailureStatus(t *testing.T) {
	hooks := &fakePayPalWebhooks{result: webhook.BadRequest("Webhook signature verification failed")}
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, PayPalWebhooks: hooks})

	w := do(h, http.MethodPost, "/webhooks/paypal", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"statusCode":400,"message":"Webhook signature verification failed"}`, w.Body.String())
}

func TestRouter_StripeWebhook(t *testing.T) {
	const secret = "whsec_router_test"
	client, err := stripe.NewClient(config.StripeConfig{APIKey: "sk_test_1", WebhookSecret: secret})
	require.NoError(t, err)

	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}, Provider: payment.ProviderStripe, StripeWebhooks: client})

	payload := []byte(`{"id":"evt_1","object":"event","type":"payment_intent.succeeded","data":{"object":{"id":"pi_1","object":"payment_intent"}}}`)
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})

	w := do(h, http.MethodPost, "/webhooks/stripe", string(signed.Payload), map[string]string{"Stripe-Signature": signed.Header})
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPost, "/webhooks/stripe", string(signed.Payload), map[string]string{"Stripe-Signature": "t=1,v1=bad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Webhook signature verification failed")
}

func TestRouter_WebhookNotMountedWithoutDeliverer(t *testing.T) {
	h := newTestRouter(RouterDeps{Gateway: &fakeGateway{}})

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, "/webhooks/stripe", `{}`, nil).Code)
}
