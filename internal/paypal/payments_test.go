package paypal

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"
	"testing"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePayment_BuildsSalePayload(t *testing.T) {
	f := newFakePayPal(t)
	c := f.client()

	resp, err := c.CreatePayment(context.Background(), payment.Fields{
		"amount":         1999,
		"currency":       "usd",
		"description":    "Order #42",
		"invoice_number": "INV-42",
		"items": []any{
			map[string]any{"name": "Widget", "price": 999, "sku": "W-1"},
			map[string]any{"name": "Gadget", "price": "1000", "quantity": 2, "currency": "eur"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-1", resp.ID())

	req := f.lastRequest()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/payments/payment", req.Path)
	assert.Equal(t, "Bearer A21AA-token", req.Auth)

	body := payment.Fields(req.Body)
	assert.Equal(t, "sale", body.String("intent"))
	assert.Equal(t, "paypal", body.Map("payer").String("payment_method"))
	assert.Equal(t, defaultReturnURL, body.Map("redirect_urls").String("return_url"))
	assert.Equal(t, defaultCancelURL, body.Map("redirect_urls").String("cancel_url"))

	txs := body.Slice("transactions")
	require.Len(t, txs, 1)
	tx := payment.AsFields(txs[0])
	assert.Equal(t, "19.99", tx.Map("amount").String("total"))
	assert.Equal(t, "USD", tx.Map("amount").String("currency"))
	assert.Equal(t, "Order #42", tx.String("description"))
	assert.Equal(t, "INV-42", tx.String("invoice_number"))

	items := tx.Map("item_list").Slice("items")
	require.Len(t, items, 2)
	first, second := payment.AsFields(items[0]), payment.AsFields(items[1])
	assert.Equal(t, "9.99", first.String("price"))
	assert.Equal(t, "USD", first.String("currency"))
	assert.Equal(t, "1", first.String("quantity"))
	assert.Equal(t, "W-1", first.String("sku"))
	assert.Equal(t, "10.00", second.String("price"))
	assert.Equal(t, "EUR", second.String("currency"))
	assert.Equal(t, "2", second.String("quantity"))
	sku, present := second["sku"]
	assert.True(t, present)
	assert.Nil(t, sku)
}

func TestCreatePayment_UsesConfiguredRedirects(t *testing.T) {
	f := newFakePayPal(t)
	cfg := f.config()
	cfg.ReturnURL = "https://shop.test/ok"
	cfg.CancelURL = "https://shop.test/cancel"
	c, err := NewClient(cfg)
	require.NoError(t, err)

	_, err = c.CreatePayment(context.Background(), payment.Fields{"amount": 100, "currency": "usd", "description": "x"})
	require.NoError(t, err)

	urls := payment.Fields(f.lastRequest().Body).Map("redirect_urls")
	assert.Equal(t, "https://shop.test/ok", urls.String("return_url"))
	assert.Equal(t, "https://shop.test/cancel", urls.String("cancel_url"))
}

func TestCreatePayment_EmptyItemList(t *testing.T) {
	f := newFakePayPal(t)
	_, err := f.client().CreatePayment(context.Background(), payment.Fields{"amount": 100, "currency": "usd", "description": "x"})
	require.NoError(t, err)

	tx := payment.AsFields(payment.Fields(f.lastRequest().Body).Slice("transactions")[0])
	items, ok := tx.Map("item_list")["items"].([]any)
	require.True(t, ok)
	assert.Empty(t, items)
	assert.False(t, tx.Map("item_list").Has("shipping_address"))
	assert.False(t, tx.Has("invoice_number"))
}

func TestCreatePayment_TruncatesDescription(t *testing.T) {
	f := newFakePayPal(t)
	_, err := f.client().CreatePayment(context.Background(), payment.Fields{
		"amount":      500,
		"currency":    "usd",
		"description": strings.Repeat("d", 300),
	})
	require.NoError(t, err)

	tx := payment.AsFields(payment.Fields(f.lastRequest().Body).Slice("transactions")[0])
	assert.Len(t, tx.String("description"), 127)
}

func TestCreatePayment_ValidationMakesNoCalls(t *testing.T) {
	tests := []struct {
		name  string
		data  payment.Fields
		field string
	}{
		{"zero amount", payment.Fields{"amount": 0, "currency": "usd", "description": "x"}, "amount"},
		{"negative amount", payment.Fields{"amount": -5, "currency": "usd", "description": "x"}, "amount"},
		{"non numeric amount", payment.Fields{"amount": "ten", "currency": "usd", "description": "x"}, "amount"},
		{"nan amount", payment.Fields{"amount": math.NaN(), "currency": "usd", "description": "x"}, "amount"},
		{"infinite amount", payment.Fields{"amount": math.Inf(1), "currency": "usd", "description": "x"}, "amount"},
		{"huge exponent amount", payment.Fields{"amount": json.Number("1e100000000"), "currency": "usd", "description": "x"}, "amount"},
		{"missing amount", payment.Fields{"currency": "usd", "description": "x"}, "amount"},
		{"missing currency", payment.Fields{"amount": 100, "description": "x"}, "currency"},
		{"missing description", payment.Fields{"amount": 100, "currency": "usd"}, "description"},
		{"bad item price", payment.Fields{"amount": 100, "currency": "usd", "description": "x", "items": []any{map[string]any{"price": "abc"}}}, "items[0].price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakePayPal(t)

			_, err := f.client().CreatePayment(context.Background(), tt.data)
			require.Error(t, err)

			var vErr *domainErrors.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
			assert.Zero(t, f.tokenCalls.Load())
			assert.Empty(t, f.recorded())
		})
	}
}

func TestCapturePayment(t *testing.T) {
	f := newFakePayPal(t)
	_, err := f.client().CapturePayment(context.Background(), "PAY-9")
	require.NoError(t, err)

	req := f.lastRequest()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/payments/payment/PAY-9/capture", req.Path)
}

func TestExecutePayment(t *testing.T) {
	f := newFakePayPal(t)
	_, err := f.client().ExecutePayment(context.Background(), "PAY-9", "PAYER-1")
	require.NoError(t, err)

	req := f.lastRequest()
	assert.Equal(t, "/v1/payments/payment/PAY-9/execute", req.Path)
	assert.Equal(t, map[string]any{"payer_id": "PAYER-1"}, req.Body)
}

func TestRefundPayment_PassesBodyThrough(t *testing.T) {
	f := newFakePayPal(t)
	refund := payment.Fields{"amount": map[string]any{"total": "5.00", "currency": "USD"}}

	_, err := f.client().RefundPayment(context.Background(), "SALE-1", refund)
	require.NoError(t, err)

	req := f.lastRequest()
	assert.Equal(t, "/v1/payments/sale/SALE-1/refund", req.Path)
	assert.Equal(t, map[string]any{"amount": map[string]any{"total": "5.00", "currency": "USD"}}, req.Body)
}

func TestEmptyIDsAreRejected(t *testing.T) {
	f := newFakePayPal(t)
	c := f.client()

	_, err := c.CapturePayment(context.Background(), " ")
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)
	_, err = c.RefundPayment(context.Background(), "", nil)
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)
	_, err = c.ExecutePayment(context.Background(), "PAY-1", "")
	assert.ErrorIs(t, err, domainErrors.ErrValidationFailed)

	assert.Zero(t, f.tokenCalls.Load())
}

func TestAPIErrorCarriesStatusAndBody(t *testing.T) {
	f := newFakePayPal(t)
	f.respond(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"name": "VALIDATION_ERROR"})
	})

	_, err := f.client().CapturePayment(context.Background(), "PAY-1")
	require.Error(t, err)

	var apiErr *domainErrors.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	var body map[string]any
	require.NoError(t, json.Unmarshal(apiErr.Body, &body))
	assert.Equal(t, "VALIDATION_ERROR", body["name"])
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, LiveBaseURL, BaseURL(config.PayPalConfig{}))
	sandbox := config.PayPalConfig{}
	sandbox.Sandbox = true
	assert.Equal(t, SandboxBaseURL, BaseURL(sandbox))
	override := sandbox
	override.BaseURL = "http://localhost:9999"
	assert.Equal(t, "http://localhost:9999", BaseURL(override))
}
