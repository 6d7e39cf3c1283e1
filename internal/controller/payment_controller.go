package controller

import (
	"context"
	"net/http"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/gateway"
	"github.com/go-chi/chi/v5"
)

// PaymentExecutor completes an approved payment. Only PayPal supports it.
type PaymentExecutor interface {
	ExecutePaymentIntent(ctx context.Context, paymentID, payerID string) (*payment.Response, error)
}

// PaymentController handles payment and subscription requests through the
// unified gateway.
type PaymentController struct {
	gateway  gateway.Gateway
	executor PaymentExecutor
	provider payment.Provider
}

// NewPaymentController creates a new PaymentController. executor may be nil.
func NewPaymentController(g gateway.Gateway, executor PaymentExecutor, provider payment.Provider) *PaymentController {
	return &PaymentController{gateway: g, executor: executor, provider: provider}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentController) CreatePayment(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := validateCurrency(fields); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.gateway.CreatePaymentIntent(r.Context(), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, h.provider, resp)
}

// CapturePayment handles POST /api/v1/payments/{id}/capture
func (h *PaymentController) CapturePayment(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gateway.CapturePaymentIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, h.provider, resp)
}

// ExecutePayment handles POST /api/v1/payments/{id}/execute
func (h *PaymentController) ExecutePayment(w http.ResponseWriter, r *http.Request) {
	if h.executor == nil {
		writeError(w, r, domainErrors.NewDomainError("unsupported_operation",
			"payment execution is not supported by provider "+string(h.provider), nil))
		return
	}

	var req ExecutePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.executor.ExecutePaymentIntent(r.Context(), chi.URLParam(r, "id"), req.PayerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, h.provider, resp)
}

// RefundPayment handles POST /api/v1/payments/{id}/refund
func (h *PaymentController) RefundPayment(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.gateway.RefundPayment(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, h.provider, resp)
}

// CreateSubscription handles POST /api/v1/subscriptions
func (h *PaymentController) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.gateway.CreateSubscription(r.Context(), fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, h.provider, resp)
}

// CancelSubscription handles POST /api/v1/subscriptions/{id}/cancel
func (h *PaymentController) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	resp, err := h.gateway.CancelSubscription(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, h.provider, resp)
}
