package controller

import (
	"context"
	"net/http"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/go-chi/chi/v5"
)

// DisputeService is the PayPal customer disputes API.
type DisputeService interface {
	ListDisputes(ctx context.Context) (*payment.Response, error)
	GetDispute(ctx context.Context, disputeID string) (*payment.Response, error)
	AcceptClaim(ctx context.Context, disputeID string) (*payment.Response, error)
	RespondToDispute(ctx context.Context, disputeID string, evidence payment.Fields) (*payment.Response, error)
}

type DisputeController struct {
	disputes DisputeService
}

func NewDisputeController(disputes DisputeService) *DisputeController {
	return &DisputeController{disputes: disputes}
}

// List handles GET /api/v1/disputes
func (h *DisputeController) List(w http.ResponseWriter, r *http.Request) {
	resp, err := h.disputes.ListDisputes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, payment.ProviderPayPal, resp)
}

// Get handles GET /api/v1/disputes/{id}
func (h *DisputeController) Get(w http.ResponseWriter, r *http.Request) {
	resp, err := h.disputes.GetDispute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, payment.ProviderPayPal, resp)
}

// AcceptClaim handles POST /api/v1/disputes/{id}/accept-claim
func (h *DisputeController) AcceptClaim(w http.ResponseWriter, r *http.Request) {
	resp, err := h.disputes.AcceptClaim(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, payment.ProviderPayPal, resp)
}

// Respond handles POST /api/v1/disputes/{id}/evidence
func (h *DisputeController) Respond(w http.ResponseWriter, r *http.Request) {
	evidence, err := decodeFields(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.disputes.RespondToDispute(r.Context(), chi.URLParam(r, "id"), evidence)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeResponse(w, payment.ProviderPayPal, resp)
}
