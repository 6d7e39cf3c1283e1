package controller

import (
	"encoding/json"
)

// --- Request DTOs ---
// Payment and subscription bodies are provider-shaped field sets and are
// decoded into payment.Fields. Only the fixed-shape requests have DTOs.

// ExecutePaymentRequest completes a PayPal payment after buyer approval.
type ExecutePaymentRequest struct {
	PayerID string `json:"payer_id" validate:"required,max=64"`
}

// --- Response DTOs ---

// ErrorResponse represents an error response. Provider rejections carry the
// upstream status and body.
type ErrorResponse struct {
	Error          string          `json:"error"`
	Code           string          `json:"code"`
	Provider       string          `json:"provider,omitempty"`
	ProviderStatus int             `json:"provider_status,omitempty"`
	ProviderBody   json.RawMessage `json:"provider_body,omitempty"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status   string `json:"status"`
	Provider string `json:"provider,omitempty"`
}

// providerBody returns body verbatim when it is JSON and as a JSON string
// otherwise.
func providerBody(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}
