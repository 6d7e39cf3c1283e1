package controller

import (
	"net/http"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
)

type HealthController struct {
	provider payment.Provider
}

func NewHealthController(provider payment.Provider) *HealthController {
	return &HealthController{provider: provider}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Provider: string(h.provider)})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "alive"})
}

// Readiness reports whether a provider gateway has been wired. It does not
// call the provider.
func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.provider == "" {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ready", Provider: string(h.provider)})
}
