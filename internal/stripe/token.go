package stripe

import (
	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
)

// TokenProvider selects the secret key for the configured mode. Stripe keys
// are static, so nothing is fetched or cached.
type TokenProvider struct {
	cfg config.StripeConfig
}

func NewTokenProvider(cfg config.StripeConfig) (*TokenProvider, error) {
	if cfg.SelectedKey() == "" {
		key := "stripe.api_key"
		if cfg.Sandbox {
			key = "stripe.sandbox_api_key"
		}
		return nil, domainErrors.NewConfigurationError(key, "secret key is required")
	}
	return &TokenProvider{cfg: cfg}, nil
}

func (p *TokenProvider) AccessToken() string {
	return p.cfg.SelectedKey()
}
