package paypal

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/httpclient"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	tokenPath = "/v1/oauth2/token"
	// expirySkew is subtracted from expires_in so a token is never used right
	// at the edge of its lifetime.
	expirySkew = 60 * time.Second
)

// Clock abstracts time for token expiry checks.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the real system time.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Token is a cached bearer credential.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

func (t Token) validAt(now time.Time) bool {
	return t.Value != "" && now.Before(t.ExpiresAt)
}

// TokenProvider exchanges client credentials for a bearer token and caches it
// until shortly before it expires.
type TokenProvider struct {
	clientID     string
	clientSecret string
	http         *httpclient.Client
	clock        Clock
	logger       zerolog.Logger
	metrics      *observability.Metrics

	mu    sync.Mutex
	token Token
	group singleflight.Group
}

type TokenOption func(*TokenProvider)

func WithTokenClock(c Clock) TokenOption {
	return func(p *TokenProvider) { p.clock = c }
}

func WithTokenLogger(l zerolog.Logger) TokenOption {
	return func(p *TokenProvider) { p.logger = l }
}

func WithTokenMetrics(m *observability.Metrics) TokenOption {
	return func(p *TokenProvider) { p.metrics = m }
}

func NewTokenProvider(cfg config.PayPalConfig, hc *httpclient.Client, opts ...TokenOption) (*TokenProvider, error) {
	if cfg.ClientID == "" {
		return nil, domainErrors.NewConfigurationError("paypal.client_id", "client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, domainErrors.NewConfigurationError("paypal.client_secret", "client secret is required")
	}

	p := &TokenProvider{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		http:         hc,
		clock:        SystemClock{},
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// AccessToken returns the cached token or fetches a new one. Concurrent
// callers on a cold cache share a single OAuth exchange.
func (p *TokenProvider) AccessToken(ctx context.Context) (string, error) {
	if tok, ok := p.cached(); ok {
		return tok, nil
	}

	v, err, _ := p.group.Do("token", func() (any, error) {
		if tok, ok := p.cached(); ok {
			return tok, nil
		}
		tok, err := p.fetch(ctx)
		if err != nil {
			p.recordRefresh("failure")
			return "", err
		}
		p.recordRefresh("success")

		p.mu.Lock()
		p.token = tok
		p.mu.Unlock()
		return tok.Value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token; the next AccessToken call refetches.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	p.token = Token{}
	p.mu.Unlock()
}

func (p *TokenProvider) cached() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.token.validAt(p.clock.Now()) {
		return p.token.Value, true
	}
	return "", false
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	ExpiresIn   json.Number `json:"expires_in"`
}

func (p *TokenProvider) fetch(ctx context.Context) (Token, error) {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Accept-Language", "en_US")
	headers.Set("Content-Type", "application/x-www-form-urlencoded")
	headers.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(p.clientID+":"+p.clientSecret)))

	resp, err := p.http.Do(ctx, httpclient.Request{
		Method:  http.MethodPost,
		Path:    tokenPath,
		Body:    []byte("grant_type=client_credentials"),
		Headers: headers,
	})
	if err != nil {
		return Token{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, domainErrors.NewAuthError(providerName, resp.StatusCode, string(resp.Body))
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return Token{}, domainErrors.NewAuthError(providerName, resp.StatusCode, "invalid token response: "+err.Error())
	}
	if body.AccessToken == "" || body.ExpiresIn == "" {
		return Token{}, domainErrors.NewAuthError(providerName, resp.StatusCode, "invalid token response: missing access_token or expires_in")
	}
	expiresIn, err := body.ExpiresIn.Int64()
	if err != nil {
		return Token{}, domainErrors.NewAuthError(providerName, resp.StatusCode, "invalid token response: expires_in is not an integer")
	}

	now := p.clock.Now()
	tok := Token{
		Value:     body.AccessToken,
		ExpiresAt: now.Add(time.Duration(expiresIn)*time.Second - expirySkew),
	}

	p.logger.Debug().
		Time("expires_at", tok.ExpiresAt).
		Msg("fetched PayPal access token")

	return tok, nil
}

func (p *TokenProvider) recordRefresh(status string) {
	if p.metrics == nil {
		return
	}
	p.metrics.TokenRefreshes.WithLabelValues(providerName, status).Inc()
}
