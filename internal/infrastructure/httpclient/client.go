package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultTimeout = 30 * time.Second

// Client issues JSON requests against one provider's REST API.
type Client struct {
	http     *http.Client
	baseURL  string
	provider string
	logger   zerolog.Logger
}

type Option func(*Client)

// WithTimeout bounds every request issued by the client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying client, keeping its transport as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(provider, baseURL string, opts ...Option) *Client {
	c := &Client{
		http: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL:  strings.TrimRight(baseURL, "/"),
		provider: provider,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// Request is a raw outbound call. Body may be nil.
type Request struct {
	Method  string
	Path    string
	Body    []byte
	Headers http.Header
}

// RawResponse is the undecoded reply of Do.
type RawResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// IsSuccess reports a 2xx status.
func (r *RawResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Do sends req and returns the reply whatever its status. Only connection
// level failures are returned as errors (TransportError).
func (c *Client) Do(ctx context.Context, req Request) (*RawResponse, error) {
	op := req.Method + " " + req.Path
	url := c.baseURL + req.Path

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, domainErrors.NewTransportError(c.provider, op, fmt.Errorf("failed to create request: %w", err))
	}
	for k, vs := range req.Headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	c.logger.Debug().
		Str("provider", c.provider).
		Str("method", req.Method).
		Str("url", url).
		Msg("making HTTP request")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Error().
			Str("provider", c.provider).
			Str("url", url).
			Err(err).
			Msg("HTTP request failed")
		return nil, domainErrors.NewTransportError(c.provider, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domainErrors.NewTransportError(c.provider, op, fmt.Errorf("failed to read response body: %w", err))
	}

	c.logger.Debug().
		Str("provider", c.provider).
		Int("status_code", resp.StatusCode).
		Int("body_length", len(respBody)).
		Msg("received HTTP response")

	return &RawResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       respBody,
	}, nil
}

// JSON sends payload (nil for no body) as JSON with the given bearer token and
// decodes the reply. Content-Type is application/json even without a body. A status >= 400 becomes an APIError carrying the body.
func (c *Client) JSON(ctx context.Context, method, path, bearer string, payload any) (*payment.Response, error) {
	req := Request{
		Method:  method,
		Path:    path,
		Headers: http.Header{},
	}
	req.Headers.Set("Accept", "application/json")
	req.Headers.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Headers.Set("Authorization", "Bearer "+bearer)
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal JSON payload: %w", err)
		}
		req.Body = body
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, domainErrors.NewAPIError(c.provider, resp.StatusCode, resp.Body)
	}
	return payment.NewResponse(resp.StatusCode, resp.Body), nil
}
