package paypal

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/stretchr/testify/require"
)

// fakePayPal is an httptest server speaking the subset of the PayPal REST
// API the client uses. Non-token requests are recorded.
type fakePayPal struct {
	t   *testing.T
	srv *httptest.Server

	tokenCalls atomic.Int32
	tokenTTL   int
	tokenFail  int

	mu       sync.Mutex
	requests []recordedRequest
	handler  http.HandlerFunc
}

type recordedRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

func newFakePayPal(t *testing.T) *fakePayPal {
	t.Helper()
	f := &fakePayPal{t: t, tokenTTL: 3600}
	f.srv = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakePayPal) serve(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == tokenPath {
		f.tokenCalls.Add(1)
		if f.tokenFail != 0 {
			w.WriteHeader(f.tokenFail)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "client" || pass != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"access_token": "A21AA-token",
			"token_type":   "Bearer",
			"expires_in":   f.tokenTTL,
		})
		return
	}

	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization")}
	if b, _ := io.ReadAll(r.Body); len(b) > 0 {
		require.NoError(f.t, json.Unmarshal(b, &rec.Body))
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	handler := f.handler
	f.mu.Unlock()

	if handler != nil {
		handler(w, r)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": "PAY-1", "state": "created"})
}

func (f *fakePayPal) respond(h http.HandlerFunc) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

func (f *fakePayPal) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakePayPal) lastRequest() recordedRequest {
	reqs := f.recorded()
	require.NotEmpty(f.t, reqs)
	return reqs[len(reqs)-1]
}

func (f *fakePayPal) config() config.PayPalConfig {
	return config.PayPalConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		WebhookID:    "WH-1",
		BaseURL:      f.srv.URL,
	}
}

func (f *fakePayPal) client(opts ...Option) *Client {
	f.t.Helper()
	c, err := NewClient(f.config(), opts...)
	require.NoError(f.t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
