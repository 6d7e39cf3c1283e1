package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cassiomorais/unifiedpay/internal/infrastructure/idempotency"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingHandler(status int, calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(`{"id":"PAY-1"}`))
	})
}

func post(h http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIdempotency_Replays(t *testing.T) {
	calls := 0
	h := Idempotency(idempotency.NewMemoryStore(), time.Hour)(countingHandler(http.StatusCreated, &calls))

	first := post(h, "/api/v1/payments", "key-1")
	second := post(h, "/api/v1/payments", "key-1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestIdempotency_ScopedToPath(t *testing.T) {
	calls := 0
	h := Idempotency(idempotency.NewMemoryStore(), time.Hour)(countingHandler(http.StatusOK, &calls))

	post(h, "/api/v1/payments/A/capture", "key-1")
	post(h, "/api/v1/payments/B/capture", "key-1")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_WithoutKey(t *testing.T) {
	calls := 0
	h := Idempotency(idempotency.NewMemoryStore(), time.Hour)(countingHandler(http.StatusCreated, &calls))

	post(h, "/api/v1/payments", "")
	post(h, "/api/v1/payments", "")

	assert.Equal(t, 2, calls)
}

func TestIdempotency_ServerErrorsNotRecorded(t *testing.T) {
	calls := 0
	h := Idempotency(idempotency.NewMemoryStore(), time.Hour)(countingHandler(http.StatusBadGateway, &calls))

	post(h, "/api/v1/payments", "key-1")
	w := post(h, "/api/v1/payments", "key-1")

	assert.Equal(t, 2, calls)
	assert.Empty(t, w.Header().Get("X-Idempotency-Replayed"))
}

func TestIdempotency_ScopedToSubject(t *testing.T) {
	var mu sync.Mutex
	var owners []string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ := GetSubject(r.Context())
		mu.Lock()
		owners = append(owners, subject)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"owner":"` + subject + `"}`))
	})
	h := RequireAuth(testJWTSecret)(Idempotency(idempotency.NewMemoryStore(), time.Hour)(handler))

	send := func(subject string) *httptest.ResponseRecorder {
		token := signToken(t, jwt.SigningMethodHS256, []byte(testJWTSecret), Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "order-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	a := send("merchant-a")
	b := send("merchant-b")
	again := send("merchant-a")

	assert.Equal(t, []string{"merchant-a", "merchant-b"}, owners)
	assert.JSONEq(t, `{"owner":"merchant-a"}`, a.Body.String())
	assert.JSONEq(t, `{"owner":"merchant-b"}`, b.Body.String())
	assert.Empty(t, b.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, "true", again.Header().Get("X-Idempotency-Replayed"))
	assert.JSONEq(t, `{"owner":"merchant-a"}`, again.Body.String())
}

func TestIdempotency_InFlightKeyConflicts(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	calls := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		close(entered)
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"PAY-1"}`))
	})
	h := Idempotency(idempotency.NewMemoryStore(), time.Hour)(handler)

	done := make(chan *httptest.ResponseRecorder)
	go func() { done <- post(h, "/api/v1/payments", "key-1") }()
	<-entered

	conflict := post(h, "/api/v1/payments", "key-1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
	assert.JSONEq(t, `{"error":"a request with this idempotency key is already in progress","code":"idempotency_in_flight"}`, conflict.Body.String())

	close(release)
	first := <-done
	require.Equal(t, http.StatusCreated, first.Code)

	replayed := post(h, "/api/v1/payments", "key-1")
	assert.Equal(t, http.StatusCreated, replayed.Code)
	assert.Equal(t, "true", replayed.Header().Get("X-Idempotency-Replayed"))
	assert.Equal(t, 1, calls)
}

func TestIdempotency_ReservationReleasedAfterServerError(t *testing.T) {
	calls := 0
	store := idempotency.NewMemoryStore()
	h := Idempotency(store, time.Hour)(countingHandler(http.StatusBadGateway, &calls))

	post(h, "/api/v1/payments", "key-1")
	w := post(h, "/api/v1/payments", "key-1")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, 2, calls)
}
