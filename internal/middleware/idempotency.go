package middleware

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/cassiomorais/unifiedpay/internal/infrastructure/idempotency"
	"github.com/rs/zerolog/log"
)

const (
	maxIdempotencyBodySize = 1 << 20

	// inFlightTTL outlives the router timeout so a reservation cannot lapse
	// while its request is still running.
	inFlightTTL = 2 * time.Minute
)

// Idempotency replays the recorded response for a repeated Idempotency-Key.
// Keys are scoped to the authenticated subject, method and path, so one key
// cannot replay another caller's response or a different endpoint. A key
// already being processed answers 409. 5xx responses are not recorded.
func Idempotency(store idempotency.Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			subject, _ := GetSubject(r.Context())
			scoped := subject + " " + r.Method + " " + r.URL.Path + " " + key

			if replay(w, r, store, scoped) {
				return
			}

			token, reserved, err := store.Reserve(r.Context(), scoped, inFlightTTL)
			switch {
			case err != nil:
				log.Warn().Err(err).Str("idempotency_key", key).Msg("idempotency reservation failed")
			case !reserved:
				writeError(w, http.StatusConflict, "a request with this idempotency key is already in progress", "idempotency_in_flight")
				return
			default:
				defer func() {
					if err := store.Release(context.WithoutCancel(r.Context()), scoped, token); err != nil {
						log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency reservation")
					}
				}()
				// The previous holder may have finished between lookup and reservation.
				if replay(w, r, store, scoped) {
					return
				}
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 200 && rec.statusCode < 500 && !rec.bodyTruncated {
				now := time.Now()
				err := store.Set(r.Context(), &idempotency.Entry{
					Key:            scoped,
					ResponseBody:   rec.body.Bytes(),
					ResponseStatus: rec.statusCode,
					CreatedAt:      now,
					ExpiresAt:      now.Add(ttl),
				})
				if err != nil {
					log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to record idempotent response")
				}
			}
		})
	}
}

// replay writes the recorded response for scoped, if any.
func replay(w http.ResponseWriter, r *http.Request, store idempotency.Store, scoped string) bool {
	entry, err := store.Get(r.Context(), scoped)
	if err != nil {
		log.Warn().Err(err).Msg("idempotency lookup failed")
	}
	if entry == nil {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Idempotency-Replayed", "true")
	w.WriteHeader(entry.ResponseStatus)
	_, _ = w.Write(entry.ResponseBody)
	return true
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
