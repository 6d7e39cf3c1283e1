package controller

import (
	"time"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/gateway"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/idempotency"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/observability"
	customMW "github.com/cassiomorais/unifiedpay/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Gateway        gateway.Gateway
	Provider       payment.Provider
	Executor       PaymentExecutor        // nil unless the provider is PayPal
	Disputes       DisputeService         // nil unless the provider is PayPal
	PayPalWebhooks PayPalWebhookDeliverer // nil disables /webhooks/paypal
	StripeWebhooks StripeWebhookDeliverer // nil disables /webhooks/stripe
	Idempotency    idempotency.Store      // nil disables replay
	IdempotencyTTL time.Duration
	Metrics        *observability.Metrics
	Logger         zerolog.Logger
	Server         config.ServerConfig
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(customMW.RequestID())
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(customMW.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key", customMW.RequestIDHeader},
		ExposedHeaders:   []string{customMW.RequestIDHeader, "X-Idempotency-Replayed"},
		AllowCredentials: deps.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))

	healthH := NewHealthController(deps.Provider)
	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Webhooks authenticate through provider signatures, not bearer tokens.
	webhookH := NewWebhookController(deps.PayPalWebhooks, deps.StripeWebhooks)
	if deps.PayPalWebhooks != nil {
		r.Post("/webhooks/paypal", webhookH.PayPal)
	}
	if deps.StripeWebhooks != nil {
		r.Post("/webhooks/stripe", webhookH.Stripe)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.RateLimit(deps.Server.RateLimit))
		r.Use(customMW.RequireAuth(deps.Server.JWTSecret))
		if deps.Idempotency != nil {
			r.Use(customMW.Idempotency(deps.Idempotency, deps.IdempotencyTTL))
		}

		paymentH := NewPaymentController(deps.Gateway, deps.Executor, deps.Provider)

		// Payments
		r.Post("/payments", paymentH.CreatePayment)
		r.Post("/payments/{id}/capture", paymentH.CapturePayment)
		r.Post("/payments/{id}/execute", paymentH.ExecutePayment)
		r.Post("/payments/{id}/refund", paymentH.RefundPayment)

		// Subscriptions
		r.Post("/subscriptions", paymentH.CreateSubscription)
		r.Post("/subscriptions/{id}/cancel", paymentH.CancelSubscription)

		// Disputes
		if deps.Disputes != nil {
			disputeH := NewDisputeController(deps.Disputes)
			r.Get("/disputes", disputeH.List)
			r.Get("/disputes/{id}", disputeH.Get)
			r.Post("/disputes/{id}/accept-claim", disputeH.AcceptClaim)
			r.Post("/disputes/{id}/evidence", disputeH.Respond)
		}
	})

	return r
}
