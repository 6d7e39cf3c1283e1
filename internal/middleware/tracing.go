package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request. The span is renamed to the chi
// route pattern once routing has completed, e.g.
// "POST /api/v1/payments/{id}/capture" rather than the raw path.
func Tracing() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		named := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			trace.SpanFromContext(r.Context()).SetName(operationName(r))
		})
		return otelhttp.NewHandler(named, "http.server",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return operationName(r)
			}),
		)
	}
}

func operationName(r *http.Request) string {
	return r.Method + " " + routePattern(r)
}

// routePattern falls back to the request path when chi has not matched.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
