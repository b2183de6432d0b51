package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/NMReportChecker/internal/infrastructure/monitoring/prometheus"
)

// unmatchedRoute labels requests that no route matched, keeping the route
// label bounded.
const unmatchedRoute = "unmatched"

// Metrics returns middleware that records request counts, latency and the
// in-flight gauge.  Requests are labelled by chi route pattern rather than
// raw path.
func Metrics(m *prometheus.NMRMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			active := m.HTTPActiveRequests.WithLabelValues()
			active.Inc()
			defer active.Dec()

			start := time.Now()
			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			prometheus.RecordHTTPRequest(m, r.Method, routePattern(r), wrapped.statusCode, time.Since(start))
		})
	}
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return unmatchedRoute
}

//Personal.AI order the ending
