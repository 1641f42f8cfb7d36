package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"appraisal/internal/platform/metrics"
)

// Metrics records each request under its chi route pattern so path
// parameters do not explode label cardinality.
func Metrics(collector *metrics.Collector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if collector == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			collector.ObserveRequest(r.Method, route, recorder.status, time.Since(start))
		})
	}
}
