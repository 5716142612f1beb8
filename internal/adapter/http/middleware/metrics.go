package middleware

import (
	"net/http"
	"strings"
	"time"
)

const instructionsPath = "/payment-instructions"

// HTTPMetrics records served requests.
type HTTPMetrics interface {
	ObserveHTTP(method, path string, status int, duration time.Duration)
	TrackInFlight() func()
}

// Metrics returns middleware that records HTTP metrics.
func Metrics(m HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			done := m.TrackInFlight()
			defer done()

			// Wrap response writer to capture status code
			wrapped := &metricsRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(wrapped, r)

			m.ObserveHTTP(r.Method, normalizePath(r.URL.Path), wrapped.statusCode, time.Since(start))
		})
	}
}

type metricsRecorder struct {
	http.ResponseWriter

	statusCode int
}

func (r *metricsRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths to avoid high cardinality.
// /payment-instructions/01ABC123 -> /payment-instructions/:id
func normalizePath(path string) string {
	rest, ok := strings.CutPrefix(path, instructionsPath+"/")
	if !ok || rest == "" {
		return path
	}

	suffix := ""
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		suffix = rest[i:]
	}

	return instructionsPath + "/:id" + suffix
}
