package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/payflow/internal/infrastructure/metrics"
)

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		path       string
		label      string
		statusCode int
	}{
		{
			name:       "normalizes instruction path",
			method:     http.MethodGet,
			path:       "/payment-instructions/01ABC123",
			label:      "/payment-instructions/:id",
			statusCode: http.StatusNotFound,
		},
		{
			name:       "keeps non-matching path as-is",
			method:     http.MethodPost,
			path:       "/payment-instructions",
			label:      "/payment-instructions",
			statusCode: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := metrics.NewWithRegistry(prometheus.NewRegistry())

			handlerCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				if got := testutil.ToFloat64(m.HTTPInFlight); got != 1 {
					t.Fatalf("expected request to be in flight, got %v", got)
				}
				w.WriteHeader(tc.statusCode)
			})

			rr := httptest.NewRecorder()
			Metrics(m)(next).ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))

			if !handlerCalled {
				t.Fatalf("expected next handler to be called")
			}

			if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues(tc.method, tc.label, strconv.Itoa(tc.statusCode))); got != 1 {
				t.Fatalf("expected one request for %s, got %v", tc.label, got)
			}

			if got := testutil.ToFloat64(m.HTTPInFlight); got != 0 {
				t.Fatalf("expected in-flight gauge back to 0, got %v", got)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := map[string]string{
		"/payment-instructions":             "/payment-instructions",
		"/payment-instructions/":            "/payment-instructions/",
		"/payment-instructions/01ABC":       "/payment-instructions/:id",
		"/payment-instructions/01ABC/extra": "/payment-instructions/:id/extra",
		"/health":                           "/health",
	}

	for in, want := range tests {
		if got := normalizePath(in); got != want {
			t.Fatalf("normalizePath(%q) = %q, want %q", in, got, want)
		}
	}
}
