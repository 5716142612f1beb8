package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iho/payflow/internal/adapter/http/handler"
	redisrepo "github.com/iho/payflow/internal/adapter/repository/redis"
	apimiddleware "github.com/iho/payflow/internal/adapter/http/middleware"
	"github.com/iho/payflow/internal/infrastructure/metrics"
	"github.com/iho/payflow/internal/usecase"
)

const debitBody = `{
	"instruction": "DEBIT 30 USD FROM ACCOUNT a FOR CREDIT TO ACCOUNT b",
	"accounts": [
		{"id": "a", "balance": 230, "currency": "USD"},
		{"id": "b", "balance": 300, "currency": "USD"}
	]
}`

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_ProcessesInstruction(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payment-instructions", strings.NewReader(debitBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"status_code":"AP00"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1, nil)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	req := httptest.NewRequest(http.MethodPost, "/payment-instructions", strings.NewReader(debitBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if !store.updateCalled {
		t.Fatalf("expected successful response to be stored")
	}
}

func TestNewRouter_MetricsEndpoint(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.Metrics = metrics.NewWithRegistry(registry)
		cfg.MetricsGatherer = registry
	}))

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `payflow_http_requests_total{method="GET",path="/health",status="200"} 1`) {
		t.Fatalf("expected health request in exposition, got:\n%s", rec.Body.String())
	}
}

func TestNewRouter_CORSPreflight(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.CORSAllowedOrigins = []string{"https://*"}
	}))

	req := httptest.NewRequest(http.MethodOptions, "/payment-instructions", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("expected origin to be allowed, got %q", got)
	}
}

func TestNewRouter_IdempotentReplayCarriesCallerCORSHeaders(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.CORSAllowedOrigins = []string{"https://*"}
		cfg.IdempotencyStore = redisrepo.NewIdempotencyStore(client)
		cfg.IdempotencyTTL = time.Hour
	}))

	post := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payment-instructions", strings.NewReader(debitBody))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Origin", origin)
		req.Header.Set(apimiddleware.IdempotencyKeyHeader, "cors-key")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := post("https://a.example")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", first.Code, first.Body.String())
	}

	replayed := post("https://b.example")
	if replayed.Header().Get(apimiddleware.IdempotencyReplayHeader) != "true" {
		t.Fatalf("expected a replayed response")
	}
	if got := replayed.Header().Values("Access-Control-Allow-Origin"); len(got) != 1 || got[0] != "https://b.example" {
		t.Fatalf("expected a single allow-origin for the second caller, got %v", got)
	}
	if got := replayed.Header().Values("Vary"); len(got) != 1 {
		t.Fatalf("expected Vary once, got %v", got)
	}
	if replayed.Body.String() != first.Body.String() {
		t.Fatalf("expected replayed body to match, got %s", replayed.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	tests := []struct {
		name        string
		recordReads bool
		expected    []string
		absent      []string
	}{
		{
			name:     "stateless",
			expected: []string{"GET /health", "GET /ready", "POST /payment-instructions/"},
			absent:   []string{"GET /payment-instructions/{id}"},
		},
		{
			name:        "recording",
			recordReads: true,
			expected: []string{
				"POST /payment-instructions/",
				"GET /payment-instructions/",
				"GET /payment-instructions/{id}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
				cfg.RecordReads = tt.recordReads
			}))

			chiRoutes, ok := router.(chi.Router)
			if !ok {
				t.Fatal("router does not implement chi.Routes")
			}

			seen := map[string]bool{}
			if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
				seen[method+" "+route] = true
				return nil
			}); err != nil {
				t.Fatalf("walk failed: %v", err)
			}

			for _, route := range tt.expected {
				if !seen[route] {
					t.Fatalf("expected route %s to be registered, have %v", route, seen)
				}
			}
			for _, route := range tt.absent {
				if seen[route] {
					t.Fatalf("expected route %s not to be registered", route)
				}
			}
		})
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	today := time.Date(2025, 6, 15, 9, 0, 0, 0, time.UTC)
	uc := usecase.NewPaymentInstructionUseCase(zerolog.Nop(), usecase.WithClock(func() time.Time { return today }))

	cfg := RouterConfig{
		InstructionHandler: handler.NewPaymentInstructionHandler(uc),
		HealthHandler:      handler.NewHealthHandler(),
		Logger:             zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
