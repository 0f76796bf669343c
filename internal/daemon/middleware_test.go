package daemon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/google/uuid"
)

func TestGetCorrelationID(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want string
	}{
		{"set", context.WithValue(context.Background(), CorrelationIDKey, "req-123"), "req-123"},
		{"missing", context.Background(), ""},
		{"wrong type", context.WithValue(context.Background(), CorrelationIDKey, 12345), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCorrelationID(tt.ctx); got != tt.want {
				t.Errorf("GetCorrelationID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCorrelationIDMiddleware_GeneratesID(t *testing.T) {
	var capturedID string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetCorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/lessons", nil))

	if _, err := uuid.Parse(capturedID); err != nil {
		t.Errorf("generated ID %q is not a UUID: %v", capturedID, err)
	}
	if got := rec.Header().Get(CorrelationIDHeader); got != capturedID {
		t.Errorf("response header = %q, want %q", got, capturedID)
	}
}

func TestCorrelationIDMiddleware_PropagatesExistingID(t *testing.T) {
	var capturedID string
	handler := correlationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedID = GetCorrelationID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/lessons", nil)
	req.Header.Set(CorrelationIDHeader, "client-supplied")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if capturedID != "client-supplied" {
		t.Errorf("correlation ID = %q, want client-supplied", capturedID)
	}
}

func TestLoggingMiddleware_CapturesStatusCode(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
		handler := loggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/status", nil))

		if rec.Code != status {
			t.Errorf("status = %d, want %d", rec.Code, status)
		}
	}
}

func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	handler := recoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/sessions", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func newTestLimiter(t *testing.T, burst int) ratelimit.RateLimiter {
	t.Helper()
	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     1,
		Burst:    burst,
		Interval: time.Hour,
	})
	t.Cleanup(func() { limiter.Close() })
	return limiter
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := rateLimitMiddleware(newTestLimiter(t, 2), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remoteAddr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/v1/lessons", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send("10.0.0.1:5000"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := send("10.0.0.1:5001")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}

	// Other clients have their own budget
	if rec := send("10.0.0.2:5000"); rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", rec.Code)
	}
}

func TestRateLimitMiddleware_HealthExempt(t *testing.T) {
	handler := rateLimitMiddleware(newTestLimiter(t, 1), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/health", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("health request %d: status = %d, want 200", i, rec.Code)
		}
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "127.0.0.1:1", "203.0.113.7"},
		{"forwarded single", map[string]string{"X-Forwarded-For": "203.0.113.8"}, "127.0.0.1:1", "203.0.113.8"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.2"}, "127.0.0.1:1", "198.51.100.2"},
		{"remote addr", nil, "192.0.2.10:4312", "192.0.2.10"},
		{"remote without port", nil, "192.0.2.11", "192.0.2.11"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
