package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRequestIDMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		kept     bool
	}{
		{name: "generates id", incoming: ""},
		{name: "keeps incoming id", incoming: "req-123", kept: true},
		{name: "keeps uuid", incoming: "0b9c3f7e-4a51-4b8e-9d8e-2f1f6a0c7d11", kept: true},
		{name: "replaces id with spaces", incoming: "req 123 injected=1"},
		{name: "replaces id with control characters", incoming: "req\x01id"},
		{name: "replaces overlong id", incoming: strings.Repeat("a", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.NotEmpty(t, seen)
			assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
			if tt.kept {
				assert.Equal(t, tt.incoming, seen)
			} else {
				assert.NotEqual(t, tt.incoming, seen)
				_, err := uuid.Parse(seen)
				assert.NoError(t, err)
			}
		})
	}

	assert.Empty(t, GetRequestID(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/courses", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "panic recovered", logs.All()[0].Message)
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []string
		origin          string
		method          string
		expectedOrigin  string
		expectedStatus  int
		expectedCreds   string
		preflightHeader bool
	}{
		{
			name:           "wildcard",
			allowed:        []string{"*"},
			origin:         "http://example.com",
			method:         http.MethodGet,
			expectedOrigin: "*",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "listed origin",
			allowed:        []string{"http://a.test", "http://b.test"},
			origin:         "http://B.test",
			method:         http.MethodGet,
			expectedOrigin: "http://B.test",
			expectedStatus: http.StatusOK,
			expectedCreds:  "true",
		},
		{
			name:           "origin not allowed",
			allowed:        []string{"http://a.test"},
			origin:         "http://evil.test",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:            "preflight",
			allowed:         []string{"http://a.test"},
			origin:          "http://a.test",
			method:          http.MethodOptions,
			expectedOrigin:  "http://a.test",
			expectedStatus:  http.StatusNoContent,
			expectedCreds:   "true",
			preflightHeader: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORSMiddleware(tt.allowed)(okHandler)

			req := httptest.NewRequest(tt.method, "/api/courses", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.preflightHeader {
				req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectedOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.expectedCreds, w.Header().Get("Access-Control-Allow-Credentials"))
		})
	}
}

func TestRequestSizeLimitMiddleware(t *testing.T) {
	handler := RequestSizeLimitMiddleware(10)(okHandler)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("small")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("far too large body")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeadersMiddleware(okHandler).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
}

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		expectedLevel zapcore.Level
	}{
		{name: "success", status: http.StatusOK, expectedLevel: zapcore.InfoLevel},
		{name: "client error", status: http.StatusNotFound, expectedLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, expectedLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := LoggerMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))

			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/courses?x=1", nil))

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.expectedLevel, entry.Level)
			fields := entry.ContextMap()
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/courses", fields["path"])
			assert.Equal(t, "x=1", fields["query"])
			assert.Equal(t, int64(tt.status), fields["status"])
		})
	}
}

type recordedRequest struct {
	method string
	route  string
	status int
}

type mockHTTPMetrics struct {
	requests []recordedRequest
}

func (m *mockHTTPMetrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.requests = append(m.requests, recordedRequest{method: method, route: route, status: status})
}

func TestMetricsMiddleware(t *testing.T) {
	metrics := &mockHTTPMetrics{}
	r := chi.NewRouter()
	r.Use(MetricsMiddleware(metrics))
	r.Get("/api/courses/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/courses/5", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	require.Len(t, metrics.requests, 2)
	assert.Equal(t, recordedRequest{method: "GET", route: "/api/courses/{id}", status: http.StatusTeapot}, metrics.requests[0])
	assert.Equal(t, "unmatched", metrics.requests[1].route)
	assert.Equal(t, http.StatusNotFound, metrics.requests[1].status)
}
