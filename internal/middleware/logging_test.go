package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// serveLogged runs req through the logging middleware and returns the log output.
func serveLogged(t *testing.T, req *http.Request, handler http.HandlerFunc) (string, *httptest.ResponseRecorder) {
	t.Helper()

	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(slog.New(slog.NewTextHandler(&buf, nil)))

	rec := httptest.NewRecorder()
	mw.Handler(handler).ServeHTTP(rec, req)

	return buf.String(), rec
}

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequestLoggingMiddleware_LogsBasicInfo(t *testing.T) {
	req := httptest.NewRequest("GET", "/accounts", nil)
	req.RemoteAddr = "192.168.1.1:1234"
	req.Header.Set("User-Agent", "Mozilla/5.0 TestBrowser")

	logOutput, _ := serveLogged(t, req, ok)

	for _, want := range []string{"GET", "/accounts", "status=200", "duration_ms", "192.168.1.1", "TestBrowser"} {
		if !strings.Contains(logOutput, want) {
			t.Errorf("log should contain %q, got: %s", want, logOutput)
		}
	}
}

func TestRequestLoggingMiddleware_LogsClientIP(t *testing.T) {
	req := httptest.NewRequest("POST", "/webhooks/twitter", nil)
	req.RemoteAddr = "10.0.0.1:8080"
	req.Header.Set("X-Forwarded-For", "203.0.113.195")

	logOutput, _ := serveLogged(t, req, ok)

	if !strings.Contains(logOutput, "203.0.113.195") {
		t.Errorf("log should contain client IP from X-Forwarded-For, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_LogsErrorStatusAtWarn(t *testing.T) {
	logOutput, _ := serveLogged(t, httptest.NewRequest("POST", "/webhooks/twitter", nil),
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

	if !strings.Contains(logOutput, "status=500") {
		t.Errorf("log should contain 500 status, got: %s", logOutput)
	}
	if !strings.Contains(logOutput, "level=WARN") {
		t.Errorf("5xx should log at WARN level, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_RedactsSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		secret string
		keep   string
	}{
		{"crc challenge", "/webhooks/twitter?crc_token=challenge123", "challenge123", "/webhooks/twitter?crc_token=[REDACTED]"},
		{"csrf", "/locale?csrf_token=formtoken&locale=ar", "formtoken", "locale=ar"},
		{"uppercase key", "/x?TOKEN=abc123secret", "abc123secret", "TOKEN=[REDACTED]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logOutput, _ := serveLogged(t, httptest.NewRequest("GET", tt.target, nil), ok)

			if strings.Contains(logOutput, tt.secret) {
				t.Errorf("log should NOT contain %q, got: %s", tt.secret, logOutput)
			}
			if !strings.Contains(logOutput, tt.keep) {
				t.Errorf("log should contain %q, got: %s", tt.keep, logOutput)
			}
		})
	}
}

func TestRequestLoggingMiddleware_KeepsRedirectParam(t *testing.T) {
	logOutput, _ := serveLogged(t, httptest.NewRequest("GET", "/logout?redirect=/accounts", nil), ok)

	if !strings.Contains(logOutput, "redirect=/accounts") {
		t.Errorf("log should keep the redirect target, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_PassesRequestThrough(t *testing.T) {
	handlerCalled := false
	_, rec := serveLogged(t, httptest.NewRequest("POST", "/logout", nil),
		func(w http.ResponseWriter, r *http.Request) {
			handlerCalled = true
			w.Header().Set("X-Custom", "value")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte("response body"))
		})

	if !handlerCalled {
		t.Error("handler should have been called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
	if rec.Header().Get("X-Custom") != "value" {
		t.Error("custom header should be preserved")
	}
	if rec.Body.String() != "response body" {
		t.Errorf("response body should be preserved, got: %s", rec.Body.String())
	}
}

func TestRequestLoggingMiddleware_FirstStatusWins(t *testing.T) {
	logOutput, _ := serveLogged(t, httptest.NewRequest("GET", "/missing", nil),
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.WriteHeader(http.StatusOK)
		})

	if !strings.Contains(logOutput, "status=404") {
		t.Errorf("log should contain 404 status, got: %s", logOutput)
	}
}

func TestRequestLoggingMiddleware_ExcludesNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics", "/static/app.css"} {
		t.Run(path, func(t *testing.T) {
			logOutput, _ := serveLogged(t, httptest.NewRequest("GET", path, nil), ok)

			if logOutput != "" {
				t.Errorf("%s should not be logged, got: %s", path, logOutput)
			}
		})
	}
}
