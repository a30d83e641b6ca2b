package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSMiddleware(t *testing.T) {
	const origin = "http://localhost:3000"
	handler := func(called *bool) http.Handler {
		return NewCORSMiddleware(origin + ", https://psga.example.com/")(okHandler(called))
	}

	t.Run("preflight", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		handler(&called).ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("status = %d, want 204", w.Code)
		}
		if called {
			t.Error("handler should not be called for preflight")
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, X-CSRF-Token" {
			t.Errorf("Allow-Headers = %q", got)
		}
	})

	t.Run("allowed origin", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Origin", "https://psga.example.com")
		w := httptest.NewRecorder()
		handler(&called).ServeHTTP(w, req)

		if !called {
			t.Error("handler should be called")
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://psga.example.com" {
			t.Errorf("Allow-Origin = %q", got)
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("Allow-Credentials = %q", got)
		}
	})

	t.Run("unknown origin", func(t *testing.T) {
		called := false
		req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := httptest.NewRecorder()
		handler(&called).ServeHTTP(w, req)

		if !called {
			t.Error("handler should be called")
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("Allow-Origin = %q, want empty", got)
		}
	})
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		hsts     bool
		wantHSTS bool
	}{
		{false, false},
		{true, true},
	}
	for _, tt := range tests {
		called := false
		w := httptest.NewRecorder()
		NewSecurityHeadersMiddleware(tt.hsts)(okHandler(&called)).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		if w.Header().Get("X-Content-Type-Options") != "nosniff" || w.Header().Get("X-Frame-Options") != "DENY" {
			t.Errorf("missing basic headers: %v", w.Header())
		}
		if got := w.Header().Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
			t.Errorf("hsts=%v: HSTS present = %v", tt.hsts, got)
		}
	}
}

func TestWriteInternalServerError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body.Success || body.Status != "failure" || body.Code != "INTERNAL_ERROR" {
		t.Errorf("body = %+v", body)
	}
}
