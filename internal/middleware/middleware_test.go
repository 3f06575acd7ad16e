package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/studiopass/internal/auth"
)

func TestRequireStaff(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	tokens := auth.StaffTokens{"marie": string(hash)}

	var gotStaff string
	handler := RequireStaff(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStaff = auth.StaffID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer marie:s3cret", http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic marie:s3cret", http.StatusUnauthorized},
		{"wrong secret", "Bearer marie:nope", http.StatusUnauthorized},
		{"unknown staff", "Bearer paul:s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotStaff = ""
			req := httptest.NewRequest("GET", "/api/stats", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && gotStaff != "marie" {
				t.Errorf("staff = %q, want marie", gotStaff)
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	c := CORS{
		Methods: []string{"POST", "OPTIONS"},
		Headers: []string{"Content-Type", "Stripe-Signature"},
	}

	req := httptest.NewRequest("OPTIONS", "/webhook", nil)
	rec := httptest.NewRecorder()
	c.Preflight(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "POST, OPTIONS" {
		t.Errorf("allow methods = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type, Stripe-Signature" {
		t.Errorf("allow headers = %q", got)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var seenID string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(http.StatusConflict)
	}))

	req := httptest.NewRequest("POST", "/api/owners/alice/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seenID == "" {
		t.Error("expected request id in context")
	}
	if rec.Header().Get("X-Request-ID") != seenID {
		t.Errorf("header id = %q, want %q", rec.Header().Get("X-Request-ID"), seenID)
	}
	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "status=409") {
		t.Errorf("log = %q, want WARN with status=409", out)
	}
}
