package authn

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func signToken(t *testing.T, secret string, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func TestVerifier_Middleware(t *testing.T) {
	valid := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "user_123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	expired := signToken(t, testSecret, jwt.RegisteredClaims{
		Subject:   "user_123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	wrongKey := signToken(t, "another-secret-another-secret-another", jwt.RegisteredClaims{
		Subject:   "user_123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	noSubject := signToken(t, testSecret, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedID     string
	}{
		{"Valid Token", "Bearer " + valid, http.StatusOK, "user_123"},
		{"Missing Header", "", http.StatusUnauthorized, ""},
		{"Wrong Scheme", "Basic " + valid, http.StatusUnauthorized, ""},
		{"Expired Token", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"Wrong Signing Key", "Bearer " + wrongKey, http.StatusUnauthorized, ""},
		{"No Subject", "Bearer " + noSubject, http.StatusUnauthorized, ""},
	}

	v := NewVerifier(testSecret)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = AccountFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			v.Middleware(next).ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if gotID != tt.expectedID {
				t.Errorf("Expected account %q, got %q", tt.expectedID, gotID)
			}
		})
	}
}
