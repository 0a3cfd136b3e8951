package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/studiofisyo/ledger/internal/push"
	"github.com/studiofisyo/ledger/internal/reminder"
	"github.com/studiofisyo/ledger/internal/store"
	"github.com/studiofisyo/ledger/pkg/authn"
	"github.com/studiofisyo/ledger/pkg/observability"
)

const testSecret = "super-secret-jwt-token-with-at-least-32-characters"

func bearer(t *testing.T, account string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   account,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return "Bearer " + token
}

type MockRunner struct {
	RunFunc func(ctx context.Context) (*reminder.Summary, error)
}

func (m *MockRunner) Run(ctx context.Context) (*reminder.Summary, error) {
	return m.RunFunc(ctx)
}

type failingStore struct {
	*store.Memory
}

func (failingStore) UpsertSubscription(context.Context, push.Subscription) (push.Subscription, error) {
	return push.Subscription{}, errors.New("db down")
}

func newTestRouter(s *store.Memory) http.Handler {
	runner := &MockRunner{RunFunc: func(context.Context) (*reminder.Summary, error) {
		return &reminder.Summary{Message: reminder.MsgNoAppointments}, nil
	}}
	return setupRoutes(
		reminder.NewHandler(runner, ""),
		&SubscriptionHandler{store: s, logger: observability.Discard()},
		authn.NewVerifier(testSecret),
	)
}

func TestSubscriptionHandler_Upsert(t *testing.T) {
	tests := []struct {
		name           string
		reqBody        string
		auth           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Valid Request",
			reqBody:        `{"endpoint":"https://push.example/1","keys":{"p256dh":"p","auth":"a"}}`,
			auth:           "user_1",
			expectedStatus: http.StatusCreated,
			expectedBody:   `"id":`,
		},
		{
			name:           "Unauthorized",
			reqBody:        `{"endpoint":"https://push.example/1","keys":{"p256dh":"p","auth":"a"}}`,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   "Authentication required",
		},
		{
			name:           "Missing Keys",
			reqBody:        `{"endpoint":"https://push.example/1"}`,
			auth:           "user_1",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "required",
		},
		{
			name:           "Unknown Field",
			reqBody:        `{"endpoint":"https://push.example/1","user_id":"someone_else"}`,
			auth:           "user_1",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "Invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.NewMemory()
			router := newTestRouter(s)

			req := httptest.NewRequest(http.MethodPost, "/api/push/subscriptions", strings.NewReader(tt.reqBody))
			if tt.auth != "" {
				req.Header.Set("Authorization", bearer(t, tt.auth))
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain '%s', got '%s'", tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestSubscriptionHandler_UpsertTwiceOneRow(t *testing.T) {
	s := store.NewMemory()
	router := newTestRouter(s)
	body := `{"endpoint":"https://push.example/1","keys":{"p256dh":"p","auth":"a"}}`

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/push/subscriptions", strings.NewReader(body))
		req.Header.Set("Authorization", bearer(t, "user_1"))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", w.Code)
		}
	}

	if n := len(s.Subscriptions("user_1")); n != 1 {
		t.Errorf("Expected 1 row, got %d", n)
	}
}

func TestSubscriptionHandler_UpsertStoreFailure(t *testing.T) {
	h := &SubscriptionHandler{store: failingStore{store.NewMemory()}, logger: observability.Discard()}
	req := httptest.NewRequest(http.MethodPost, "/api/push/subscriptions",
		strings.NewReader(`{"endpoint":"https://push.example/1","keys":{"p256dh":"p","auth":"a"}}`))
	req = req.WithContext(authn.WithAccount(req.Context(), "user_1"))
	w := httptest.NewRecorder()

	h.Upsert(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestSubscriptionHandler_DeleteScopedToAccount(t *testing.T) {
	s := store.NewMemory()
	s.AddSubscription(push.Subscription{ID: "a", AccountID: "user_1", Endpoint: "https://push.example/1", Keys: push.Keys{P256dh: "p", Auth: "a"}})
	s.AddSubscription(push.Subscription{ID: "b", AccountID: "user_2", Endpoint: "https://push.example/1", Keys: push.Keys{P256dh: "p", Auth: "a"}})
	router := newTestRouter(s)

	req := httptest.NewRequest(http.MethodDelete, "/api/push/subscriptions", strings.NewReader(`{"endpoint":"https://push.example/1"}`))
	req.Header.Set("Authorization", bearer(t, "user_1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", w.Code)
	}
	if n := len(s.Subscriptions("user_1")); n != 0 {
		t.Errorf("Expected user_1 row deleted, got %d", n)
	}
	if n := len(s.Subscriptions("user_2")); n != 1 {
		t.Errorf("Expected user_2 row kept, got %d", n)
	}
}

func TestSubscriptionHandler_DeleteMissingEndpoint(t *testing.T) {
	router := newTestRouter(store.NewMemory())
	req := httptest.NewRequest(http.MethodDelete, "/api/push/subscriptions", strings.NewReader(`{}`))
	req.Header.Set("Authorization", bearer(t, "user_1"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestRoutes(t *testing.T) {
	router := newTestRouter(store.NewMemory())

	tests := []struct {
		method         string
		path           string
		expectedStatus int
		expectedBody   string
	}{
		{http.MethodGet, "/health", http.StatusOK, `"status":"active"`},
		{http.MethodGet, "/api/send-reminders", http.StatusOK, reminder.MsgNoAppointments},
		{http.MethodPost, "/api/send-reminders", http.StatusMethodNotAllowed, ""},
		{http.MethodGet, "/metrics", http.StatusOK, "go_goroutines"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain '%s', got '%s'", tt.expectedBody, w.Body.String())
			}
		})
	}
}
