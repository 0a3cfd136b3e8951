package reminder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type MockRunner struct {
	RunFunc func(ctx context.Context) (*Summary, error)
	called  bool
}

func (m *MockRunner) Run(ctx context.Context) (*Summary, error) {
	m.called = true
	return m.RunFunc(ctx)
}

func TestHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		secret         string
		auth           string
		summary        *Summary
		err            error
		expectedStatus int
		expectedBody   string
		expectRun      bool
	}{
		{
			name:           "Nothing To Do",
			summary:        &Summary{Message: MsgNoAppointments},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"message":"No appointments to remind"}`,
			expectRun:      true,
		},
		{
			name: "Processed",
			summary: &Summary{Processed: 1, Results: []Result{
				{Appointment: "appt_1", Subscription: "sub_1", Success: true},
				{Appointment: "appt_1", Subscription: "sub_2", Error: "push service responded 503"},
			}},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"processed":1,"results":[{"appt":"appt_1","success":true},{"appt":"appt_1","success":false,"error":"push service responded 503"}]}`,
			expectRun:      true,
		},
		{
			name:           "Fetch Failure",
			err:            errors.New("fetch eligible appointments: timeout"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"error":"fetch eligible appointments: timeout"}`,
			expectRun:      true,
		},
		{
			name:           "Missing Cron Secret",
			secret:         "cron-secret",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error"`,
		},
		{
			name:           "Wrong Cron Secret",
			secret:         "cron-secret",
			auth:           "Bearer nope",
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error"`,
		},
		{
			name:           "Valid Cron Secret",
			secret:         "cron-secret",
			auth:           "Bearer cron-secret",
			summary:        &Summary{Message: MsgNoAppointments},
			expectedStatus: http.StatusOK,
			expectedBody:   `"message"`,
			expectRun:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &MockRunner{RunFunc: func(ctx context.Context) (*Summary, error) {
				return tt.summary, tt.err
			}}
			h := NewHandler(runner, tt.secret)

			req := httptest.NewRequest(http.MethodGet, "/api/send-reminders", nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.expectedBody) {
				t.Errorf("Expected body to contain '%s', got '%s'", tt.expectedBody, w.Body.String())
			}
			if runner.called != tt.expectRun {
				t.Errorf("Expected run %v, got %v", tt.expectRun, runner.called)
			}
		})
	}
}
