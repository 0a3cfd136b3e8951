package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
)

type MockDB struct {
	ExecContextFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (m *MockDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return m.ExecContextFunc(ctx, query, args...)
}

func (m *MockDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, errors.New("not implemented")
}

func (m *MockDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}

type mockResult int64

func (r mockResult) LastInsertId() (int64, error) { return 0, nil }
func (r mockResult) RowsAffected() (int64, error) { return int64(r), nil }

func TestPostgres_ClaimReminder(t *testing.T) {
	tests := []struct {
		name        string
		affected    int64
		execErr     error
		wantClaimed bool
		wantErr     bool
	}{
		{name: "Claimed", affected: 1, wantClaimed: true},
		{name: "Already Claimed", affected: 0, wantClaimed: false},
		{name: "Database Error", execErr: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			var gotArgs []any
			repo := NewPostgres(&MockDB{
				ExecContextFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
					gotQuery, gotArgs = query, args
					if tt.execErr != nil {
						return nil, tt.execErr
					}
					return mockResult(tt.affected), nil
				},
			})

			claimed, err := repo.ClaimReminder(context.Background(), "appt_1")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
			}
			if claimed != tt.wantClaimed {
				t.Errorf("Expected claimed %v, got %v", tt.wantClaimed, claimed)
			}
			if !strings.Contains(gotQuery, "reminder_sent = false") {
				t.Errorf("Claim must be conditional on reminder_sent = false, got %q", gotQuery)
			}
			if len(gotArgs) != 1 || gotArgs[0] != "appt_1" {
				t.Errorf("Unexpected args %v", gotArgs)
			}
		})
	}
}

func TestPostgres_ReleaseReminder_NotFound(t *testing.T) {
	repo := NewPostgres(&MockDB{
		ExecContextFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			return mockResult(0), nil
		},
	})
	if err := repo.ReleaseReminder(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_DeleteSubscriptionByEndpoint_ScopedToAccount(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	repo := NewPostgres(&MockDB{
		ExecContextFunc: func(ctx context.Context, query string, args ...any) (sql.Result, error) {
			gotQuery, gotArgs = query, args
			return mockResult(1), nil
		},
	})

	if err := repo.DeleteSubscriptionByEndpoint(context.Background(), "user_1", "https://push.example/abc"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "endpoint = $1 AND user_id = $2") {
		t.Errorf("Delete must be scoped to endpoint and account, got %q", gotQuery)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "https://push.example/abc" || gotArgs[1] != "user_1" {
		t.Errorf("Unexpected args %v", gotArgs)
	}
}
