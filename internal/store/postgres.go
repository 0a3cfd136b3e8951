// Package store implements the appointment and push subscription store used
// by the reminder dispatcher and the subscription registrar.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/studiofisyo/ledger/internal/push"
	"github.com/studiofisyo/ledger/internal/reminder"
)

// DB is the subset of *sql.DB used by Postgres.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Postgres reads and writes the practice database. Row-level security and
// the schema belong to the database; this type only issues queries.
type Postgres struct {
	db DB
}

func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

const eligibleQuery = `
	SELECT a.id::text, a.starts_at, a.status, a.reminder_sent,
	       COALESCE(p.full_name, ''), COALESCE(s.name, ''),
	       a.operator_id::text, COALESCE(o.user_id::text, '')
	FROM appointments a
	JOIN operators o ON o.id = a.operator_id
	LEFT JOIN patients p ON p.id = a.patient_id
	LEFT JOIN services s ON s.id = a.service_id
	WHERE a.status = 'scheduled'
	  AND a.reminder_sent = false
	  AND a.starts_at > $1
	  AND a.starts_at < $2
	ORDER BY a.starts_at
`

func (r *Postgres) EligibleAppointments(ctx context.Context, w reminder.Window) ([]reminder.Appointment, error) {
	rows, err := r.db.QueryContext(ctx, eligibleQuery, w.From, w.To)
	if err != nil {
		return nil, fmt.Errorf("query eligible appointments: %w", err)
	}
	defer rows.Close()

	var out []reminder.Appointment
	for rows.Next() {
		var a reminder.Appointment
		if err := rows.Scan(&a.ID, &a.StartsAt, &a.Status, &a.ReminderSent,
			&a.PatientName, &a.ServiceName, &a.OperatorID, &a.OperatorAccountID); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Postgres) SubscriptionsByAccount(ctx context.Context, accountID string) ([]push.Subscription, error) {
	query := `
		SELECT id::text, user_id::text, endpoint, p256dh, auth, created_at
		FROM push_subscriptions WHERE user_id = $1 ORDER BY created_at
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}
	defer rows.Close()

	var out []push.Subscription
	for rows.Next() {
		var s push.Subscription
		if err := rows.Scan(&s.ID, &s.AccountID, &s.Endpoint, &s.Keys.P256dh, &s.Keys.Auth, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ClaimReminder is a conditional update, so of two overlapping runs only one
// sees a changed row.
func (r *Postgres) ClaimReminder(ctx context.Context, appointmentID string) (bool, error) {
	query := `
		UPDATE appointments SET reminder_sent = true
		WHERE id = $1 AND reminder_sent = false AND status = 'scheduled'
	`
	res, err := r.db.ExecContext(ctx, query, appointmentID)
	if err != nil {
		return false, fmt.Errorf("claim reminder: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim reminder rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *Postgres) ReleaseReminder(ctx context.Context, appointmentID string) error {
	query := `UPDATE appointments SET reminder_sent = false WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, appointmentID)
	if err != nil {
		return fmt.Errorf("release reminder: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Postgres) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM push_subscriptions WHERE id = $1`, subscriptionID)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// UpsertSubscription inserts or refreshes the row keyed by (user_id, endpoint).
func (r *Postgres) UpsertSubscription(ctx context.Context, sub push.Subscription) (push.Subscription, error) {
	query := `
		INSERT INTO push_subscriptions (id, user_id, endpoint, p256dh, auth, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (user_id, endpoint)
		DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
		RETURNING id::text, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), sub.AccountID, sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return push.Subscription{}, fmt.Errorf("upsert subscription: %w", err)
	}
	return sub, nil
}

func (r *Postgres) DeleteSubscriptionByEndpoint(ctx context.Context, accountID, endpoint string) error {
	query := `DELETE FROM push_subscriptions WHERE endpoint = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, endpoint, accountID); err != nil {
		return fmt.Errorf("delete subscription by endpoint: %w", err)
	}
	return nil
}
