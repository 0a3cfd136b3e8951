package reminder

import (
	"context"

	"github.com/studiofisyo/ledger/internal/push"
)

// Store is the external appointment and subscription store as seen by the
// dispatcher.
type Store interface {
	// EligibleAppointments returns scheduled, not yet reminded appointments
	// whose start time lies strictly inside w.
	EligibleAppointments(ctx context.Context, w Window) ([]Appointment, error)
	// SubscriptionsByAccount returns every device registration of an account.
	SubscriptionsByAccount(ctx context.Context, accountID string) ([]push.Subscription, error)
	// ClaimReminder flips reminder_sent from false to true and reports whether
	// this caller made the change.
	ClaimReminder(ctx context.Context, appointmentID string) (bool, error)
	// ReleaseReminder undoes a claim so a later run picks the appointment up.
	ReleaseReminder(ctx context.Context, appointmentID string) error
	DeleteSubscription(ctx context.Context, subscriptionID string) error
}
