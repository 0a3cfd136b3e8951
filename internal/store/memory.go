package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/studiofisyo/ledger/internal/push"
	"github.com/studiofisyo/ledger/internal/reminder"
)

// Memory is an in-process store for local runs and tests. It follows the
// same contracts as Postgres.
type Memory struct {
	mu            sync.Mutex
	appointments  map[string]reminder.Appointment
	subscriptions []push.Subscription
	mutations     int

	// EligibleErr, when set, fails every EligibleAppointments call.
	EligibleErr error
	// SubscriptionsErr, when set, is consulted on every subscription lookup.
	SubscriptionsErr func(accountID string) error
}

func NewMemory() *Memory {
	return &Memory{appointments: make(map[string]reminder.Appointment)}
}

func (m *Memory) AddAppointment(a reminder.Appointment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[a.ID] = a
}

func (m *Memory) Appointment(id string) (reminder.Appointment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[id]
	return a, ok
}

// AddSubscription stores s as-is, assigning an ID when empty.
func (m *Memory) AddSubscription(s push.Subscription) push.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	m.subscriptions = append(m.subscriptions, s)
	return s
}

// Subscriptions lists an account's subscriptions without going through the
// context-aware API.
func (m *Memory) Subscriptions(accountID string) []push.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byAccount(accountID)
}

// Mutations counts writes made through the store interfaces.
func (m *Memory) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutations
}

func (m *Memory) byAccount(accountID string) []push.Subscription {
	var out []push.Subscription
	for _, s := range m.subscriptions {
		if s.AccountID == accountID {
			out = append(out, s)
		}
	}
	return out
}

func (m *Memory) EligibleAppointments(ctx context.Context, w reminder.Window) ([]reminder.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EligibleErr != nil {
		return nil, m.EligibleErr
	}

	var out []reminder.Appointment
	for _, a := range m.appointments {
		if w.Eligible(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartsAt.Equal(out[j].StartsAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

func (m *Memory) SubscriptionsByAccount(ctx context.Context, accountID string) ([]push.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubscriptionsErr != nil {
		if err := m.SubscriptionsErr(accountID); err != nil {
			return nil, err
		}
	}
	return m.byAccount(accountID), nil
}

func (m *Memory) ClaimReminder(ctx context.Context, appointmentID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[appointmentID]
	if !ok || a.ReminderSent || a.Status != reminder.StatusScheduled {
		return false, nil
	}
	a.ReminderSent = true
	m.appointments[appointmentID] = a
	m.mutations++
	return true, nil
}

func (m *Memory) ReleaseReminder(ctx context.Context, appointmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appointments[appointmentID]
	if !ok {
		return ErrNotFound
	}
	a.ReminderSent = false
	m.appointments[appointmentID] = a
	m.mutations++
	return nil
}

func (m *Memory) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeWhere(func(s push.Subscription) bool { return s.ID == subscriptionID })
	return nil
}

func (m *Memory) UpsertSubscription(ctx context.Context, sub push.Subscription) (push.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations++
	for i, s := range m.subscriptions {
		if s.AccountID == sub.AccountID && s.Endpoint == sub.Endpoint {
			m.subscriptions[i].Keys = sub.Keys
			return m.subscriptions[i], nil
		}
	}
	sub.ID = uuid.NewString()
	sub.CreatedAt = time.Now()
	m.subscriptions = append(m.subscriptions, sub)
	return sub, nil
}

func (m *Memory) DeleteSubscriptionByEndpoint(ctx context.Context, accountID, endpoint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeWhere(func(s push.Subscription) bool {
		return s.AccountID == accountID && s.Endpoint == endpoint
	})
	return nil
}

func (m *Memory) removeWhere(match func(push.Subscription) bool) {
	kept := m.subscriptions[:0]
	for _, s := range m.subscriptions {
		if match(s) {
			m.mutations++
			continue
		}
		kept = append(kept, s)
	}
	m.subscriptions = kept
}
