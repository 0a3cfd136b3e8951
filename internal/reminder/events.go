package reminder

import (
	"context"
	"encoding/json"
	"time"
)

const EventDispatched = "reminder.dispatched"

// EventPublisher receives one event per handled appointment.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type DispatchedEvent struct {
	Type          string    `json:"type"`
	RunID         string    `json:"run_id"`
	AppointmentID string    `json:"appointment_id"`
	OperatorID    string    `json:"operator_id"`
	Delivered     int       `json:"delivered"`
	Failed        int       `json:"failed"`
	Pruned        int       `json:"pruned"`
	DispatchedAt  time.Time `json:"dispatched_at"`
}

func newDispatchedEvent(runID string, appt Appointment, results []Result, at time.Time) DispatchedEvent {
	delivered, failed, pruned := Counts(results)
	return DispatchedEvent{
		Type:          EventDispatched,
		RunID:         runID,
		AppointmentID: appt.ID,
		OperatorID:    appt.OperatorID,
		Delivered:     delivered,
		Failed:        failed,
		Pruned:        pruned,
		DispatchedAt:  at.UTC(),
	}
}

func (e DispatchedEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
