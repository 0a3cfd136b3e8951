package reminder

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

const (
	// WindowLead is how far ahead of now the lookahead window opens.
	WindowLead = 5 * time.Minute
	// WindowSpan is the width of the lookahead window.
	WindowSpan = 20 * time.Minute
)

// Appointment is a booked session joined with the names needed for the
// reminder text and the operator's account identity.
type Appointment struct {
	ID                string    `json:"id"`
	StartsAt          time.Time `json:"starts_at"`
	Status            Status    `json:"status"`
	ReminderSent      bool      `json:"reminder_sent"`
	PatientName       string    `json:"patient_name"`
	ServiceName       string    `json:"service_name"`
	OperatorID        string    `json:"operator_id"`
	OperatorAccountID string    `json:"operator_user_id"`
}

// Window is the open interval (From, To) in which an appointment start time
// makes it eligible for a reminder.
type Window struct {
	From time.Time
	To   time.Time
}

func NewWindow(now time.Time) Window {
	from := now.Add(WindowLead)
	return Window{From: from, To: from.Add(WindowSpan)}
}

// Contains is exclusive on both ends.
func (w Window) Contains(t time.Time) bool {
	return t.After(w.From) && t.Before(w.To)
}

// Eligible reports whether a is due for a reminder inside w.
func (w Window) Eligible(a Appointment) bool {
	return a.Status == StatusScheduled && !a.ReminderSent && w.Contains(a.StartsAt)
}

// Result is the outcome of one delivery attempt, or of an appointment that
// could not reach the delivery stage.
type Result struct {
	Appointment  string `json:"appt"`
	Subscription string `json:"-"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	Pruned       bool   `json:"-"`
}

const (
	MsgNoAppointments = "No appointments to remind"
	MsgInProgress     = "Dispatch already in progress"
)

// Summary is what a run reports back to the scheduler. A run that had nothing
// to do carries only Message.
type Summary struct {
	Message   string
	Processed int
	Results   []Result
}

func (s Summary) MarshalJSON() ([]byte, error) {
	if s.Message != "" {
		return json.Marshal(struct {
			Message string `json:"message"`
		}{s.Message})
	}
	results := s.Results
	if results == nil {
		results = []Result{}
	}
	return json.Marshal(struct {
		Processed int      `json:"processed"`
		Results   []Result `json:"results"`
	}{s.Processed, results})
}

// Counts tallies the results of one appointment.
func Counts(results []Result) (delivered, failed, pruned int) {
	for _, r := range results {
		switch {
		case r.Success:
			delivered++
		case r.Pruned:
			failed++
			pruned++
		default:
			failed++
		}
	}
	return delivered, failed, pruned
}
