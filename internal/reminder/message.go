package reminder

import (
	"bytes"
	"math"
	"strings"
	"text/template"
	"time"

	"github.com/studiofisyo/ledger/internal/push"
)

const (
	DefaultTitle        = "Studio FISYO"
	AppointmentListPath = "/operator/appointments"
)

var bodyTemplate = template.Must(template.New("reminder").Parse(
	`In {{.Minutes}} min: {{.Patient}} - {{.Service}}`,
))

// MessageConfig controls the fixed parts of every reminder.
type MessageConfig struct {
	Title   string
	BaseURL string
}

func (c MessageConfig) link() string {
	return strings.TrimRight(c.BaseURL, "/") + AppointmentListPath
}

// MinutesUntil rounds the time left before start to the nearest minute.
func MinutesUntil(start, now time.Time) int {
	return int(math.Round(start.Sub(now).Minutes()))
}

// BuildNotification renders the reminder for one appointment.
func BuildNotification(cfg MessageConfig, appt Appointment, now time.Time) push.Notification {
	title := cfg.Title
	if title == "" {
		title = DefaultTitle
	}

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, struct {
		Minutes int
		Patient string
		Service string
	}{MinutesUntil(appt.StartsAt, now), appt.PatientName, appt.ServiceName})
	body := buf.String()
	if err != nil {
		body = "Upcoming appointment"
	}

	return push.Notification{
		Title: title,
		Body:  body,
		URL:   cfg.link(),
	}
}
